package flight

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/flight"

	"github.com/hugr-lab/colexpr/expr"
	"github.com/hugr-lab/colexpr/internal/msgpack"
	"github.com/hugr-lab/colexpr/plan"
)

// ExchangeRequest is the command of a DoExchange descriptor, encoded as MessagePack.
// Filter and Outputs hold the JSON forms read by expr.Parse and expr.ParseOutputs.
type ExchangeRequest struct {
	Filter         string `msgpack:"filter,omitempty"`
	Outputs        string `msgpack:"outputs"`
	SelectionWidth string `msgpack:"selection_width,omitempty"`
}

// Descriptor encodes the request into a command descriptor.
func (r ExchangeRequest) Descriptor() (*flight.FlightDescriptor, error) {
	cmd, err := msgpack.Encode(r)
	if err != nil {
		return nil, err
	}
	return &flight.FlightDescriptor{Type: flight.DescriptorCMD, Cmd: cmd}, nil
}

// DecodeExchangeRequest reads the request carried by desc.
func DecodeExchangeRequest(desc *flight.FlightDescriptor) (ExchangeRequest, error) {
	var r ExchangeRequest
	if desc == nil || desc.GetType() != flight.DescriptorCMD {
		return r, fmt.Errorf("exchange requires a command descriptor")
	}
	if err := msgpack.Decode(desc.GetCmd(), &r); err != nil {
		return r, err
	}
	return r, nil
}

// exchangePlan is the parsed form of an ExchangeRequest.
type exchangePlan struct {
	filter  expr.Expression
	outputs []expr.Output
	width   plan.Width
}

func (r ExchangeRequest) parse(defaultWidth plan.Width) (exchangePlan, error) {
	var p exchangePlan
	var err error
	if r.Filter != "" {
		if p.filter, err = expr.Parse([]byte(r.Filter)); err != nil {
			return p, fmt.Errorf("filter: %w", err)
		}
	}
	if r.Outputs == "" {
		return p, fmt.Errorf("outputs are required")
	}
	if p.outputs, err = expr.ParseOutputs([]byte(r.Outputs)); err != nil {
		return p, fmt.Errorf("outputs: %w", err)
	}
	p.width = defaultWidth
	if r.SelectionWidth != "" {
		if p.width, err = plan.ParseWidth(r.SelectionWidth); err != nil {
			return p, err
		}
	}
	return p, nil
}
