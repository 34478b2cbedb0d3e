package flight

import (
	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/colexpr/internal/msgpack"
	"github.com/hugr-lab/colexpr/plan"
)

// ActionListFunctions returns the registered function names as a MessagePack string array.
const ActionListFunctions = "list_functions"

// ListActions advertises the supported actions.
func (s *Server) ListActions(_ *flight.Empty, stream flight.FlightService_ListActionsServer) error {
	return stream.Send(&flight.ActionType{
		Type:        ActionListFunctions,
		Description: "names of the functions usable in filter and output expressions",
	})
}

// DoAction executes server actions.
func (s *Server) DoAction(action *flight.Action, stream flight.FlightService_DoActionServer) error {
	s.logger.Debug("DoAction called", "type", action.GetType())

	switch action.GetType() {
	case ActionListFunctions:
		body, err := msgpack.Encode(plan.Functions())
		if err != nil {
			return status.Errorf(codes.Internal, "failed to encode functions: %v", err)
		}
		return stream.Send(&flight.Result{Body: body})
	default:
		return status.Errorf(codes.Unimplemented, "unknown action type: %s", action.GetType())
	}
}
