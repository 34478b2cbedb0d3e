package expr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hugr-lab/colexpr/catalog"
)

// Parse parses an expression tree from its JSON form.
// Empty input and a JSON null both yield a nil expression and no error.
//
// The accepted shapes are:
//
//	{"type":"&&"|"||","left":E,"right":E}
//	{"type":"!","expression":E}
//	{"type":">"|">="|"=="|"!="|"<="|"<","left":E,"right":E}
//	{"type":"<TypeTag>","literal":"10"}
//	{"type":"literal","literal":"f0"}            field reference
//	{"type":"call","name":"like","args":[E, ...]}
func Parse(data []byte) (Expression, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	e, err := parseExpression(data)
	if err != nil {
		return nil, fmt.Errorf("expr: %w", err)
	}
	return e, nil
}

// ParseOutputs parses output column declarations:
//
//	[{"name":"result","type":"Int32","expression":E}, ...]
func ParseOutputs(data []byte) ([]Output, error) {
	var raw []rawOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("expr: invalid outputs JSON: %w", err)
	}
	outputs := make([]Output, 0, len(raw))
	for i, ro := range raw {
		if ro.Name == "" {
			return nil, fmt.Errorf("expr: output %d: missing name", i)
		}
		tag, err := catalog.ParseTypeTag(ro.Type)
		if err != nil {
			return nil, fmt.Errorf("expr: output %q: %w", ro.Name, err)
		}
		var e Expression
		if len(ro.Expression) > 0 {
			e, err = parseExpression(ro.Expression)
			if err != nil {
				return nil, fmt.Errorf("expr: output %q: %w", ro.Name, err)
			}
		}
		outputs = append(outputs, Output{Name: ro.Name, Type: tag, Expr: e})
	}
	return outputs, nil
}

type rawOutput struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Expression json.RawMessage `json:"expression"`
}

// rawExpression is used for two-phase parsing: the type tag selects the variant.
type rawExpression struct {
	Type       string            `json:"type"`
	Literal    json.RawMessage   `json:"literal"`
	Left       json.RawMessage   `json:"left"`
	Right      json.RawMessage   `json:"right"`
	Expression json.RawMessage   `json:"expression"`
	Name       string            `json:"name"`
	Args       []json.RawMessage `json:"args"`
}

func parseExpression(data json.RawMessage) (Expression, error) {
	if isNull(data) {
		return nil, nil
	}
	var raw rawExpression
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}

	switch raw.Type {
	case "":
		return nil, fmt.Errorf("expression without type")
	case string(OpAnd), string(OpOr):
		left, right, err := parseOperands(raw)
		if err != nil {
			return nil, err
		}
		return &BinaryBool{Op: BoolOp(raw.Type), Left: left, Right: right}, nil
	case "!":
		operand, err := parseRequired(raw.Expression, "operand")
		if err != nil {
			return nil, err
		}
		return &Not{Operand: operand}, nil
	case "literal":
		name, err := literalText(raw.Literal)
		if err != nil {
			return nil, fmt.Errorf("invalid field reference: %w", err)
		}
		return &FieldRef{Name: name}, nil
	case "call":
		if raw.Name == "" {
			return nil, fmt.Errorf("call without function name")
		}
		args := make([]Expression, 0, len(raw.Args))
		for i, a := range raw.Args {
			arg, err := parseRequired(a, "argument "+strconv.Itoa(i))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", raw.Name, err)
			}
			args = append(args, arg)
		}
		return &Call{Name: raw.Name, Args: args}, nil
	}

	if op := CompareOp(raw.Type); op.valid() {
		left, right, err := parseOperands(raw)
		if err != nil {
			return nil, err
		}
		return &Comparison{Op: op, Left: left, Right: right}, nil
	}

	tag, err := catalog.ParseTypeTag(raw.Type)
	if err != nil {
		return nil, fmt.Errorf("unknown expression type %q", raw.Type)
	}
	text, err := literalText(raw.Literal)
	if err != nil {
		return nil, fmt.Errorf("invalid %s literal: %w", tag, err)
	}
	return &Literal{Type: tag, Text: text}, nil
}

func parseOperands(raw rawExpression) (Expression, Expression, error) {
	left, err := parseRequired(raw.Left, "left operand")
	if err != nil {
		return nil, nil, err
	}
	right, err := parseRequired(raw.Right, "right operand")
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func parseRequired(data json.RawMessage, what string) (Expression, error) {
	if isNull(data) {
		return nil, fmt.Errorf("missing %s", what)
	}
	e, err := parseExpression(data)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", what, err)
	}
	return e, nil
}

// literalText accepts the literal as a JSON string or as a bare number or boolean.
func literalText(data json.RawMessage) (string, error) {
	if isNull(data) {
		return "", fmt.Errorf("missing literal")
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch v := v.(type) {
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("literal must be a string, number or boolean")
	}
}

func isNull(data json.RawMessage) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}

// Marshal returns the JSON form of e accepted by Parse.
func Marshal(e Expression) ([]byte, error) {
	return json.Marshal(toJSON(e))
}

// MarshalOutputs returns the JSON form of outputs accepted by ParseOutputs.
func MarshalOutputs(outputs []Output) ([]byte, error) {
	type jsonOutput struct {
		Name       string `json:"name"`
		Type       string `json:"type"`
		Expression any    `json:"expression"`
	}
	out := make([]jsonOutput, len(outputs))
	for i, o := range outputs {
		out[i] = jsonOutput{Name: o.Name, Type: string(o.Type), Expression: toJSON(o.Expr)}
	}
	return json.Marshal(out)
}

func toJSON(e Expression) any {
	switch e := e.(type) {
	case nil:
		return nil
	case *Literal:
		return map[string]any{"type": string(e.Type), "literal": e.Text}
	case *FieldRef:
		return map[string]any{"type": "literal", "literal": e.Name}
	case *Not:
		return map[string]any{"type": "!", "expression": toJSON(e.Operand)}
	case *BinaryBool:
		return map[string]any{"type": string(e.Op), "left": toJSON(e.Left), "right": toJSON(e.Right)}
	case *Comparison:
		return map[string]any{"type": string(e.Op), "left": toJSON(e.Left), "right": toJSON(e.Right)}
	case *Call:
		args := make([]any, len(e.Args))
		for i, a := range e.Args {
			args[i] = toJSON(a)
		}
		return map[string]any{"type": "call", "name": e.Name, "args": args}
	default:
		return nil
	}
}
