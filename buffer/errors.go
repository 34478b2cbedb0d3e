package buffer

import "fmt"

// BufferEncodingError reports columns that do not fit the declared output schema.
// Column is -1 when the column count itself is wrong.
type BufferEncodingError struct {
	Column int
	Name   string
	Reason string
}

func (e *BufferEncodingError) Error() string {
	if e.Column < 0 {
		return "buffer encoding: " + e.Reason
	}
	return fmt.Sprintf("buffer encoding: column %d (%q): %s", e.Column, e.Name, e.Reason)
}
