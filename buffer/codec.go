package buffer

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/ipc"
)

// Codec selects Arrow IPC body compression.
type Codec int

const (
	CodecNone Codec = iota
	CodecZstd
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("codec(%d)", int(c))
	}
}

// ParseCodec parses "none", "zstd" or "lz4". The empty string is "none".
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CodecNone, nil
	case "zstd":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return CodecNone, fmt.Errorf("unknown codec %q", s)
	}
}

// IPCOptions returns the Arrow IPC writer options enabling the codec.
func (c Codec) IPCOptions() []ipc.Option {
	switch c {
	case CodecZstd:
		return []ipc.Option{ipc.WithZstd()}
	case CodecLZ4:
		return []ipc.Option{ipc.WithLZ4()}
	default:
		return nil
	}
}
