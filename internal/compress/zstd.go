// Package compress wraps whole-file zstd compression for .zst inputs and outputs.
package compress

import (
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Ext is the file extension of zstd-compressed files.
const Ext = ".zst"

// Compressor encodes zstd frames. It is safe for concurrent use.
type Compressor struct {
	encoder *zstd.Encoder
}

// NewCompressor creates a compressor at the default level.
// Close releases its resources.
func NewCompressor() (*Compressor, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &Compressor{encoder: encoder}, nil
}

// Compress returns data as one zstd frame.
func (c *Compressor) Compress(data []byte) []byte {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

func (c *Compressor) Close() error {
	return c.encoder.Close()
}

// Decompressor decodes zstd frames. It is safe for concurrent use.
type Decompressor struct {
	decoder *zstd.Decoder
}

// NewDecompressor creates a decompressor. Close releases its resources.
func NewDecompressor() (*Decompressor, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Decompressor{decoder: decoder}, nil
}

// Decompress decodes every frame of compressed.
func (d *Decompressor) Decompress(compressed []byte) ([]byte, error) {
	out, err := d.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	return out, nil
}

func (d *Decompressor) Close() {
	d.decoder.Close()
}

// IsCompressed reports whether path names a zstd file.
func IsCompressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), Ext)
}

// TrimExt strips the .zst extension, exposing the inner file type.
func TrimExt(path string) string {
	if IsCompressed(path) {
		return path[:len(path)-len(Ext)]
	}
	return path
}

// ReadFile reads path, decompressing it when it carries the .zst extension.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !IsCompressed(path) {
		return data, nil
	}
	d, err := NewDecompressor()
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Decompress(data)
}

// WriteFile writes data to path, compressing it when path carries the .zst extension.
func WriteFile(path string, data []byte) error {
	if IsCompressed(path) {
		c, err := NewCompressor()
		if err != nil {
			return err
		}
		data = c.Compress(data)
		if err := c.Close(); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
