// Package buffer materializes projector output into self-describing Arrow IPC
// buffers and decodes them back into record batches.
package buffer
