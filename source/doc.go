// Package source reads input record batches from Arrow IPC data, Parquet files
// and in-memory records.
//
// Every Reader loads its batches when opened; ReadBatch hands out retained
// references, so batches may be evaluated concurrently.
package source
