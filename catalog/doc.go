// Package catalog describes the shape of columnar data: type tags, fields and
// schemas, and how they map to Arrow.
//
// A Schema is built once per batch shape and resolves field names for the
// expression compiler:
//
//	schema, err := catalog.FromArrow(batch.Schema())
//	if err != nil {
//		return err
//	}
//	f, err := schema.Resolve("f0")
//
// Output contracts are declared with Empty before any data exists; the
// resulting schema can produce a zero-row batch with EmptyBatch.
package catalog
