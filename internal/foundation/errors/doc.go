// Package errors provides the classified error primitives used across docpress.
//
// Every problem the pipeline reports carries a category (config, parse,
// structural, reference, filesystem, ...), a severity and a free-form context
// map. Per-item problems are built with Warning severity and handed to a
// diag.Sink instead of being returned; only fatal errors abort a run.
//
// Example usage:
//
//	err := errors.StructuralError("excluded from toc: invalid nesting level").
//		WithContext("toc", tocPath).
//		WithContext("reference", item.Reference).
//		Build()
package errors
