// Package pipeline provides a framework for running documents through a
// sequence of steps.
//
// A document is read, looked up in the conversion cache, converted, stored
// back into the cache and finally written in place or emitted. Each stage is
// a Step that receives the current model.Document and can modify it, so the
// format command can assemble only the stages a run needs (no cache, check
// mode without writes, and so on).
//
// BatchProcessor runs one pipeline per document with bounded concurrency
// using errgroup.
package pipeline
