// Package model defines the data structures shared by the pipeline, the
// cache and the report writers.
//
// This package contains the following main types:
//   - Document: One file (or standard input) moving through the pipeline
//   - Summary: Aggregated counts for a batch of documents
//
// Models live in their own package so that pipeline and report can both use
// them without importing each other. Both types serialize to JSON for the
// machine-readable report.
package model
