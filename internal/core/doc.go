// Package core runs vocabulary dataset imports.
//
// The pure pipeline is two calls, [ParseFromBytes] and [ParseFromText]:
// bytes or text go through the source reader into a grid, and the grid
// through the vocab normalizer into word entries. Both are synchronous and
// keep no state between calls.
//
// [Service] wraps the pipeline for the web server and the CLI:
//
//   - a counting semaphore ([ImportLimiter]) bounds concurrent imports,
//     keyed by import id so health checks and shutdown can name them
//   - remote datasets are fetched through a [Fetcher]
//   - every attempt, failed or not, is written to the import history
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]. A
// dataset with no usable rows is not an error for the pipeline (it returns
// an empty slice) but is [ErrNoEntries] for a service import.
package core
