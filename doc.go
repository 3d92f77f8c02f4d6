// Package instant provides the shared runtime surface for typed clients
// generated against an InstantDB admin API: the error types reported by
// schema derivation, expand compilation, step encoding, response decoding
// and the HTTP transport.
//
// The heavy lifting lives in the subpackages:
//
//   - schema: parses the raw admin schema and builds the relation graph.
//   - query: compiles expand specs into query shapes and normalizes the
//     relation encodings found in query responses.
//   - transact: validates and (de)serializes transaction steps.
//   - admin: the HTTP admin client and the generic entity service used
//     by generated code.
//   - compiler/load, compiler/gen: schema fetching and client generation.
//
// All structural validation (expand legality, step arity and field types,
// link argument discipline) happens before any I/O, so invalid input never
// produces a partial or malformed remote request.
package instant
