// Package domain defines the core business entities for gitseek.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Manifest / BranchEntry: the versioned artifact catalog
//   - Document: the build-time unit, one per tracked file
//   - SearchFilters / SearchResultItem: the query-time contract
//   - IndexStatus: client-side index availability
//   - Settings: the recognized configuration surface
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
package domain
