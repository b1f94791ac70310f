// Package config holds the untyped constants shared across the DrgPoRep
// packages: node width, default graph shape, and default VDE cost.
package config

const (
	// NodeSize is the width in bytes of one node (one field element), L in
	// spec.md's data model.
	NodeSize = 32

	// DefaultBaseDegree is the base in-degree used when a caller does not
	// specify one explicitly.
	DefaultBaseDegree = 6

	// DefaultExpansionDegree is 0 for a pure single-layer DRG (spec.md §3).
	DefaultExpansionDegree = 0

	// DefaultSlothIterations is the default VDE cost per node.
	DefaultSlothIterations = 1

	// MinBucketSize is the smallest bucket bucket-sampling draws from; buckets
	// double in size moving away from the child node (pkg/drgraph).
	MinBucketSize = 2
)
