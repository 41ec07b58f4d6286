package telemetry

// Span names for engine operations.
const (
	SpanDistance   = "engine.distance"
	SpanSparsity   = "engine.sparsity"
	SpanAlign      = "engine.align"
	SpanSimilarity = "engine.similarity"
	SpanConsensus  = "engine.consensus"
)

// Span attribute keys.
const (
	AttrPoints      = "stream.points"
	AttrStreams     = "stream.count"
	AttrRadius      = "align.radius"
	AttrApproximate = "consensus.approximate"
	AttrCacheHit    = "cache.hit"
)
