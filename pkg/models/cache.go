package models

// CacheStats reports durable cache performance metrics.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// TierStats reports lookups served by each cache tier.
type TierStats struct {
	LocalHits   int64 `json:"local_hits"`
	DurableHits int64 `json:"durable_hits"`
	Misses      int64 `json:"misses"`
}
