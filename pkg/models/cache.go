package models

// CacheStats reports result-cache performance metrics.
type CacheStats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Invalidations int64 `json:"invalidations"`
	SizeBytes     int64 `json:"size_bytes"`
	Entries       int64 `json:"entries"`
}
