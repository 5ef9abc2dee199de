package blocklist

// CacheStats is a point-in-time view of the decision cache. Counters only
// grow; Size and Capacity are current values.
type CacheStats struct {
	Capacity  int
	Size      int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// StoreStats describes the loaded rule set. Version and UpdatedUnix are
// whatever the last RebuildAll was given.
type StoreStats struct {
	Version     uint64
	UpdatedUnix int64
	ExactKeys   uint64
	SuffixKeys  uint64
}

// RepoStats combines cache and store metrics.
type RepoStats struct {
	Cache CacheStats
	Store StoreStats
}
