package cache

// Outcome is the result of a single cache access.
type Outcome int

// The three possible outcomes of an access.
const (
	Hit Outcome = iota
	MissNoEviction
	MissWithEviction
)

// String returns the token used in verbose traces.
func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case MissNoEviction:
		return "miss"
	case MissWithEviction:
		return "miss eviction"
	default:
		panic("unknown outcome")
	}
}

// IsHit tells if the block was already resident.
func (o Outcome) IsHit() bool {
	return o == Hit
}

// IsEviction tells if a valid block had to be replaced.
func (o Outcome) IsEviction() bool {
	return o == MissWithEviction
}

// Stats holds the global counters of a cache. Every field only grows.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Accesses returns the number of accesses that have been counted.
func (s Stats) Accesses() uint64 {
	return s.Hits + s.Misses
}
