package cache

// A VictimFinder decides which line of a full set should be evicted.
type VictimFinder interface {
	FindVictim(set *Set) (wayID int)
}

// LRUVictimFinder evicts the least recently used line.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	e := new(LRUVictimFinder)
	return e
}

// FindVictim returns the way with the strictly smallest LastUsed stamp. Ways
// are scanned in index order, so the lowest index wins a tie.
func (e *LRUVictimFinder) FindVictim(set *Set) int {
	victim := 0

	for i := 1; i < len(set.Lines); i++ {
		if set.Lines[i].LastUsed < set.Lines[victim].LastUsed {
			victim = i
		}
	}

	return victim
}
