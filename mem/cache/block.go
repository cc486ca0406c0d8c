package cache

// A Line is the information that the cache keeps for one way of a set. The
// payload bytes are never modeled, only which block occupies the way.
//
// Tag and LastUsed are meaningless while IsValid is false.
type Line struct {
	SetID    int
	WayID    int
	Tag      uint64
	LastUsed uint64
	IsValid  bool
}

// A Set is the list of lines where a certain block of memory can be stored.
// Lines keep their index position for the lifetime of the cache.
type Set struct {
	Lines []Line
}

// Lookup returns the way that holds a valid copy of the block with the given
// tag. Lines are scanned in index order.
func (s *Set) Lookup(tag uint64) (wayID int, found bool) {
	for i := range s.Lines {
		line := &s.Lines[i]
		if line.IsValid && line.Tag == tag {
			return i, true
		}
	}

	return 0, false
}

// FindInvalid returns the lowest-indexed line that does not hold a block.
func (s *Set) FindInvalid() (wayID int, found bool) {
	for i := range s.Lines {
		if !s.Lines[i].IsValid {
			return i, true
		}
	}

	return 0, false
}

// Tags returns the tags of the valid lines, in way order.
func (s *Set) Tags() []uint64 {
	tags := make([]uint64, 0, len(s.Lines))
	for _, line := range s.Lines {
		if line.IsValid {
			tags = append(tags, line.Tag)
		}
	}

	return tags
}

func (s *Set) fill(wayID int, tag uint64, stamp uint64) {
	line := &s.Lines[wayID]
	line.IsValid = true
	line.Tag = tag
	line.LastUsed = stamp
}

func (s *Set) touch(wayID int, stamp uint64) {
	s.Lines[wayID].LastUsed = stamp
}
