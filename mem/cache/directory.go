package cache

// A Directory stores what is held in each set of the cache and translates
// request addresses into a set index and a tag.
//
// An address is laid out as [tag][s set-index bits][b block-offset bits].
type Directory struct {
	NumSetBits      int
	BlockOffsetBits int
	NumWays         int

	setMask uint64
	sets    []Set
}

// NewDirectory allocates 2^numSetBits sets of numWays invalid lines each. The
// arguments must already be validated.
func NewDirectory(numSetBits, numWays, blockOffsetBits int) *Directory {
	d := &Directory{
		NumSetBits:      numSetBits,
		BlockOffsetBits: blockOffsetBits,
		NumWays:         numWays,
	}

	if numSetBits > 0 {
		d.setMask = (uint64(1) << numSetBits) - 1
	}

	d.Reset()

	return d
}

// NumSets returns 2^s.
func (d *Directory) NumSets() int {
	return 1 << d.NumSetBits
}

// TotalSize returns the number of bytes the cache could hold if it stored
// payloads. It wraps around for block sizes of 2^64 bytes or more.
func (d *Directory) TotalSize() uint64 {
	return uint64(d.NumSets()) * uint64(d.NumWays) * (uint64(1) << d.BlockOffsetBits)
}

// Decompose splits an address into its set index and tag. Shifts wider than
// the address leave a zero tag.
func (d *Directory) Decompose(address uint64) (setID int, tag uint64) {
	setID = int((address >> d.BlockOffsetBits) & d.setMask)
	tag = address >> (d.BlockOffsetBits + d.NumSetBits)

	return setID, tag
}

// Set returns the set with the given index.
func (d *Directory) Set(setID int) *Set {
	return &d.sets[setID]
}

// Reset marks every line invalid with a zero tag and stamp.
func (d *Directory) Reset() {
	d.sets = make([]Set, d.NumSets())
	for i := range d.sets {
		lines := make([]Line, d.NumWays)
		for j := range lines {
			lines[j] = Line{SetID: i, WayID: j}
		}

		d.sets[i].Lines = lines
	}
}

// Released tells if the set storage has been dropped.
func (d *Directory) Released() bool {
	return d.sets == nil
}

func (d *Directory) release() {
	d.sets = nil
}
