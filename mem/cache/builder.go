package cache

import (
	"fmt"
	"math/bits"
)

// MaxNumLines bounds the number of lines, 2^s times E, of a single cache.
const MaxNumLines = 1 << 26

// Builder can build caches.
type Builder struct {
	numSetBits       int
	wayAssociativity int
	blockOffsetBits  int
	victimFinder     VictimFinder
}

// MakeBuilder creates a new builder with a direct-mapped, single-set,
// single-byte-block geometry.
func MakeBuilder() Builder {
	return Builder{
		numSetBits:       0,
		wayAssociativity: 1,
		blockOffsetBits:  0,
	}
}

// WithNumSetBits sets s, the number of set-index bits.
func (b Builder) WithNumSetBits(numSetBits int) Builder {
	b.numSetBits = numSetBits
	return b
}

// WithWayAssociativity sets E, the number of lines per set.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithBlockOffsetBits sets b, the number of block-offset bits.
func (b Builder) WithBlockOffsetBits(blockOffsetBits int) Builder {
	b.blockOffsetBits = blockOffsetBits
	return b
}

// WithVictimFinder replaces the default LRU victim finder.
func (b Builder) WithVictimFinder(victimFinder VictimFinder) Builder {
	b.victimFinder = victimFinder
	return b
}

// Build allocates a cache with every line invalid.
func (b Builder) Build(name string) (*Cache, error) {
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("building cache %s: %w", name, err)
	}

	victimFinder := b.victimFinder
	if victimFinder == nil {
		victimFinder = NewLRUVictimFinder()
	}

	c := &Cache{
		name: name,
		directory: NewDirectory(
			b.numSetBits,
			b.wayAssociativity,
			b.blockOffsetBits,
		),
		victimFinder: victimFinder,
	}

	return c, nil
}

func (b Builder) validate() error {
	if b.numSetBits < 0 {
		return fmt.Errorf("s=%d: %w", b.numSetBits, ErrInvalidBits)
	}

	if b.blockOffsetBits < 0 {
		return fmt.Errorf("b=%d: %w", b.blockOffsetBits, ErrInvalidBits)
	}

	// The set count is held in an int, which keeps one bit for the sign.
	if b.numSetBits >= bits.UintSize-1 {
		return fmt.Errorf("s=%d: %w", b.numSetBits, ErrSetBitsOverflow)
	}

	if b.wayAssociativity <= 0 {
		return fmt.Errorf("E=%d: %w", b.wayAssociativity, ErrInvalidWays)
	}

	if b.wayAssociativity > MaxNumLines>>b.numSetBits {
		return fmt.Errorf("s=%d E=%d needs more than %d lines: %w",
			b.numSetBits, b.wayAssociativity, MaxNumLines,
			ErrGeometryTooLarge)
	}

	return nil
}
