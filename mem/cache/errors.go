package cache

import "errors"

var (
	// ErrSetBitsOverflow is returned when 2^s cannot be represented as a set
	// count.
	ErrSetBitsOverflow = errors.New("set index bits overflow the set count")

	// ErrGeometryTooLarge is returned when the sets and ways together need
	// more lines than a cache may allocate.
	ErrGeometryTooLarge = errors.New("cache geometry is too large")

	// ErrInvalidWays is returned when the associativity is not positive.
	ErrInvalidWays = errors.New("way associativity must be positive")

	// ErrInvalidBits is returned when a bit width is negative.
	ErrInvalidBits = errors.New("bit width must not be negative")
)
