package replay

import (
	"fmt"
	"strconv"
)

// Kind is the operation of a trace record.
type Kind byte

// The operations that may appear in a trace.
const (
	Load        Kind = 'L'
	Store       Kind = 'S'
	Modify      Kind = 'M'
	Instruction Kind = 'I'
)

// String returns the operation letter.
func (k Kind) String() string {
	return string(rune(k))
}

// NumAccesses returns how many cache accesses the operation performs.
func (k Kind) NumAccesses() int {
	switch k {
	case Load, Store:
		return 1
	case Modify:
		return 2
	default:
		return 0
	}
}

func (k Kind) isKnown() bool {
	switch k {
	case Load, Store, Modify, Instruction:
		return true
	default:
		return false
	}
}

// A Record is one memory operation of a trace.
type Record struct {
	Kind    Kind
	Address uint64
	Size    int
}

// String echoes the record the way verbose traces show it.
func (r Record) String() string {
	return fmt.Sprintf("%c %x,%d", byte(r.Kind), r.Address, r.Size)
}

// ParseRecord parses a line of the form " L 7ff000,8". Leading white space
// and white space between the operation and the address are optional. Text
// after the size is ignored. The address may carry a 0x prefix.
func ParseRecord(line string) (Record, bool) {
	p := lineParser{s: line}

	p.skipSpace()

	op, ok := p.next()
	if !ok || !Kind(op).isKnown() {
		return Record{}, false
	}

	p.skipSpace()

	address, ok := p.hex()
	if !ok {
		return Record{}, false
	}

	if !p.expect(',') {
		return Record{}, false
	}

	p.skipSpace()

	size, ok := p.decimal()
	if !ok {
		return Record{}, false
	}

	return Record{Kind: Kind(op), Address: address, Size: size}, true
}

type lineParser struct {
	s   string
	pos int
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') ||
		('a' <= c && c <= 'f') ||
		('A' <= c && c <= 'F')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func (p *lineParser) skipSpace() {
	for p.pos < len(p.s) && isSpace(p.s[p.pos]) {
		p.pos++
	}
}

func (p *lineParser) next() (byte, bool) {
	if p.pos >= len(p.s) {
		return 0, false
	}

	c := p.s[p.pos]
	p.pos++

	return c, true
}

func (p *lineParser) expect(c byte) bool {
	if p.pos >= len(p.s) || p.s[p.pos] != c {
		return false
	}

	p.pos++

	return true
}

func (p *lineParser) hex() (uint64, bool) {
	rest := p.s[p.pos:]
	if len(rest) > 2 && rest[0] == '0' &&
		(rest[1] == 'x' || rest[1] == 'X') && isHexDigit(rest[2]) {
		p.pos += 2
	}

	start := p.pos
	for p.pos < len(p.s) && isHexDigit(p.s[p.pos]) {
		p.pos++
	}

	if start == p.pos {
		return 0, false
	}

	v, err := strconv.ParseUint(p.s[start:p.pos], 16, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}

func (p *lineParser) decimal() (int, bool) {
	start := p.pos
	if p.pos < len(p.s) && (p.s[p.pos] == '-' || p.s[p.pos] == '+') {
		p.pos++
	}

	digits := p.pos
	for p.pos < len(p.s) && isDigit(p.s[p.pos]) {
		p.pos++
	}

	if digits == p.pos {
		return 0, false
	}

	v, err := strconv.Atoi(p.s[start:p.pos])
	if err != nil {
		return 0, false
	}

	return v, true
}
