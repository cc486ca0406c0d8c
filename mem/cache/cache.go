// Package cache models a set-associative cache that tracks which blocks are
// resident. It does not store data and has no notion of time other than a
// monotonic access clock used for LRU replacement.
package cache

import "github.com/sarchlab/csim/sim/hooking"

// A Cache owns its directory, its counters, and the access clock. It is not
// safe for concurrent use.
type Cache struct {
	hooking.HookableBase

	name         string
	directory    *Directory
	victimFinder VictimFinder
	clock        uint64
	stats        Stats
}

// Name returns the name given at build time.
func (c *Cache) Name() string {
	return c.name
}

// Access simulates one memory access to address and returns what happened.
// Any address is accepted; bits above the geometry only form the tag.
func (c *Cache) Access(address uint64) Outcome {
	c.mustNotBeTornDown()

	c.clock++
	stamp := c.clock

	setID, tag := c.directory.Decompose(address)
	set := c.directory.Set(setID)

	detail := AccessDetail{
		Address: address,
		SetID:   setID,
		Tag:     tag,
		Stamp:   stamp,
	}

	if wayID, found := set.Lookup(tag); found {
		c.stats.Hits++
		set.touch(wayID, stamp)

		detail.WayID = wayID
		detail.Outcome = Hit
		c.publishAccess(detail)

		return Hit
	}

	c.stats.Misses++

	if wayID, found := set.FindInvalid(); found {
		set.fill(wayID, tag, stamp)

		detail.WayID = wayID
		detail.Outcome = MissNoEviction
		c.publishAccess(detail)

		return MissNoEviction
	}

	c.stats.Evictions++

	wayID := c.victimFinder.FindVictim(set)
	detail.EvictedTag = set.Lines[wayID].Tag
	set.fill(wayID, tag, stamp)

	detail.WayID = wayID
	detail.Outcome = MissWithEviction
	c.publishAccess(detail)

	return MissWithEviction
}

// Stats returns a copy of the counters.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Clock returns the stamp given to the most recent access.
func (c *Cache) Clock() uint64 {
	return c.clock
}

// NumSets returns the number of sets.
func (c *Cache) NumSets() int {
	return c.directory.NumSets()
}

// NumWays returns the associativity.
func (c *Cache) NumWays() int {
	return c.directory.NumWays
}

// TotalSize returns the capacity in bytes, as if blocks held data.
func (c *Cache) TotalSize() uint64 {
	return c.directory.TotalSize()
}

// Decompose splits an address into its set index and tag.
func (c *Cache) Decompose(address uint64) (setID int, tag uint64) {
	return c.directory.Decompose(address)
}

// Set returns the set with the given index. The set must not be modified.
func (c *Cache) Set(setID int) *Set {
	c.mustNotBeTornDown()
	return c.directory.Set(setID)
}

// Teardown releases the set storage. Calling it again, or on a nil cache, does
// nothing.
func (c *Cache) Teardown() {
	if c == nil || c.directory == nil || c.directory.Released() {
		return
	}

	c.directory.release()
}

func (c *Cache) mustNotBeTornDown() {
	if c.directory.Released() {
		panic("cache " + c.name + " is used after teardown")
	}
}
