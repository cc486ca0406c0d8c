package cache

import "github.com/sarchlab/csim/sim/hooking"

// HookPosAccess marks the completion of an access. The hook item is an
// AccessDetail.
var HookPosAccess = &hooking.HookPos{Name: "CacheAccess"}

// AccessDetail describes one completed access.
type AccessDetail struct {
	Address uint64
	SetID   int
	WayID   int
	Tag     uint64
	Stamp   uint64
	Outcome Outcome

	// EvictedTag is only meaningful when Outcome is MissWithEviction.
	EvictedTag uint64
}

func (c *Cache) publishAccess(detail AccessDetail) {
	if c.NumHooks() == 0 {
		return
	}

	ctx := hooking.HookCtx{
		Domain: c,
		Pos:    HookPosAccess,
		Item:   detail,
	}

	c.InvokeHook(ctx)
}
