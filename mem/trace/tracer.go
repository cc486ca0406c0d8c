// Package trace provides hooks that record the accesses of a cache.
package trace

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/csim/datarecording"
	"github.com/sarchlab/csim/mem/cache"
	"github.com/sarchlab/csim/sim/hooking"
)

// AccessTableName is the table that DBTracer writes to.
const AccessTableName = "cache_accesses"

// accessEntry represents one cache access in the database. Addresses and tags
// are stored as hex strings because SQLite integers are signed.
type accessEntry struct {
	ID         string
	RunID      string
	Location   string
	Stamp      uint64
	Address    string
	SetID      int
	WayID      int
	Tag        string
	Outcome    string
	EvictedTag string
}

type named interface {
	Name() string
}

func locationOf(ctx hooking.HookCtx) string {
	if n, ok := ctx.Domain.(named); ok {
		return n.Name()
	}

	return ""
}

func accessDetailOf(ctx hooking.HookCtx) (cache.AccessDetail, bool) {
	if ctx.Pos != cache.HookPosAccess {
		return cache.AccessDetail{}, false
	}

	detail, ok := ctx.Item.(cache.AccessDetail)

	return detail, ok
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}

// A DBTracer is a hook that records every cache access into a database using
// the data recorder.
type DBTracer struct {
	runID        string
	dataRecorder datarecording.DataRecorder
}

// NewDBTracer creates a DBTracer and the table it writes to. Each tracer
// stamps its rows with a fresh run ID.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{
		runID:        xid.New().String(),
		dataRecorder: dataRecorder,
	}

	t.dataRecorder.CreateTable(AccessTableName, accessEntry{})

	return t
}

// RunID returns the ID written with every row.
func (t *DBTracer) RunID() string {
	return t.runID
}

// Func records an access.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	detail, ok := accessDetailOf(ctx)
	if !ok {
		return
	}

	entry := accessEntry{
		ID:       xid.New().String(),
		RunID:    t.runID,
		Location: locationOf(ctx),
		Stamp:    detail.Stamp,
		Address:  hex(detail.Address),
		SetID:    detail.SetID,
		WayID:    detail.WayID,
		Tag:      hex(detail.Tag),
		Outcome:  detail.Outcome.String(),
	}

	if detail.Outcome.IsEviction() {
		entry.EvictedTag = hex(detail.EvictedTag)
	}

	t.dataRecorder.InsertData(AccessTableName, entry)
}

// A LogTracer is a hook that writes every cache access to a logger at trace
// level.
type LogTracer struct {
	logger *logrus.Logger
}

// NewLogTracer creates a new LogTracer.
func NewLogTracer(logger *logrus.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Func logs an access.
func (t *LogTracer) Func(ctx hooking.HookCtx) {
	if !t.logger.IsLevelEnabled(logrus.TraceLevel) {
		return
	}

	detail, ok := accessDetailOf(ctx)
	if !ok {
		return
	}

	fields := logrus.Fields{
		"cache":   locationOf(ctx),
		"stamp":   detail.Stamp,
		"address": hex(detail.Address),
		"set":     detail.SetID,
		"way":     detail.WayID,
		"tag":     hex(detail.Tag),
		"outcome": detail.Outcome.String(),
	}

	if detail.Outcome.IsEviction() {
		fields["evicted_tag"] = hex(detail.EvictedTag)
	}

	t.logger.WithFields(fields).Trace("cache access")
}
