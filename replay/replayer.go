// Package replay drives a cache model with the records of a memory trace.
package replay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/csim/mem/cache"
)

// ErrTraceUnreadable is returned when the trace source cannot be opened or
// read.
var ErrTraceUnreadable = errors.New("trace is unreadable")

// An Accessor is the part of the cache model that the replayer drives.
type Accessor interface {
	Access(address uint64) cache.Outcome
	Stats() cache.Stats
}

// A ProgressTracker is told how many trace bytes have been consumed.
type ProgressTracker interface {
	IncrementFinished(amount uint64)
}

// Summary is the result of a replay. The counters are the final values of
// the cache.
type Summary struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64

	// Records counts the load, store, and modify records processed.
	Records uint64

	// Accesses counts the cache accesses performed.
	Accesses uint64

	// Ignored counts instruction records.
	Ignored uint64

	// Skipped counts malformed lines.
	Skipped uint64
}

// A Replayer feeds trace records to a cache one at a time, in source order.
type Replayer struct {
	cache    Accessor
	verbose  io.Writer
	progress ProgressTracker
	logger   logrus.FieldLogger

	line bytes.Buffer
}

// NewReplayer creates a replayer that drives c.
func NewReplayer(c Accessor) *Replayer {
	return &Replayer{
		cache:  c,
		logger: discardLogger(),
	}
}

// WithVerboseOutput enables the per-record outcome trace.
func (r *Replayer) WithVerboseOutput(w io.Writer) *Replayer {
	r.verbose = w
	return r
}

// WithProgressTracker reports consumed bytes to p.
func (r *Replayer) WithProgressTracker(p ProgressTracker) *Replayer {
	r.progress = p
	return r
}

// WithLogger sets the logger for diagnostics.
func (r *Replayer) WithLogger(logger logrus.FieldLogger) *Replayer {
	r.logger = logger
	return r
}

// ReplayFile opens the trace at path and replays it.
func (r *Replayer) ReplayFile(path string) (Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrTraceUnreadable, err)
	}
	defer file.Close()

	return r.Replay(file)
}

// Replay consumes src until it is exhausted. Malformed lines are skipped;
// only a failing source stops the replay.
func (r *Replayer) Replay(src io.Reader) (Summary, error) {
	summary := Summary{}
	reader := NewReader(src).WithLogger(r.logger)
	reported := uint64(0)

	for {
		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return Summary{}, fmt.Errorf("%w: %w", ErrTraceUnreadable, err)
		}

		if err := r.process(record, &summary); err != nil {
			return Summary{}, err
		}

		reported = r.reportProgress(reader, reported)
	}

	r.reportProgress(reader, reported)

	stats := r.cache.Stats()
	summary.Hits = stats.Hits
	summary.Misses = stats.Misses
	summary.Evictions = stats.Evictions
	summary.Skipped = reader.Skipped()

	r.logger.WithFields(logrus.Fields{
		"records":  summary.Records,
		"ignored":  summary.Ignored,
		"skipped":  summary.Skipped,
		"accesses": summary.Accesses,
	}).Info("trace replayed")

	return summary, nil
}

func (r *Replayer) process(record Record, summary *Summary) error {
	if record.Kind == Instruction {
		summary.Ignored++
		return nil
	}

	summary.Records++

	r.line.Reset()
	r.line.WriteString(record.String())

	for i := 0; i < record.Kind.NumAccesses(); i++ {
		outcome := r.cache.Access(record.Address)
		summary.Accesses++

		r.line.WriteByte(' ')
		r.line.WriteString(outcome.String())
	}

	if r.verbose == nil {
		return nil
	}

	r.line.WriteByte('\n')

	if _, err := r.verbose.Write(r.line.Bytes()); err != nil {
		return fmt.Errorf("writing verbose trace: %w", err)
	}

	return nil
}

func (r *Replayer) reportProgress(reader *Reader, reported uint64) uint64 {
	consumed := reader.Consumed()
	if r.progress != nil && consumed > reported {
		r.progress.IncrementFinished(consumed - reported)
	}

	return consumed
}
