package replay

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

// MaxLineLength is the longest line, terminator included, that is parsed.
// Longer lines are consumed and skipped.
const MaxLineLength = 1 << 20

// A Reader yields the well-formed records of a trace. Lines that do not parse
// are skipped and counted.
type Reader struct {
	reader *bufio.Reader
	logger logrus.FieldLogger

	line       []byte
	lineNumber int
	skipped    uint64
	consumed   uint64
}

// NewReader creates a Reader over src.
func NewReader(src io.Reader) *Reader {
	return &Reader{
		reader: bufio.NewReader(src),
		logger: discardLogger(),
	}
}

// WithLogger sets where skipped lines are reported, at debug level.
func (r *Reader) WithLogger(logger logrus.FieldLogger) *Reader {
	r.logger = logger
	return r
}

// Next returns the next well-formed record, or io.EOF once the source is
// exhausted. Any other error comes from the underlying source.
func (r *Reader) Next() (Record, error) {
	for {
		tooLong, err := r.readLine()
		if err != nil {
			return Record{}, err
		}

		r.lineNumber++

		if tooLong {
			r.skip("skipping over-long trace line", "")
			continue
		}

		line := string(r.line)

		record, ok := ParseRecord(line)
		if ok {
			return record, nil
		}

		r.skip("skipping malformed trace line", line)
	}
}

func (r *Reader) skip(msg, text string) {
	r.skipped++
	r.logger.WithFields(logrus.Fields{
		"line": r.lineNumber,
		"text": text,
	}).Debug(msg)
}

// readLine fills r.line with the next line, without its terminator. A line
// longer than MaxLineLength is drained from the source and reported as too
// long. io.EOF is returned only when no bytes are left.
func (r *Reader) readLine() (tooLong bool, err error) {
	r.line = r.line[:0]
	read := 0

	for {
		chunk, err := r.reader.ReadSlice('\n')
		read += len(chunk)
		r.consumed += uint64(len(chunk))

		if read > MaxLineLength {
			tooLong = true
			r.line = r.line[:0]
		} else {
			r.line = append(r.line, chunk...)
		}

		switch {
		case err == nil:
			r.trimTerminator()
			return tooLong, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if read == 0 {
				return false, io.EOF
			}

			r.trimTerminator()

			return tooLong, nil
		default:
			return false, err
		}
	}
}

func (r *Reader) trimTerminator() {
	r.line = bytes.TrimSuffix(r.line, []byte("\n"))
	r.line = bytes.TrimSuffix(r.line, []byte("\r"))
}

// Skipped returns the number of malformed lines seen so far.
func (r *Reader) Skipped() uint64 {
	return r.skipped
}

// Consumed returns the number of bytes read so far.
func (r *Reader) Consumed() uint64 {
	return r.consumed
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.Out = io.Discard

	return logger
}
