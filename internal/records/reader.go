// Package records reads delimited text sources into fixed-arity field tuples.
//
// A Reader is a forward-only, single-pass sequence. Each physical line is split
// on a caller-chosen separator and must produce exactly Options.Fields values;
// the first line that does not is a hard fault that ends the sequence. The
// underlying source is released as soon as iteration ends, whether by
// exhaustion, by fault, or because the consumer stopped early.
//
//	rd, err := records.Open("students.txt", records.Options{Fields: 3, Separator: "\t", Header: true})
//	if err != nil {
//	    return err // errors.Is(err, records.ErrSourceNotFound)
//	}
//	for rec, err := range rd.All() {
//	    if err != nil {
//	        return err // errors.Is(err, records.ErrMalformedRecord)
//	    }
//	    use(rec.Fields)
//	}
package records

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// Options describes the layout every line of a source must follow.
type Options struct {
	Fields    int    // Exact field count per line
	Separator string // Field separator, used verbatim (tab, "#", ";", "|", ...)
	Header    bool   // First line is a header: arity-checked, never yielded
}

func (o Options) validate() error {
	if o.Fields < 1 {
		return fmt.Errorf("%w: field count must be positive, got %d", ErrInvalidOptions, o.Fields)
	}
	if o.Separator == "" {
		return fmt.Errorf("%w: separator is empty", ErrInvalidOptions)
	}
	return nil
}

// Record is one yielded line.
type Record struct {
	Line   int      // 1-based physical line number, header included
	Fields []string // Exactly Options.Fields values
}

// Reader produces Records from a single source.
type Reader struct {
	name    string
	opts    Options
	counter *countingReader
	br      *bufio.Reader
	closer  io.Closer

	line       int
	bomChecked bool
	iterated   bool
	err        error // sticky: io.EOF, a fault, or ErrReaderConsumed after Close
}

// Open opens path and returns a Reader over it. A source that cannot be opened
// fails here, before any record is produced, with a *SourceError.
func Open(path string, opts Options) (*Reader, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceError{Source: path, Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &SourceError{Source: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, &SourceError{Source: path, Err: fmt.Errorf("not a regular file (%s)", info.Mode().Type())}
	}

	return newReader(path, f, f, opts), nil
}

// NewReader returns a Reader over src. name is used in error messages.
// If src is also an io.Closer the Reader takes ownership and closes it when
// iteration ends.
func NewReader(name string, src io.Reader, opts Options) (*Reader, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	closer, _ := src.(io.Closer)
	return newReader(name, src, closer, opts), nil
}

// Read opens path eagerly and returns its lazy record sequence.
func Read(path string, opts Options) (iter.Seq2[Record, error], error) {
	rd, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	return rd.All(), nil
}

func newReader(name string, src io.Reader, closer io.Closer, opts Options) *Reader {
	counter := &countingReader{reader: src}
	return &Reader{
		name:    name,
		opts:    opts,
		counter: counter,
		br:      bufio.NewReader(counter),
		closer:  closer,
	}
}

// Name returns the source name used in error messages.
func (r *Reader) Name() string { return r.name }

// Lines returns the number of physical lines read so far.
func (r *Reader) Lines() int { return r.line }

// BytesRead returns the number of source bytes consumed so far.
func (r *Reader) BytesRead() int64 { return r.counter.n }

// Next returns the next record. It returns io.EOF once the source is exhausted.
// After a fault every call returns the same error and nothing more is read.
func (r *Reader) Next() (Record, error) {
	if r.err != nil {
		return Record{}, r.err
	}

	for {
		line, err := r.readLine()
		if err != nil {
			r.fail(err)
			return Record{}, r.err
		}
		r.line++

		fields := strings.Split(line, r.opts.Separator)
		if len(fields) != r.opts.Fields {
			r.fail(&MalformedRecordError{
				Source: r.name,
				Line:   r.line,
				Got:    len(fields),
				Want:   r.opts.Fields,
			})
			return Record{}, r.err
		}

		if r.line == 1 && r.opts.Header {
			continue
		}

		return Record{Line: r.line, Fields: fields}, nil
	}
}

// All returns the record sequence. Iteration stops at the first fault, which
// is yielded as the final element. The source is closed when the loop exits
// for any reason. A Reader can be ranged over only once; later calls yield
// ErrReaderConsumed.
func (r *Reader) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if r.iterated {
			yield(Record{}, ErrReaderConsumed)
			return
		}
		r.iterated = true
		defer r.Close()

		for {
			rec, err := r.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Record{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Close releases the source. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.err == nil {
		r.err = ErrReaderConsumed
	}
	return r.release()
}

func (r *Reader) fail(err error) {
	r.err = err
	_ = r.release()
}

func (r *Reader) release() error {
	if r.closer == nil {
		return nil
	}
	c := r.closer
	r.closer = nil
	return c.Close()
}

// readLine returns the next physical line without its line terminator.
func (r *Reader) readLine() (string, error) {
	if !r.bomChecked {
		r.bomChecked = true
		if err := skipBOM(r.br); err != nil {
			return "", fmt.Errorf("read '%s': %w", r.name, err)
		}
	}

	s, err := r.br.ReadString('\n')
	if err == io.EOF {
		if s == "" {
			return "", io.EOF
		}
	} else if err != nil {
		return "", fmt.Errorf("read '%s' line %d: %w", r.name, r.line+1, err)
	}

	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, nil
}
