// Package zippack walks the zip distribution bundles the registry map data
// ships in: a top-level archive whose entries are either XML documents or
// single-document zip archives nested one level deep.
package zippack

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// queueSize bounds the number of completed-but-unconsumed payloads; workers
// block on a full queue.
const queueSize = 32

// Entry is one document pulled out of the bundle, or the error that
// prevented reading it. A failed entry never aborts the walk.
type Entry struct {
	Name string
	Data []byte
	Err  error
}

// Options controls a walk.
type Options struct {
	// Workers is the number of goroutines decompressing entries.
	// Defaults to runtime.NumCPU, clamped to the entry count.
	Workers int
}

// Stream delivers extracted documents in no particular order.
type Stream struct {
	entries   chan Entry
	done      chan struct{}
	closeOnce sync.Once
}

// Entries is the stream's output channel. It is closed once every entry has
// been processed, or once Close has let the remaining workers wind down.
func (s *Stream) Entries() <-chan Entry {
	return s.entries
}

// Close stops the walk early. Workers abandon pending and future sends, so
// the remaining index range is never produced. Entries already queued may
// still be delivered. Callers that stop consuming mid-walk must call Close.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Walk reads the top-level archive from ra and produces every contained
// document concurrently. Failing to open the archive itself is fatal; every
// later failure travels through the stream as a per-entry error.
//
// Workers share ra read-only: each zip entry opens through its own section
// reader, so no worker's cursor moves another's.
func Walk(ra io.ReaderAt, size int64, opts Options) (*Stream, error) {
	return walk(ra, size, opts, nil)
}

// WalkFile opens path and walks it. The file is closed when the stream
// finishes.
func WalkFile(path string, opts Options) (*Stream, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	stream, err := walk(file, info.Size(), opts, file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return stream, nil
}

func walk(ra io.ReaderAt, size int64, opts Options, closer io.Closer) (*Stream, error) {
	archive, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(archive.File) {
		workers = len(archive.File)
	}
	if workers < 1 {
		workers = 1
	}

	stream := &Stream{
		entries: make(chan Entry, queueSize),
		done:    make(chan struct{}),
	}

	// Submission happens off the calling goroutine: the pool blocks Go once
	// every worker is busy, and the workers in turn block on a full queue
	// until the caller drains it.
	go func() {
		workerPool := pool.New().WithMaxGoroutines(workers)
		for _, file := range archive.File {
			file := file
			workerPool.Go(func() {
				select {
				case <-stream.done:
					return
				default:
				}

				entry, ok := extract(file)
				if !ok {
					return
				}
				select {
				case stream.entries <- entry:
				case <-stream.done:
				}
			})
		}
		workerPool.Wait()

		if closer != nil {
			closer.Close()
		}
		close(stream.entries)
	}()

	return stream, nil
}

// extract turns one top-level archive entry into a stream entry. Entries
// with neither a document nor a nested-archive extension report ok=false and
// are dropped silently.
func extract(file *zip.File) (Entry, bool) {
	switch {
	case strings.HasSuffix(file.Name, ".xml"):
		data, err := readAll(file)
		if err != nil {
			return Entry{Name: file.Name, Err: err}, true
		}
		return Entry{Name: file.Name, Data: data}, true
	case strings.HasSuffix(file.Name, ".zip"):
		data, err := readAll(file)
		if err != nil {
			return Entry{Name: file.Name, Err: err}, true
		}
		return extractNested(file.Name, data), true
	default:
		return Entry{}, false
	}
}

// extractNested unpacks a nested archive, which must hold exactly one XML
// document.
func extractNested(name string, data []byte) Entry {
	nested, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Entry{Name: name, Err: err}
	}

	if len(nested.File) != 1 {
		return Entry{
			Name: name,
			Err:  fmt.Errorf("nested archive %s: expected a single document, found %d entries", name, len(nested.File)),
		}
	}

	inner := nested.File[0]
	if !strings.HasSuffix(inner.Name, ".xml") {
		return Entry{
			Name: name,
			Err:  fmt.Errorf("nested archive %s: entry %s is not an xml document", name, inner.Name),
		}
	}

	payload, err := readAll(inner)
	if err != nil {
		return Entry{Name: inner.Name, Err: err}
	}
	return Entry{Name: inner.Name, Data: payload}
}

func readAll(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
