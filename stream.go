package zipfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	gozip "github.com/lemon4ksan/gozip"
)

// OpenEntry opens the named entry for sequential reading. The session's
// live-stream counter stays incremented until the returned reader is
// closed; Close and Bytes fail with ErrBusy in the meantime.
//
// The returned EntryReader is not thread-safe and must be confined to a
// single goroutine.
func (ar *Archive) OpenEntry(name string) (*EntryReader, error) {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	if err := ar.checkOpen(false); err != nil {
		return nil, err
	}

	f, err := ar.locate(name)
	if err != nil {
		return nil, err
	}
	rc, err := ar.openEntryContent(f, name)
	if err != nil {
		return nil, err
	}

	ar.activeStreams++
	return &EntryReader{
		ar:         ar,
		name:       name,
		rc:         rc,
		noChecksum: f.Config().EncryptionMethod != gozip.NotEncrypted && f.CRC32() == 0,
	}, nil
}

// CreateEntry opens a new entry for sequential writing. Written bytes are
// staged and committed to the archive as one entry when the writer is
// closed; the session's live-stream counter stays incremented until then.
//
// The returned EntryWriter is not thread-safe and must be confined to a
// single goroutine.
func (ar *Archive) CreateEntry(name string, opts ...AddOption) (*EntryWriter, error) {
	cfg := newAddConfig(opts)

	ar.mu.Lock()
	defer ar.mu.Unlock()
	if err := ar.checkOpen(true); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("zipfile: create entry: %w", gozip.ErrFileEntry)
	}
	if ar.codec.Exists(name) {
		return nil, fmt.Errorf("zipfile: create entry: %w: %q", gozip.ErrDuplicateEntry, name)
	}

	ar.activeStreams++
	return &EntryWriter{ar: ar, name: name, cfg: cfg}, nil
}

// EntryReader reads one entry sequentially with a one-byte lookahead.
//
// Read follows the io.Reader contract: io.EOF signals the end of the
// entry and stays sticky. Close is idempotent and releases the entry
// handle; a reader must be closed before its session can be closed.
type EntryReader struct {
	ar     *Archive
	name   string
	rc     io.ReadCloser
	peek   byte
	peeked bool
	eof    bool
	closed bool

	// AES entries store a zero CRC (AE-2), so the codec's checksum
	// verification on close cannot apply to them.
	noChecksum bool
}

// Read fills p with entry content. A byte buffered by Peek is delivered
// first, then the remaining capacity is filled from the codec in a single
// call.
func (r *EntryReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, fmt.Errorf("%w: entry %q", ErrStreamClosed, r.name)
	}
	if len(p) == 0 {
		return 0, nil
	}

	n := 0
	if r.peeked {
		p[0] = r.peek
		r.peeked = false
		n = 1
		if len(p) == 1 {
			return n, nil
		}
	}
	if r.eof {
		if n > 0 {
			return n, nil
		}
		return 0, io.EOF
	}

	m, err := r.rc.Read(p[n:])
	n += m
	switch {
	case err == io.EOF:
		r.eof = true
		if n > 0 {
			return n, nil
		}
		return 0, io.EOF
	case err != nil:
		return n, fmt.Errorf("zipfile: read entry %q: %w", r.name, err)
	}
	return n, nil
}

// Peek returns the next byte without consuming it. The byte is buffered
// and delivered by the next Read or Peek. At the end of the entry Peek
// returns io.EOF and caches the exhaustion.
func (r *EntryReader) Peek() (byte, error) {
	if r.closed {
		return 0, fmt.Errorf("%w: entry %q", ErrStreamClosed, r.name)
	}
	if r.peeked {
		return r.peek, nil
	}
	if r.eof {
		return 0, io.EOF
	}

	var b [1]byte
	if _, err := io.ReadFull(r.rc, b[:]); err != nil {
		if err == io.EOF {
			r.eof = true
			return 0, io.EOF
		}
		return 0, fmt.Errorf("zipfile: peek entry %q: %w", r.name, err)
	}
	r.peek = b[0]
	r.peeked = true
	return r.peek, nil
}

// Close releases the entry handle and decrements the session's live-stream
// counter. It is idempotent.
func (r *EntryReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.rc.Close()
	r.ar.releaseStream()
	if err != nil {
		// The codec reports a size mismatch when an entry is closed
		// before being fully drained; abandoning a stream early is fine.
		if errors.Is(err, gozip.ErrSizeMismatch) && !r.eof {
			return nil
		}
		if errors.Is(err, gozip.ErrChecksum) && r.noChecksum {
			return nil
		}
		return fmt.Errorf("zipfile: close entry %q: %w", r.name, err)
	}
	return nil
}

// EntryWriter writes one entry sequentially.
//
// The codec writes whole entries in a single call, so written bytes are
// staged in memory (bounded by the session's allocation ceiling) and
// committed on Close. Close is idempotent; writes after Close fail with
// ErrStreamClosed.
type EntryWriter struct {
	ar     *Archive
	name   string
	cfg    addConfig
	buf    bytes.Buffer
	closed bool
}

// Write appends p to the staged entry content. Writing nothing is a
// no-op. Staging beyond the session's allocation ceiling fails with
// ErrAllocLimit.
func (w *EntryWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("%w: entry %q", ErrStreamClosed, w.name)
	}
	if len(p) == 0 {
		return 0, nil
	}
	if int64(w.buf.Len())+int64(len(p)) > w.ar.MaxAllocSize() {
		return 0, fmt.Errorf("%w: entry %q staged size exceeds limit", ErrAllocLimit, w.name)
	}
	return w.buf.Write(p)
}

// Close commits the staged content as one archive entry and decrements
// the session's live-stream counter. It is idempotent; the first call
// reports any commit error.
func (w *EntryWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.ar.mu.Lock()
	defer w.ar.mu.Unlock()
	defer func() {
		if w.ar.activeStreams > 0 {
			w.ar.activeStreams--
		}
	}()

	// The session cannot have been closed while this stream was live; the
	// busy guard in Close and Bytes ensures the writer is still valid.
	return w.ar.addLocked(w.name, w.buf.Bytes(), &w.cfg)
}
