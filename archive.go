package zipfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	gozip "github.com/lemon4ksan/gozip"
)

// Mode selects how Open accesses an archive.
type Mode int

const (
	// ModeRead opens an existing archive for queries and extraction.
	ModeRead Mode = iota

	// ModeWrite creates a new archive, replacing any existing file at the
	// path when the session is closed.
	ModeWrite

	// ModeAppend opens an existing archive for adding entries, keeping
	// the entries already present. A missing file is created, matching
	// minizip-style append semantics.
	ModeAppend
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeAppend:
		return "append"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Archive is a thread-safe session over one ZIP archive.
//
// All methods serialize on an internal read-write lock: queries share a
// read lock, mutations take the write lock. See the package documentation
// for the concurrency contract of entry streams.
type Archive struct {
	mu sync.RWMutex

	// identity; path and inMemory are mutually exclusive
	path     string
	inMemory bool
	mode     Mode

	codec *gozip.Zip
	src   *os.File // backing file for file-based read/append sessions
	dst   *os.File // destination file for ModeWrite sessions

	readable bool
	writable bool

	closed        bool
	activeStreams int

	maxAllocSize int64
	password     string
	comment      string
	hasComment   bool

	// explicit per-entry modification times, patched into the headers
	// when the archive is flushed
	modTimes map[string]time.Time

	logger *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (ar *Archive) log() *slog.Logger {
	if ar.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return ar.logger
}

// newArchive builds the session shell with defaults and options applied.
func newArchive(opts []Option) *Archive {
	ar := &Archive{
		codec:        gozip.NewZip(),
		maxAllocSize: DefaultMaxAllocSize,
	}
	for _, opt := range opts {
		opt(ar)
	}
	registerZstd(ar.codec)
	return ar
}

// Open opens the archive at path in the given mode.
//
// ModeRead parses the central directory immediately and fails on corrupt
// or unreadable archives. ModeWrite defers nothing: the destination file
// is created (truncated) right away so path problems surface here, and
// the archive content is written on Close. ModeAppend loads the existing
// entries so they are preserved on Close; a missing file behaves like
// ModeWrite.
func Open(path string, mode Mode, opts ...Option) (*Archive, error) {
	ar := newArchive(opts)
	ar.path = path
	ar.mode = mode

	switch mode {
	case ModeRead:
		if err := ar.openRead(path); err != nil {
			return nil, err
		}
	case ModeWrite:
		if err := ar.openWrite(path); err != nil {
			return nil, err
		}
	case ModeAppend:
		if err := ar.openAppend(path); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("zipfile: invalid mode %d", int(mode))
	}

	ar.log().Debug("archive opened", "path", path, "mode", mode.String())
	return ar, nil
}

// OpenBytes opens an in-memory archive from data for reading. The slice
// is not copied; it must not be mutated while the session is live.
func OpenBytes(data []byte, opts ...Option) (*Archive, error) {
	ar := newArchive(opts)
	ar.inMemory = true
	ar.mode = ModeRead
	ar.applyCodecPassword()

	if err := ar.codec.Load(bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, fmt.Errorf("zipfile: open archive from buffer: %w", err)
	}
	ar.comment, ar.hasComment = eocdComment(bytes.NewReader(data), int64(len(data)))
	ar.readable = true
	return ar, nil
}

// New creates a new empty in-memory archive for writing. Finalize it with
// Bytes.
func New(opts ...Option) (*Archive, error) {
	ar := newArchive(opts)
	ar.inMemory = true
	ar.mode = ModeWrite
	ar.writable = true
	return ar, nil
}

func (ar *Archive) openRead(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("zipfile: open archive %q for reading: %w", path, err)
	}
	ar.applyCodecPassword()
	if err := ar.codec.LoadFromFile(f); err != nil {
		f.Close()
		return fmt.Errorf("zipfile: open archive %q for reading: %w", path, err)
	}
	if info, err := f.Stat(); err == nil {
		ar.comment, ar.hasComment = eocdComment(f, info.Size())
	}
	ar.src = f
	ar.readable = true
	return nil
}

func (ar *Archive) openWrite(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("zipfile: open archive %q for writing: %w", path, err)
	}
	ar.dst = f
	ar.writable = true
	return nil
}

func (ar *Archive) openAppend(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ar.openWrite(path)
		}
		return fmt.Errorf("zipfile: open archive %q for appending: %w", path, err)
	}
	// The codec config keeps no password here so preserved entries are
	// raw-copied on flush instead of being re-encoded.
	if err := ar.codec.LoadFromFile(f); err != nil {
		f.Close()
		return fmt.Errorf("zipfile: open archive %q for appending: %w", path, err)
	}
	ar.src = f
	ar.writable = true
	return nil
}

// applyCodecPassword seeds the codec config with the session's default
// password so encrypted entries decrypt transparently on read.
func (ar *Archive) applyCodecPassword() {
	if ar.password != "" {
		ar.codec.SetConfig(gozip.ZipConfig{Password: ar.password})
	}
}

// Path returns the filesystem path of a file-based session, or "" with
// ok false for in-memory sessions.
func (ar *Archive) Path() (string, bool) {
	return ar.path, ar.path != ""
}

// MaxAllocSize returns the session's allocation ceiling in bytes.
func (ar *Archive) MaxAllocSize() int64 {
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	return ar.maxAllocSize
}

// SetMaxAllocSize sets the allocation ceiling for subsequent operations.
// Values <= 0 are ignored.
func (ar *Archive) SetMaxAllocSize(limit int64) {
	if limit <= 0 {
		return
	}
	ar.mu.Lock()
	defer ar.mu.Unlock()
	ar.maxAllocSize = limit
}

// checkOpen validates session state for an operation. Callers must hold
// the lock.
func (ar *Archive) checkOpen(forWrite bool) error {
	if ar.closed {
		return ErrClosed
	}
	if forWrite && !ar.writable {
		return ErrNotWritable
	}
	if !forWrite && !ar.readable {
		return ErrNotReadable
	}
	return nil
}

// Close releases the session's handles. It fails with ErrBusy while entry
// streams are open and is a no-op once the session is closed.
//
// For file-based write and append sessions, Close is the point where the
// archive is actually written out: ModeWrite streams into the file
// created at Open; ModeAppend writes a temp file next to the original and
// renames it into place, so a failed flush never corrupts the existing
// archive.
func (ar *Archive) Close() error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if ar.closed {
		return nil
	}
	if ar.activeStreams > 0 {
		return fmt.Errorf("%w: cannot close archive with %d active stream(s)", ErrBusy, ar.activeStreams)
	}

	var flushErr error
	if ar.writable && !ar.inMemory {
		flushErr = ar.flushLocked()
	}

	if ar.src != nil {
		if err := ar.src.Close(); err != nil && flushErr == nil {
			flushErr = fmt.Errorf("zipfile: close archive source: %w", err)
		}
		ar.src = nil
	}
	ar.dst = nil
	ar.codec = nil
	ar.closed = true
	ar.log().Debug("archive closed", "path", ar.path)
	return flushErr
}

// flushLocked writes the archive for disk-backed write sessions.
func (ar *Archive) flushLocked() error {
	ar.codec.SetConfig(gozip.ZipConfig{Comment: ar.comment})

	// ModeWrite holds the destination file from Open.
	if ar.dst != nil {
		n, err := ar.codec.WriteTo(ar.dst)
		if err != nil {
			ar.dst.Close()
			return fmt.Errorf("zipfile: write archive %q: %w", ar.path, err)
		}
		if err := applyModTimes(ar.dst, n, ar.modTimes); err != nil {
			ar.dst.Close()
			return fmt.Errorf("zipfile: write archive %q: %w", ar.path, err)
		}
		if err := ar.dst.Close(); err != nil {
			return fmt.Errorf("zipfile: write archive %q: %w", ar.path, err)
		}
		return nil
	}

	// ModeAppend rewrites atomically: the source file is still the byte
	// source for preserved entries, so write a sibling temp file first.
	tmp, err := os.CreateTemp(filepath.Dir(ar.path), ".zipfile-")
	if err != nil {
		return fmt.Errorf("zipfile: write archive %q: %w", ar.path, err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	n, err := ar.codec.WriteTo(tmp)
	if err != nil {
		return fmt.Errorf("zipfile: write archive %q: %w", ar.path, err)
	}
	if err := applyModTimes(tmp, n, ar.modTimes); err != nil {
		return fmt.Errorf("zipfile: write archive %q: %w", ar.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("zipfile: write archive %q: %w", ar.path, err)
	}
	if err := os.Rename(tmpPath, ar.path); err != nil {
		return fmt.Errorf("zipfile: write archive %q: %w", ar.path, err)
	}
	success = true
	return nil
}

// Bytes finalizes an in-memory write session: it flushes the central
// directory, enforces the allocation ceiling, and returns the complete
// archive. The session is closed afterwards; calling Bytes twice fails
// with ErrClosed.
func (ar *Archive) Bytes() ([]byte, error) {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if !ar.inMemory || !ar.writable {
		return nil, fmt.Errorf("%w: Bytes is only valid for in-memory write sessions", ErrNotWritable)
	}
	if ar.closed {
		return nil, ErrClosed
	}
	if ar.activeStreams > 0 {
		return nil, fmt.Errorf("%w: cannot finalize archive with %d active stream(s)", ErrBusy, ar.activeStreams)
	}

	ar.codec.SetConfig(gozip.ZipConfig{Comment: ar.comment})

	var buf bytes.Buffer
	if _, err := ar.codec.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("zipfile: finalize archive: %w", err)
	}
	if err := applyModTimes(byteSlice(buf.Bytes()), int64(buf.Len()), ar.modTimes); err != nil {
		return nil, fmt.Errorf("zipfile: finalize archive: %w", err)
	}
	if int64(buf.Len()) > ar.maxAllocSize {
		return nil, fmt.Errorf("%w: archive size %d exceeds %d", ErrAllocLimit, buf.Len(), ar.maxAllocSize)
	}

	ar.codec = nil
	ar.closed = true
	return buf.Bytes(), nil
}

// releaseStream decrements the live-stream counter on stream disposal.
func (ar *Archive) releaseStream() {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	if ar.activeStreams > 0 {
		ar.activeStreams--
	}
}
