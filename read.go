package zipfile

import (
	"errors"
	"fmt"
	"io"

	gozip "github.com/lemon4ksan/gozip"
)

// Entries returns all entries in archive-storage order. The codec walks
// its central-directory records; nothing is cached between calls.
func (ar *Archive) Entries() ([]EntryInfo, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	if err := ar.checkOpen(false); err != nil {
		return nil, err
	}

	files := ar.codec.Files()
	infos := make([]EntryInfo, 0, len(files))
	for _, f := range files {
		infos = append(infos, newEntryInfo(f))
	}
	return infos, nil
}

// Len returns the number of entries in the archive.
func (ar *Archive) Len() (int, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	if err := ar.checkOpen(false); err != nil {
		return 0, err
	}
	return len(ar.codec.Files()), nil
}

// Contains reports whether the named entry exists. Names are matched
// exactly against the stored entry names, case-sensitively and without
// path normalization.
func (ar *Archive) Contains(name string) (bool, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	if err := ar.checkOpen(false); err != nil {
		return false, err
	}
	return ar.lookup(name) != nil, nil
}

// Entry returns the metadata of the named entry.
func (ar *Archive) Entry(name string) (EntryInfo, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	if err := ar.checkOpen(false); err != nil {
		return EntryInfo{}, err
	}

	f, err := ar.locate(name)
	if err != nil {
		return EntryInfo{}, err
	}
	return newEntryInfo(f), nil
}

// Read returns the full uncompressed content of the named entry.
//
// Zero-size entries return empty bytes without touching the codec. The
// declared uncompressed size is checked against the allocation ceiling
// before any buffer is allocated; oversized entries fail with
// ErrAllocLimit. The session's default password is applied to encrypted
// entries.
func (ar *Archive) Read(name string) ([]byte, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	if err := ar.checkOpen(false); err != nil {
		return nil, err
	}

	f, err := ar.locate(name)
	if err != nil {
		return nil, err
	}

	size := f.UncompressedSize()
	if f.IsDir() || size == 0 {
		return []byte{}, nil
	}
	if size > ar.maxAllocSize {
		return nil, fmt.Errorf("%w: entry %q size %d exceeds %d", ErrAllocLimit, name, size, ar.maxAllocSize)
	}

	rc, err := ar.openEntryContent(f, name)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(rc, buf); err != nil {
		rc.Close()
		return nil, fmt.Errorf("zipfile: read entry %q: %w", name, err)
	}
	// Close verifies the entry checksum on this codec.
	if err := rc.Close(); err != nil && !checksumExempt(f, err) {
		return nil, fmt.Errorf("zipfile: read entry %q: %w", name, err)
	}
	return buf, nil
}

// checksumExempt reports whether a checksum failure on close can be
// ignored. AES entries store a zero CRC (the AE-2 convention delegates
// integrity to the cipher's own authentication), so verifying the
// decrypted content against zero always mismatches.
func checksumExempt(f *gozip.File, err error) bool {
	return errors.Is(err, gozip.ErrChecksum) &&
		f.Config().EncryptionMethod != gozip.NotEncrypted &&
		f.CRC32() == 0
}

// ReadText reads the named entry and decodes it under the given IANA
// charset name; the empty string means UTF-8.
func (ar *Archive) ReadText(name, encoding string) (string, error) {
	data, err := ar.Read(name)
	if err != nil {
		return "", err
	}
	return decodeText(data, encoding)
}

// lookup finds a codec record by exact match against the stored entry
// name, with no path normalization; directory entries also match with
// their trailing slash. Callers must hold the lock.
func (ar *Archive) lookup(name string) *gozip.File {
	for _, f := range ar.codec.Files() {
		if f.Name() == name || (f.IsDir() && f.Name()+"/" == name) {
			return f
		}
	}
	return nil
}

// locate resolves a name to a codec file record or ErrNotFound. Callers
// must hold the lock.
func (ar *Archive) locate(name string) (*gozip.File, error) {
	f := ar.lookup(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return f, nil
}

// openEntryContent opens an entry's content reader, distinguishing the
// likely-wrong-password failure for encrypted entries.
func (ar *Archive) openEntryContent(f *gozip.File, name string) (io.ReadCloser, error) {
	rc, err := f.Open()
	if err != nil {
		if f.Config().EncryptionMethod != gozip.NotEncrypted {
			return nil, fmt.Errorf("zipfile: open encrypted entry %q: %w (wrong password?)", name, err)
		}
		return nil, fmt.Errorf("zipfile: open entry %q: %w", name, err)
	}
	return rc, nil
}
