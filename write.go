package zipfile

import (
	"fmt"
	"strings"

	gozip "github.com/lemon4ksan/gozip"
)

// Add writes one entry with the given content in a single call.
func (ar *Archive) Add(name string, data []byte, opts ...AddOption) error {
	cfg := newAddConfig(opts)

	ar.mu.Lock()
	defer ar.mu.Unlock()
	return ar.addLocked(name, data, &cfg)
}

// AddText encodes text under the given IANA charset name (empty means
// UTF-8) and adds the result as an entry.
func (ar *Archive) AddText(name, text, encoding string, opts ...AddOption) error {
	// Re-encoding needs no session state; keep it outside the lock.
	data, err := encodeText(text, encoding)
	if err != nil {
		return err
	}
	cfg := newAddConfig(opts)

	ar.mu.Lock()
	defer ar.mu.Unlock()
	return ar.addLocked(name, data, &cfg)
}

// addLocked commits one staged entry. Callers must hold the write lock.
func (ar *Archive) addLocked(name string, data []byte, cfg *addConfig) error {
	if err := ar.checkOpen(true); err != nil {
		return err
	}
	if err := ar.codec.AddBytes(data, name, cfg.codecOptions()...); err != nil {
		return fmt.Errorf("zipfile: add entry %q: %w", name, err)
	}
	ar.recordModTime(name, cfg.modified)
	ar.log().Debug("entry added", "name", name, "size", len(data))
	return nil
}

// AddFile streams the file at srcPath into the archive under the given
// entry name. Content is read from the filesystem when the archive is
// flushed, not at call time.
func (ar *Archive) AddFile(name, srcPath string, opts ...AddOption) error {
	cfg := newAddConfig(opts)

	ar.mu.Lock()
	defer ar.mu.Unlock()
	if err := ar.checkOpen(true); err != nil {
		return err
	}

	codecOpts := append(cfg.codecOptions(), gozip.WithName(name))
	if err := ar.codec.AddFile(srcPath, codecOpts...); err != nil {
		return fmt.Errorf("zipfile: add file %q as %q: %w", srcPath, name, err)
	}
	ar.recordModTime(name, cfg.modified)
	return nil
}

// AddDir writes a zero-length directory entry. The name is normalized to
// end with "/" and stored uncompressed with a directory attribute.
func (ar *Archive) AddDir(name string) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	if err := ar.checkOpen(true); err != nil {
		return err
	}

	if err := ar.codec.Mkdir(strings.TrimSuffix(name, "/")); err != nil {
		return fmt.Errorf("zipfile: add directory %q: %w", name, err)
	}
	return nil
}

// Delete always fails with ErrDeleteUnsupported: ZIP archives do not
// support in-place deletion. To remove entries, create a new archive
// without them.
func (ar *Archive) Delete(name string) error {
	return fmt.Errorf("%w: cannot delete %q; create a new archive without the unwanted entries", ErrDeleteUnsupported, name)
}
