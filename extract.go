package zipfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	gozip "github.com/lemon4ksan/gozip"
)

// ExtractAll extracts every entry into destDir.
//
// All entry names are validated first; if any entry fails validation the
// whole operation aborts with ErrInsecureName before a single file is
// written. The session's default password (or ExtractWithPassword) is
// applied to encrypted entries.
func (ar *Archive) ExtractAll(destDir string, opts ...ExtractOption) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	if err := ar.checkOpen(false); err != nil {
		return err
	}

	files := ar.codec.Files()
	for _, f := range files {
		if err := ValidateEntryName(f.Name()); err != nil {
			return err
		}
	}

	cfg := extractConfig{password: ar.password}
	for _, opt := range opts {
		opt(&cfg)
	}
	// The codec bakes the load-time password into every entry and only
	// falls back to its own config when an entry has none, so an override
	// has to be pushed into each entry to take effect.
	if cfg.password != "" {
		for _, f := range files {
			fc := f.Config()
			fc.Password = cfg.password
			f.SetConfig(fc)
		}
	}
	ar.codec.SetConfig(gozip.ZipConfig{Password: cfg.password, Comment: ar.comment})

	if err := ar.codec.Extract(destDir); err != nil {
		return fmt.Errorf("zipfile: extract archive to %q: %w", destDir, err)
	}
	ar.log().Debug("archive extracted", "dest", destDir, "entries", len(files))
	return nil
}

// ExtractEntry extracts the named entry to destPath. The destination is
// written via a sibling temp file and renamed into place, so a failed
// extraction leaves no partial file behind.
func (ar *Archive) ExtractEntry(name, destPath string) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	if err := ar.checkOpen(false); err != nil {
		return err
	}

	if err := ValidateEntryName(name); err != nil {
		return err
	}
	f, err := ar.locate(name)
	if err != nil {
		return err
	}
	if f.IsDir() {
		if err := os.MkdirAll(destPath, 0o755); err != nil {
			return fmt.Errorf("zipfile: extract entry %q: %w", name, err)
		}
		return nil
	}

	rc, err := ar.openEntryContent(f, name)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("zipfile: extract entry %q: %w", name, err)
	}
	if err := writeFileAtomic(rc, destPath); err != nil {
		return fmt.Errorf("zipfile: extract entry %q to %q: %w", name, destPath, err)
	}
	return nil
}

// writeFileAtomic copies src to destPath through a temp file and rename.
func writeFileAtomic(src io.Reader, destPath string) error {
	dir := filepath.Dir(destPath)
	tmp, err := os.CreateTemp(dir, ".zipfile-")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		return fmt.Errorf("copying content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("renaming to destination: %w", err)
	}
	success = true
	return nil
}
