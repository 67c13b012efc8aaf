package zipfile

import (
	"encoding/binary"
	"time"

	gozip "github.com/lemon4ksan/gozip"
)

// CompressionMethod identifies the compression algorithm of an entry,
// re-exported from the codec.
type CompressionMethod = gozip.CompressionMethod

// Compression methods accepted by Add options. Deflate is the default.
const (
	MethodStored   = gozip.Store
	MethodDeflated = gozip.Deflate
	MethodZstd     = gozip.ZStandard
)

// extTimestampTag is the InfoZIP extended timestamp extra field (UT).
// The codec only carries the 2-second DOS timestamp, so precise entry
// modification times travel through this field instead.
const extTimestampTag uint16 = 0x5455

// EntryInfo describes one archive entry. It is a value snapshot taken at
// listing time; directory entries carry a trailing "/" in Name.
type EntryInfo struct {
	// Name is the entry path, forward-slash separated.
	Name string

	// Size is the uncompressed size in bytes.
	Size int64

	// CompressedSize is the stored size in bytes.
	CompressedSize int64

	// Modified is the entry modification time, normalized to UTC.
	Modified time.Time

	// CRC32 is the checksum of the uncompressed content.
	CRC32 uint32

	// Method is the compression method code.
	Method CompressionMethod

	// IsDir reports whether the entry is a directory marker.
	IsDir bool

	// IsEncrypted reports whether the entry content is encrypted.
	IsEncrypted bool

	// Comment is the per-entry comment, empty if absent.
	Comment string
}

// newEntryInfo maps a codec file record to an EntryInfo.
func newEntryInfo(f *gozip.File) EntryInfo {
	name := f.Name()
	if f.IsDir() && name != "" && name[len(name)-1] != '/' {
		name += "/"
	}

	modified := f.ModTime()
	if ut, ok := decodeExtTimestamp(f.GetExtraField(extTimestampTag)); ok {
		modified = ut
	}

	cfg := f.Config()
	return EntryInfo{
		Name:           name,
		Size:           f.UncompressedSize(),
		CompressedSize: f.CompressedSize(),
		Modified:       modified.UTC(),
		CRC32:          f.CRC32(),
		Method:         cfg.CompressionMethod,
		IsDir:          f.IsDir(),
		IsEncrypted:    cfg.EncryptionMethod != gozip.NotEncrypted,
		Comment:        cfg.Comment,
	}
}

// encodeExtTimestamp builds a UT extra field carrying the modification
// time: a flags byte (bit 0 = mtime present) followed by epoch seconds.
func encodeExtTimestamp(t time.Time) []byte {
	buf := make([]byte, 5)
	buf[0] = 0x01
	binary.LittleEndian.PutUint32(buf[1:], uint32(t.Unix()))
	return buf
}

// decodeExtTimestamp parses a UT extra field. ok is false when the field
// is absent, malformed, or does not carry a modification time.
func decodeExtTimestamp(b []byte) (time.Time, bool) {
	if len(b) < 5 || b[0]&0x01 == 0 {
		return time.Time{}, false
	}
	return time.Unix(int64(binary.LittleEndian.Uint32(b[1:5])), 0), true
}
