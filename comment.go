package zipfile

import (
	"encoding/binary"
	"io"
)

// Comment returns the archive-level comment. ok is false when the archive
// has none. Valid on read sessions.
func (ar *Archive) Comment() (string, bool, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	if err := ar.checkOpen(false); err != nil {
		return "", false, err
	}
	return ar.comment, ar.hasComment, nil
}

// SetComment sets the archive-level comment, written when the session is
// flushed. Valid on write sessions.
func (ar *Archive) SetComment(comment string) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	if err := ar.checkOpen(true); err != nil {
		return err
	}
	ar.comment = comment
	ar.hasComment = comment != ""
	return nil
}

const (
	eocdSignature = 0x06054b50
	eocdBaseLen   = 22
	// the comment length field caps the EOCD record at 22 + 64 KiB
	eocdMaxLen = eocdBaseLen + 0xffff
)

// findEOCD scans the tail of an archive for the end-of-central-directory
// record and returns it, trailing comment included.
//
// The signature cannot appear inside the comment of a well-formed
// archive, so the last occurrence is the record.
func findEOCD(r io.ReaderAt, size int64) ([]byte, bool) {
	scanLen := int64(eocdMaxLen)
	if scanLen > size {
		scanLen = size
	}
	if scanLen < eocdBaseLen {
		return nil, false
	}

	buf := make([]byte, scanLen)
	if _, err := r.ReadAt(buf, size-scanLen); err != nil {
		return nil, false
	}

	for i := len(buf) - eocdBaseLen; i >= 0; i-- {
		if binary.LittleEndian.Uint32(buf[i:i+4]) == eocdSignature {
			return buf[i:], true
		}
	}
	return nil, false
}

// eocdComment returns the archive comment from the end-of-central-
// directory record. The codec parses the record during Load but keeps
// the comment private, so read sessions recover it here.
func eocdComment(r io.ReaderAt, size int64) (string, bool) {
	rec, ok := findEOCD(r, size)
	if !ok {
		return "", false
	}
	commentLen := int(binary.LittleEndian.Uint16(rec[20:22]))
	if eocdBaseLen+commentLen > len(rec) {
		return "", false
	}
	comment := string(rec[eocdBaseLen : eocdBaseLen+commentLen])
	return comment, comment != ""
}
