package zipfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

const centralDirSignature = 0x02014b50

// dosTimestamp converts t to MS-DOS date and time header fields. The
// codec decodes these fields as UTC, so they are encoded from UTC here
// and the absolute instant round-trips at the format's 2-second
// resolution.
func dosTimestamp(t time.Time) (dosDate, dosTime uint16) {
	u := t.UTC()
	year := u.Year() - 1980
	if year < 0 {
		year = 0
	} else if year > 127 {
		year = 127
	}
	dosDate = uint16(year)<<9 | uint16(u.Month())<<5 | uint16(u.Day())
	dosTime = uint16(u.Hour())<<11 | uint16(u.Minute())<<5 | uint16(u.Second()/2)
	return dosDate, dosTime
}

// archivePatcher is the random-access surface needed to rewrite header
// fields of a finalized archive in place.
type archivePatcher interface {
	io.ReaderAt
	io.WriterAt
}

// byteSlice adapts a finalized in-memory archive to archivePatcher.
type byteSlice []byte

func (b byteSlice) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b byteSlice) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(b)) {
		return 0, io.ErrShortWrite
	}
	return copy(b[off:], p), nil
}

// applyModTimes rewrites the DOS timestamp fields of the named entries in
// a finalized archive, in both the central directory and the local file
// headers. The codec stamps every added entry with the time of the add
// call and exposes no setter, so explicit modification times are patched
// in after the archive is written; the fields are fixed-size, so the
// patch never shifts any record.
func applyModTimes(rw archivePatcher, size int64, times map[string]time.Time) error {
	if len(times) == 0 {
		return nil
	}
	rec, ok := findEOCD(rw, size)
	if !ok {
		return fmt.Errorf("set modification times: no end-of-central-directory record")
	}
	entries := int(binary.LittleEndian.Uint16(rec[10:12]))
	cdOffset := binary.LittleEndian.Uint32(rec[16:20])
	if cdOffset == 0xffffffff {
		// ZIP64 layout; leave the codec's timestamps alone.
		return nil
	}

	off := int64(cdOffset)
	hdr := make([]byte, 46)
	for i := 0; i < entries; i++ {
		if _, err := rw.ReadAt(hdr, off); err != nil {
			return fmt.Errorf("set modification times: %w", err)
		}
		if binary.LittleEndian.Uint32(hdr[0:4]) != centralDirSignature {
			return fmt.Errorf("set modification times: bad central directory record at offset %d", off)
		}
		nameLen := int64(binary.LittleEndian.Uint16(hdr[28:30]))
		extraLen := int64(binary.LittleEndian.Uint16(hdr[30:32]))
		commentLen := int64(binary.LittleEndian.Uint16(hdr[32:34]))

		name := make([]byte, nameLen)
		if _, err := rw.ReadAt(name, off+46); err != nil {
			return fmt.Errorf("set modification times: %w", err)
		}
		if t, found := times[string(name)]; found {
			dosDate, dosTime := dosTimestamp(t)
			var field [4]byte
			binary.LittleEndian.PutUint16(field[0:2], dosTime)
			binary.LittleEndian.PutUint16(field[2:4], dosDate)
			if _, err := rw.WriteAt(field[:], off+12); err != nil {
				return fmt.Errorf("set modification times: %w", err)
			}
			if localOff := binary.LittleEndian.Uint32(hdr[42:46]); localOff != 0xffffffff {
				if _, err := rw.WriteAt(field[:], int64(localOff)+10); err != nil {
					return fmt.Errorf("set modification times: %w", err)
				}
			}
		}
		off += 46 + nameLen + extraLen + commentLen
	}
	return nil
}

// recordModTime remembers an explicit modification time for patching at
// flush, keyed by the canonical stored name. Callers must hold the write
// lock.
func (ar *Archive) recordModTime(name string, t time.Time) {
	if t.IsZero() {
		return
	}
	f, err := ar.codec.File(name)
	if err != nil {
		return
	}
	if ar.modTimes == nil {
		ar.modTimes = make(map[string]time.Time)
	}
	ar.modTimes[f.Name()] = t
}
