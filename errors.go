package zipfile

import "errors"

// Sentinel errors reported by archive sessions. Operation context (entry
// name, codec error) is attached by wrapping, so callers can classify with
// errors.Is and still see the detail.
var (
	// ErrClosed is returned when an operation is attempted on a closed
	// archive, or when Bytes is called a second time.
	ErrClosed = errors.New("zipfile: archive is closed")

	// ErrBusy is returned when Close or Bytes is called while entry
	// streams are still open.
	ErrBusy = errors.New("zipfile: archive is busy")

	// ErrNotReadable is returned when a query operation is attempted on a
	// session opened for writing.
	ErrNotReadable = errors.New("zipfile: archive is not open for reading")

	// ErrNotWritable is returned when a mutating operation is attempted on
	// a session opened for reading.
	ErrNotWritable = errors.New("zipfile: archive is not open for writing")

	// ErrNotFound is returned when a named entry does not exist.
	ErrNotFound = errors.New("zipfile: entry not found")

	// ErrInsecureName is returned by the path validator for entry names
	// that could escape the extraction directory: absolute paths, ".."
	// segments, or backslashes.
	ErrInsecureName = errors.New("zipfile: insecure entry name")

	// ErrAllocLimit is returned when an entry or a finalized archive
	// exceeds the session's maximum allocation size.
	ErrAllocLimit = errors.New("zipfile: maximum allocation size exceeded")

	// ErrDeleteUnsupported is returned by Delete. In-place deletion is not
	// implemented; create a new archive without the unwanted entries.
	ErrDeleteUnsupported = errors.New("zipfile: delete is not supported")

	// ErrStreamClosed is returned when writing to a closed EntryWriter or
	// reading from a closed EntryReader.
	ErrStreamClosed = errors.New("zipfile: stream is closed")
)
