// Package zipfile provides a thread-safe session layer over ZIP archives.
//
// An [Archive] owns the open codec handles for one ZIP archive, on disk
// or in memory, and serializes all access behind a read-write lock. It
// tracks live entry streams so the archive cannot be closed or finalized
// while entries are open, and validates entry names before any extraction
// touches the filesystem.
//
// The ZIP binary format itself (central directory layout, compression,
// AES encryption) is delegated to github.com/lemon4ksan/gozip; this
// package only defines the operations around it.
//
// # Quick Start
//
// Build an archive in memory and materialize it:
//
//	ar, err := zipfile.New()
//	if err != nil {
//	    return err
//	}
//	if err := ar.Add("hello.txt", []byte("hello")); err != nil {
//	    return err
//	}
//	data, err := ar.Bytes() // finalizes and closes the session
//
// Read entries from an existing archive:
//
//	ar, err := zipfile.Open("backup.zip", zipfile.ModeRead)
//	if err != nil {
//	    return err
//	}
//	defer ar.Close()
//	content, err := ar.Read("config.json")
//
// Stream a large entry instead of materializing it:
//
//	r, err := ar.OpenEntry("dump.sql")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	// r is an io.Reader with one-byte lookahead via Peek.
//
// # Concurrency
//
// Archive methods are safe for concurrent use. Query operations take a
// shared lock and genuinely run in parallel: every opened entry gets its
// own section reader into the archive, so the lock only protects session
// state, not a shared cursor. [EntryReader] and [EntryWriter] values are
// not thread-safe and must be confined to a single goroutine.
//
// Close and Bytes never block waiting for streams; while streams are
// open they fail fast with [ErrBusy].
package zipfile
