package zipfile

import (
	"log/slog"
	"time"

	gozip "github.com/lemon4ksan/gozip"
)

// DefaultMaxAllocSize is the default ceiling for any single in-memory
// materialization: a whole entry read via Read, an entry staged by an
// EntryWriter, or a whole archive returned by Bytes (1 GiB).
const DefaultMaxAllocSize int64 = 1 << 30

// Option configures an Archive at construction.
type Option func(*Archive)

// WithPassword sets the session's default password, used to decrypt
// encrypted entries on Read, OpenEntry, ExtractAll, and ExtractEntry.
func WithPassword(password string) Option {
	return func(ar *Archive) {
		ar.password = password
	}
}

// WithMaxAllocSize sets the maximum allocation size for the session.
// Values <= 0 are ignored.
func WithMaxAllocSize(limit int64) Option {
	return func(ar *Archive) {
		if limit > 0 {
			ar.maxAllocSize = limit
		}
	}
}

// WithLogger sets the logger for debug output. By default nothing is
// logged.
func WithLogger(logger *slog.Logger) Option {
	return func(ar *Archive) {
		ar.logger = logger
	}
}

// AddOption configures a single entry added with Add, AddText, AddFile,
// or CreateEntry.
type AddOption func(*addConfig)

// addConfig collects per-entry settings before they are translated to
// codec options at commit time.
type addConfig struct {
	method   CompressionMethod
	level    int
	password string
	comment  string
	modified time.Time
}

// newAddConfig applies opts over the defaults: deflate at the
// codec's default level, current time, no encryption.
func newAddConfig(opts []AddOption) addConfig {
	cfg := addConfig{
		method: MethodDeflated,
		level:  gozip.DeflateNormal,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// codecOptions translates the config to codec add options.
func (c *addConfig) codecOptions() []gozip.AddOption {
	opts := []gozip.AddOption{gozip.WithCompression(c.method, c.level)}
	if c.password != "" {
		opts = append(opts, gozip.WithEncryption(gozip.AES256, c.password))
	}
	if c.comment != "" {
		comment := c.comment
		opts = append(opts, func(f *gozip.File) {
			fc := f.Config()
			fc.Comment = comment
			f.SetConfig(fc)
		})
	}
	if !c.modified.IsZero() {
		ut := encodeExtTimestamp(c.modified)
		opts = append(opts, func(f *gozip.File) {
			// Only fails when the extra field area overflows 64 KiB;
			// the timestamp is then dropped.
			_ = f.SetExtraField(extTimestampTag, ut)
		})
	}
	return opts
}

// AddWithCompression sets the compression method and level for the entry.
// The default is deflate at the codec's default level.
func AddWithCompression(method CompressionMethod, level int) AddOption {
	return func(c *addConfig) {
		c.method = method
		c.level = level
	}
}

// AddWithPassword enables AES-256 encryption for the entry with the given
// password.
func AddWithPassword(password string) AddOption {
	return func(c *addConfig) {
		c.password = password
	}
}

// AddWithComment sets the per-entry comment.
func AddWithComment(comment string) AddOption {
	return func(c *addConfig) {
		c.comment = comment
	}
}

// AddWithModified sets the entry modification time, stored at the
// archive format's 2-second resolution. The default is the time the
// entry is added.
func AddWithModified(t time.Time) AddOption {
	return func(c *addConfig) {
		c.modified = t
	}
}

// ExtractOption configures ExtractAll.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	password string
}

// ExtractWithPassword overrides the session's default password for this
// extraction.
func ExtractWithPassword(password string) ExtractOption {
	return func(c *extractConfig) {
		c.password = password
	}
}
