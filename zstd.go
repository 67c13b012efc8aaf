package zipfile

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	gozip "github.com/lemon4ksan/gozip"
)

// registerZstd wires zstd support (method 93) into the codec so
// archives produced by other tools remain readable and writable here.
func registerZstd(z *gozip.Zip) {
	z.RegisterCompressor(gozip.ZStandard, func(level int) gozip.Compressor {
		return &zstdCompressor{level: zstd.EncoderLevelFromZstd(level)}
	})
	z.RegisterDecompressor(gozip.ZStandard, zstdDecompressor{})
}

type zstdCompressor struct {
	level zstd.EncoderLevel
}

func (c *zstdCompressor) Compress(src io.Reader, dest io.Writer) (int64, error) {
	enc, err := zstd.NewWriter(dest,
		zstd.WithEncoderLevel(c.level),
		zstd.WithEncoderConcurrency(1),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		return 0, fmt.Errorf("zipfile: create zstd encoder: %w", err)
	}
	n, err := io.Copy(enc, src)
	if err != nil {
		enc.Close()
		return n, fmt.Errorf("zipfile: zstd compress: %w", err)
	}
	if err := enc.Close(); err != nil {
		return n, fmt.Errorf("zipfile: finish zstd stream: %w", err)
	}
	return n, nil
}

type zstdDecompressor struct{}

func (zstdDecompressor) Decompress(src io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(src, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zipfile: create zstd decoder: %w", err)
	}
	return dec.IOReadCloser(), nil
}
