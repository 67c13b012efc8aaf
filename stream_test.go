package zipfile

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamTestArchive(t *testing.T, content []byte) *Archive {
	t.Helper()

	data := buildArchive(t, func(ar *Archive) {
		require.NoError(t, ar.Add("stream.bin", content))
	})
	ar, err := OpenBytes(data)
	require.NoError(t, err)
	t.Cleanup(func() { ar.Close() })
	return ar
}

func TestEntryReaderMatchesRead(t *testing.T) {
	content := bytes.Repeat([]byte("0123456789abcdef"), 100)

	tests := []struct {
		name      string
		chunkSize int
	}{
		{name: "byte at a time", chunkSize: 1},
		{name: "odd chunks", chunkSize: 7},
		{name: "large chunks", chunkSize: 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ar := streamTestArchive(t, content)

			r, err := ar.OpenEntry("stream.bin")
			require.NoError(t, err)

			var got bytes.Buffer
			buf := make([]byte, tt.chunkSize)
			for {
				n, err := r.Read(buf)
				got.Write(buf[:n])
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
			}
			require.NoError(t, r.Close())
			assert.Equal(t, content, got.Bytes())
		})
	}
}

func TestEntryReaderPeek(t *testing.T) {
	content := []byte("peekable")
	ar := streamTestArchive(t, content)

	r, err := ar.OpenEntry("stream.bin")
	require.NoError(t, err)
	defer r.Close()

	// Peek is stable until consumed by Read.
	b, err := r.Peek()
	require.NoError(t, err)
	assert.Equal(t, byte('p'), b)
	b, err = r.Peek()
	require.NoError(t, err)
	assert.Equal(t, byte('p'), b)

	// The peeked byte is delivered first; nothing is duplicated or lost.
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Exhausted stream: Peek and Read both report EOF.
	_, err = r.Peek()
	assert.Equal(t, io.EOF, err)
	n, err := r.Read(make([]byte, 4))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}

func TestEntryReaderPeekInterleaved(t *testing.T) {
	content := []byte("abc")
	ar := streamTestArchive(t, content)

	r, err := ar.OpenEntry("stream.bin")
	require.NoError(t, err)
	defer r.Close()

	var got []byte
	one := make([]byte, 1)
	for {
		peeked, peekErr := r.Peek()
		if peekErr == io.EOF {
			break
		}
		require.NoError(t, peekErr)

		n, readErr := r.Read(one)
		require.NoError(t, readErr)
		require.Equal(t, 1, n)
		assert.Equal(t, peeked, one[0])
		got = append(got, one[0])
	}
	assert.Equal(t, content, got)
}

func TestEntryReaderEncrypted(t *testing.T) {
	content := bytes.Repeat([]byte("sensitive "), 200)
	data := buildArchive(t, func(ar *Archive) {
		require.NoError(t, ar.Add("secret.bin", content, AddWithPassword("hunter2")))
	})

	ar, err := OpenBytes(data, WithPassword("hunter2"))
	require.NoError(t, err)
	defer ar.Close()

	r, err := ar.OpenEntry("secret.bin")
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, content, got)
}

func TestEntryReaderCloseEarly(t *testing.T) {
	ar := streamTestArchive(t, bytes.Repeat([]byte("x"), 10000))

	r, err := ar.OpenEntry("stream.bin")
	require.NoError(t, err)

	// Abandon the stream after a partial read.
	_, err = r.Read(make([]byte, 16))
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close()) // idempotent

	_, err = r.Read(make([]byte, 16))
	assert.ErrorIs(t, err, ErrStreamClosed)
	_, err = r.Peek()
	assert.ErrorIs(t, err, ErrStreamClosed)

	require.NoError(t, ar.Close())
}

func TestEntryWriterRoundTrip(t *testing.T) {
	ar, err := New()
	require.NoError(t, err)

	w, err := ar.CreateEntry("built.txt", AddWithCompression(MethodStored, 0))
	require.NoError(t, err)

	for _, chunk := range []string{"first ", "second ", "third"} {
		n, err := w.Write([]byte(chunk))
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}
	require.NoError(t, w.Close())
	require.NoError(t, w.Close()) // idempotent

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, ErrStreamClosed)

	data, err := ar.Bytes()
	require.NoError(t, err)

	rd, err := OpenBytes(data)
	require.NoError(t, err)
	defer rd.Close()

	got, err := rd.Read("built.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("first second third"), got)
}

func TestCreateEntryRejectsDuplicates(t *testing.T) {
	ar, err := New()
	require.NoError(t, err)
	require.NoError(t, ar.Add("taken.txt", []byte("x")))

	_, err = ar.CreateEntry("taken.txt")
	require.Error(t, err)

	_, err = ar.CreateEntry("")
	require.Error(t, err)
}

func TestEntryWriterAllocLimit(t *testing.T) {
	ar, err := New(WithMaxAllocSize(8))
	require.NoError(t, err)

	w, err := ar.CreateEntry("capped.bin")
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("1234"))
	require.NoError(t, err)
	_, err = w.Write([]byte("56789"))
	assert.ErrorIs(t, err, ErrAllocLimit)
}

func TestConcurrentEntryReads(t *testing.T) {
	content := bytes.Repeat([]byte("concurrent data "), 512)
	data := buildArchive(t, func(ar *Archive) {
		require.NoError(t, ar.Add("a.bin", content))
		require.NoError(t, ar.Add("b.bin", content))
	})

	ar, err := OpenBytes(data)
	require.NoError(t, err)
	defer ar.Close()

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		name := "a.bin"
		if i%2 == 1 {
			name = "b.bin"
		}
		go func(name string) {
			got, err := ar.Read(name)
			if err == nil && !bytes.Equal(got, content) {
				err = io.ErrUnexpectedEOF
			}
			done <- err
		}(name)
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}
