package zipfile

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryInfoMetadata(t *testing.T) {
	modified := time.Date(2019, 4, 27, 13, 37, 42, 0, time.UTC)

	data := buildArchive(t, func(ar *Archive) {
		require.NoError(t, ar.Add("meta.txt", []byte("metadata"),
			AddWithModified(modified),
			AddWithComment("per-entry note"),
		))
	})

	ar, err := OpenBytes(data)
	require.NoError(t, err)
	defer ar.Close()

	info, err := ar.Entry("meta.txt")
	require.NoError(t, err)
	assert.Equal(t, "meta.txt", info.Name)
	assert.True(t, modified.Equal(info.Modified), "want %v, got %v", modified, info.Modified)
	assert.Equal(t, "per-entry note", info.Comment)
	assert.False(t, info.IsEncrypted)
}

func TestModifiedSurvivesDiskFlush(t *testing.T) {
	modified := time.Date(2021, 11, 3, 8, 15, 30, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "stamped.zip")

	ar, err := Open(path, ModeWrite)
	require.NoError(t, err)
	require.NoError(t, ar.Add("stamped.txt", []byte("payload"), AddWithModified(modified)))
	require.NoError(t, ar.Close())

	rd, err := Open(path, ModeRead)
	require.NoError(t, err)
	defer rd.Close()

	info, err := rd.Entry("stamped.txt")
	require.NoError(t, err)
	assert.True(t, modified.Equal(info.Modified), "want %v, got %v", modified, info.Modified)
}

func TestExtTimestampCodec(t *testing.T) {
	at := time.Unix(1556372262, 0)

	field := encodeExtTimestamp(at)
	got, ok := decodeExtTimestamp(field)
	require.True(t, ok)
	assert.True(t, at.Equal(got))

	_, ok = decodeExtTimestamp(nil)
	assert.False(t, ok)
	_, ok = decodeExtTimestamp([]byte{0x00, 0x01, 0x02, 0x03, 0x04})
	assert.False(t, ok)
}

func TestEncryptedEntry(t *testing.T) {
	data := buildArchive(t, func(ar *Archive) {
		require.NoError(t, ar.Add("secret.txt", []byte("classified"), AddWithPassword("hunter2")))
		require.NoError(t, ar.Add("plain.txt", []byte("public")))
	})

	t.Run("correct password", func(t *testing.T) {
		ar, err := OpenBytes(data, WithPassword("hunter2"))
		require.NoError(t, err)
		defer ar.Close()

		info, err := ar.Entry("secret.txt")
		require.NoError(t, err)
		assert.True(t, info.IsEncrypted)

		got, err := ar.Read("secret.txt")
		require.NoError(t, err)
		assert.Equal(t, []byte("classified"), got)
	})

	t.Run("wrong password", func(t *testing.T) {
		ar, err := OpenBytes(data, WithPassword("letmein"))
		require.NoError(t, err)
		defer ar.Close()

		_, err = ar.Read("secret.txt")
		require.Error(t, err)
	})

	t.Run("plain entry ignores password", func(t *testing.T) {
		ar, err := OpenBytes(data, WithPassword("letmein"))
		require.NoError(t, err)
		defer ar.Close()

		got, err := ar.Read("plain.txt")
		require.NoError(t, err)
		assert.Equal(t, []byte("public"), got)
	})
}

func TestZeroSizeEntry(t *testing.T) {
	data := buildArchive(t, func(ar *Archive) {
		require.NoError(t, ar.Add("empty.txt", nil))
	})

	ar, err := OpenBytes(data)
	require.NoError(t, err)
	defer ar.Close()

	got, err := ar.Read("empty.txt")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "read", ModeRead.String())
	assert.Equal(t, "write", ModeWrite.String())
	assert.Equal(t, "append", ModeAppend.String())
	assert.Equal(t, "Mode(99)", Mode(99).String())
}
