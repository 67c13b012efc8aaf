package zipfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEntryName(t *testing.T) {
	tests := []struct {
		name    string
		entry   string
		wantErr bool
	}{
		{name: "simple file", entry: "file.txt", wantErr: false},
		{name: "nested file", entry: "dir/sub/file.txt", wantErr: false},
		{name: "directory entry", entry: "dir/", wantErr: false},
		{name: "dots inside segment", entry: "a..b", wantErr: false},
		{name: "dots at segment end", entry: "dir/name..", wantErr: false},
		{name: "hidden file", entry: ".config", wantErr: false},
		{name: "single dot segment", entry: "./file.txt", wantErr: false},
		{name: "empty name", entry: "", wantErr: false},
		{name: "absolute path", entry: "/etc/passwd", wantErr: true},
		{name: "leading traversal", entry: "../file.txt", wantErr: true},
		{name: "bare dot dot", entry: "..", wantErr: true},
		{name: "inner traversal", entry: "a/../b", wantErr: true},
		{name: "trailing dot dot segment", entry: "a/..", wantErr: true},
		{name: "deep traversal", entry: "a/b/../../../etc", wantErr: true},
		{name: "backslash separator", entry: "a\\b", wantErr: true},
		{name: "traversal with backslash", entry: "..\\file.txt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntryName(tt.entry)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInsecureName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
