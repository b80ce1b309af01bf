package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "control chars", in: " A\nB\rC\tD\x00 ", max: 100, want: "ABCD"},
		{name: "max length", in: "abcdefghijklmnopqrstuvwxyz", max: 10, want: "abcdefghij"},
		{name: "allowed", in: "Az09 -_.,()", max: 100, want: "Az09 -_.,()"},
		{name: "umlauts kept", in: "Gefährliche Güter", max: 0, want: "Gefährliche Güter"},
		{name: "disallowed", in: "bad<>|\"name", max: 100, want: "bad____name"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeName(tc.in, tc.max))
		})
	}
}

func TestValidateOutputDir(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, ValidateOutputDir(dir))

	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	for _, bad := range []string{"", "/tmp/../etc", dir + "/", filepath.Join(dir, "missing"), file} {
		assert.ErrorIs(t, ValidateOutputDir(bad), ErrInvalidOutputDir, bad)
	}
}
