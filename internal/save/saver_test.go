package save

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSaverWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := NewDirSaver(dir)

	err := s.Save(context.Background(), []byte("User:\nhi"), "Test_2024.txt", "text/plain")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "Test_2024.txt"))
	require.NoError(t, err)
	assert.Equal(t, "User:\nhi", string(data))
}

func TestDirSaverSanitizesName(t *testing.T) {
	dir := t.TempDir()
	s := NewDirSaver(dir)

	require.NoError(t, s.Save(context.Background(), []byte("{}"), "../a/b.json", "application/json"))

	_, err := os.Stat(filepath.Join(dir, "-a-b.json"))
	assert.NoError(t, err)
}

func TestDirSaverFailureWrapsEmission(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	err := NewDirSaver(file).Save(context.Background(), []byte("x"), "a.txt", "text/plain")
	assert.ErrorIs(t, err, ErrEmission)
}

func TestDirSaverCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewDirSaver(t.TempDir()).Save(ctx, []byte("x"), "a.txt", "text/plain")
	assert.ErrorIs(t, err, ErrEmission)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Test_2024.json", "Test_2024.json"},
		{"slashes", "a/b\\c.txt", "a-b-c.txt"},
		{"reserved", `what?*"<>|.txt`, "what------.txt"},
		{"control", "a\nb\tc.txt", "a-b-c.txt"},
		{"leading dots", "..hidden.txt", "hidden.txt"},
		{"empty", "", "conversation"},
		{"colon kept", "a:b.txt", "a:b.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDefaultDir(t *testing.T) {
	assert.Equal(t, ".", NewDirSaver("").Dir())
}
