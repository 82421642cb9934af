package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) (*FileGateway, string) {
	t.Helper()
	root := t.TempDir()
	g, err := NewFileGateway(root)
	require.NoError(t, err)
	return g, g.Root()
}

func TestResolveContainedFile(t *testing.T) {
	g, root := newTestGateway(t)
	path := filepath.Join(root, "t1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("media"), 0o644))

	abs, err := g.Resolve(path)
	require.NoError(t, err)
	require.Equal(t, path, abs)
}

func TestResolveRejectsEscapes(t *testing.T) {
	g, root := newTestGateway(t)

	escapes := []string{
		"/etc/passwd",
		filepath.Join(root, "..", "outside.mp4"),
		filepath.Join(root, "..", filepath.Base(root)+"-evil", "f.mp4"),
		root + "-sibling/f.mp4",
	}
	for _, p := range escapes {
		_, err := g.Resolve(p)
		require.ErrorIs(t, err, ErrForbiddenPath, "path %q", p)
	}
}

func TestResolveMissingFile(t *testing.T) {
	g, root := newTestGateway(t)

	_, err := g.Resolve(filepath.Join(root, "gone.mp4"))
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestResolveDotDotInsideRootIsAllowed(t *testing.T) {
	g, root := newTestGateway(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	path := filepath.Join(root, "t1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("media"), 0o644))

	// Canonicalizes back inside the root
	abs, err := g.Resolve(filepath.Join(root, "sub", "..", "t1.mp4"))
	require.NoError(t, err)
	require.Equal(t, path, abs)
}

func TestRemove(t *testing.T) {
	g, root := newTestGateway(t)
	path := filepath.Join(root, "t1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("media"), 0o644))

	require.NoError(t, g.Remove(path))
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))

	// Removing again is fine
	require.NoError(t, g.Remove(path))
}

func TestRemoveRejectsEscapes(t *testing.T) {
	g, _ := newTestGateway(t)
	require.ErrorIs(t, g.Remove("/etc/passwd"), ErrForbiddenPath)
}
