package uploads

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDir(t *testing.T) *Dir {
	t.Helper()
	d, err := NewDir(filepath.Join(t.TempDir(), "uploads"), "/uploads")
	require.NoError(t, err)
	return d
}

func TestDirSaveAndDelete(t *testing.T) {
	d := newTestDir(t)
	ctx := context.Background()

	require.NoError(t, d.Save(ctx, "events/poster.png", []byte("png"), "image/png"))
	data, err := os.ReadFile(filepath.Join(d.Base(), "events", "poster.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "/uploads/events/poster.png", d.URL("events/poster.png"))

	assert.ErrorIs(t, d.Save(ctx, "events/poster.png", []byte("x"), "image/png"), ErrExists)

	require.NoError(t, d.Delete(ctx, "events/poster.png"))
	_, err = os.Stat(filepath.Join(d.Base(), "events", "poster.png"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, d.Delete(ctx, "events/poster.png"), ErrNotExist)
}

func TestDirRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(filepath.Join(root, "uploads"), "/uploads")
	require.NoError(t, err)

	victim := filepath.Join(root, "victim.txt")
	require.NoError(t, os.WriteFile(victim, []byte("keep"), 0o600))

	for _, rel := range []string{"..", "../victim.txt", "a/../../victim.txt"} {
		assert.ErrorIs(t, d.Delete(context.Background(), rel), ErrInvalidPath, rel)
		assert.ErrorIs(t, d.Save(context.Background(), rel, []byte("x"), ""), ErrInvalidPath, rel)
	}
	data, err := os.ReadFile(victim)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestDirHandler(t *testing.T) {
	d := newTestDir(t)
	require.NoError(t, d.Save(context.Background(), "poster.png", []byte("hello"), "image/png"))
	require.NoError(t, os.MkdirAll(filepath.Join(d.Base(), "sub"), 0o755))

	srv := httptest.NewServer(http.StripPrefix("/uploads", d.Handler()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/uploads/poster.png")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	for _, p := range []string{"/uploads/missing.png", "/uploads/sub", "/uploads/sub/"} {
		resp, err := http.Get(srv.URL + p)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
	}
}
