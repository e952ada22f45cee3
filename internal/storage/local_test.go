package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndRemove(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "/storage")
	require.NoError(t, err)

	ref, err := l.Save("attachments", "a-1.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "/storage/attachments/a-1.txt", ref)

	full, err := l.Resolve(ref)
	require.NoError(t, err)
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, l.Remove(ref))
	_, err = os.Stat(full)
	assert.True(t, os.IsNotExist(err))

	// kedua kali tetap sukses
	assert.NoError(t, l.Remove(ref))
}

func TestSaveDoesNotOverwrite(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "storage")
	require.NoError(t, err)

	_, err = l.Save("profiles", "p.png", strings.NewReader("one"))
	require.NoError(t, err)
	_, err = l.Save("profiles", "p.png", strings.NewReader("two"))
	assert.Error(t, err)

	data, err := os.ReadFile(filepath.Join(l.Root(), "profiles", "p.png"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestResolveRejectsTraversal(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "/storage")
	require.NoError(t, err)

	for _, ref := range []string{
		"/storage/../etc/passwd",
		"/storage/attachments/../../x",
		"/other/attachments/x",
		"/storage/",
		"attachments/x",
	} {
		_, err := l.Resolve(ref)
		assert.ErrorIs(t, err, ErrInvalidRef, ref)
	}

	_, err = l.Save("..", "x", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidRef)
	_, err = l.Save("attachments", "a/b", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidRef)
}
