package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	semerrors "github.com/Aman-CERP/semdex/internal/errors"
)

func TestRegistry_SaveAndResolve(t *testing.T) {
	reg, err := NewRegistry(t.TempDir(), 0)
	require.NoError(t, err)

	id, err := reg.Save(strings.NewReader("id,text\n1,hello\n"), "data.csv")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	path, err := reg.Path(id)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, id+".csv"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,text\n1,hello\n", string(content))
}

func TestRegistry_ExtensionKeptLowercase(t *testing.T) {
	reg, err := NewRegistry(t.TempDir(), 0)
	require.NoError(t, err)

	id, err := reg.Save(strings.NewReader("{}"), "DATA.JSONL")
	require.NoError(t, err)

	path, err := reg.Path(id)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".jsonl"))
}

func TestRegistry_UnknownID(t *testing.T) {
	reg, err := NewRegistry(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = reg.Path("no-such-id")
	require.Error(t, err)
	assert.Equal(t, semerrors.ErrCodeFileNotFound, semerrors.GetCode(err))
}

func TestRegistry_SizeCap(t *testing.T) {
	dir := t.TempDir()
	reg, err := NewRegistry(dir, 16)
	require.NoError(t, err)

	_, err = reg.Save(strings.NewReader(strings.Repeat("x", 17)), "big.csv")
	require.Error(t, err)
	assert.Equal(t, semerrors.ErrCodeFileTooLarge, semerrors.GetCode(err))

	// Nothing left behind on rejection.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Exactly at the cap is fine.
	_, err = reg.Save(strings.NewReader(strings.Repeat("x", 16)), "ok.csv")
	assert.NoError(t, err)
}

func TestRegistry_Remove(t *testing.T) {
	reg, err := NewRegistry(t.TempDir(), 0)
	require.NoError(t, err)

	id, err := reg.Save(strings.NewReader("data"), "f.json")
	require.NoError(t, err)

	require.NoError(t, reg.Remove(id))
	_, err = reg.Path(id)
	assert.Error(t, err)

	// Removing again is a no-op.
	assert.NoError(t, reg.Remove(id))
}

func TestRegistry_ExtensionlessUpload(t *testing.T) {
	dir := t.TempDir()
	reg, err := NewRegistry(dir, 0)
	require.NoError(t, err)

	id, err := reg.Save(strings.NewReader("raw bytes"), "noext")
	require.NoError(t, err)

	path, err := reg.Path(id)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, id), path)
}
