package assets

import (
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/hellotriangle/engine/assets/loaders"
	"github.com/spaghettifunk/hellotriangle/engine/core"
)

func writeSPIRV(t *testing.T, path string) {
	t.Helper()
	words := []uint32{0x07230203, 0x00010000, 0, 4, 0, 0x00020011}
	b := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func TestNewAssetManagerIndexesShaders(t *testing.T) {
	dir := t.TempDir()
	writeSPIRV(t, filepath.Join(dir, "vert.spv"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shader.vert"), []byte("#version 450\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("ignored"), 0o644))

	am, err := NewAssetManager(dir)
	require.NoError(t, err)
	defer am.Close()

	types := map[string]AssetType{}
	for _, a := range am.Assets() {
		types[filepath.Base(a.Path)] = a.Type
	}
	assert.Equal(t, map[string]AssetType{
		"vert.spv":    AssetTypeShaderBinary,
		"shader.vert": AssetTypeShaderSource,
	}, types)
}

func TestNewAssetManagerMissingDir(t *testing.T) {
	_, err := NewAssetManager(filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadShader(t *testing.T) {
	dir := t.TempDir()
	writeSPIRV(t, filepath.Join(dir, "frag.spv"))

	am, err := NewAssetManager(dir)
	require.NoError(t, err)
	defer am.Close()

	res, err := am.LoadShader("frag.spv")
	require.NoError(t, err)
	assert.Len(t, res.Code, 6)

	// compiled after the manager was created
	writeSPIRV(t, filepath.Join(dir, "late.spv"))
	_, err = am.LoadShader("late.spv")
	require.NoError(t, err)

	_, err = am.LoadShader("missing.spv")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestUnloadShader(t *testing.T) {
	dir := t.TempDir()
	writeSPIRV(t, filepath.Join(dir, "vert.spv"))

	am, err := NewAssetManager(dir)
	require.NoError(t, err)
	defer am.Close()

	res, err := am.LoadShader("vert.spv")
	require.NoError(t, err)
	require.NoError(t, am.UnloadShader(res))
	assert.Nil(t, res.Code)
	assert.Zero(t, res.DataSize)

	assert.NoError(t, am.UnloadShader(nil))
	assert.Error(t, am.UnloadShader(&loaders.Resource{FullPath: filepath.Join(dir, "notes.txt")}))
}

func TestLoadShaderRejectsInvalidModule(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vert.spv"), []byte("not spirv"), 0o644))

	am, err := NewAssetManager(dir)
	require.NoError(t, err)
	defer am.Close()

	_, err = am.LoadShader("vert.spv")
	require.ErrorIs(t, err, core.ErrInvalidShader)
}

func TestLoadShaderRejectsSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shader.frag"), []byte("#version 450\n"), 0o644))

	am, err := NewAssetManager(dir)
	require.NoError(t, err)
	defer am.Close()

	_, err = am.LoadShader("shader.frag")
	require.Error(t, err)
}

func TestWatchReportsShaderWrites(t *testing.T) {
	dir := t.TempDir()
	am, err := NewAssetManager(dir)
	require.NoError(t, err)

	changed := make(chan AssetInfo, 16)
	require.NoError(t, am.Watch(func(info AssetInfo) { changed <- info }))
	require.Error(t, am.Watch(nil), "second watch must fail")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	writeSPIRV(t, filepath.Join(dir, "vert.spv"))

	select {
	case info := <-changed:
		assert.Equal(t, filepath.Join(dir, "vert.spv"), info.Path)
		assert.Equal(t, AssetTypeShaderBinary, info.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported for vert.spv")
	}

	require.NoError(t, am.Close())
	require.NoError(t, am.Close())
}
