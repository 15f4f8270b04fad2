package loaders

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/hellotriangle/engine/core"
)

func spirvModule(order binary.ByteOrder, words ...uint32) []byte {
	header := []uint32{spirvMagic, 0x00010000, 0, 8, 0}
	all := append(header, words...)
	b := make([]byte, len(all)*4)
	for i, w := range all {
		order.PutUint32(b[i*4:], w)
	}
	return b
}

func TestBytesToBytecode(t *testing.T) {
	code, err := bytesToBytecode(spirvModule(binary.LittleEndian, 0xdeadbeef))
	require.NoError(t, err)
	require.Len(t, code, 6)
	assert.Equal(t, spirvMagic, code[0])
	assert.Equal(t, uint32(0xdeadbeef), code[5])
}

func TestBytesToBytecodeSwapped(t *testing.T) {
	code, err := bytesToBytecode(spirvModule(binary.BigEndian, 0x01020304))
	require.NoError(t, err)
	assert.Equal(t, spirvMagic, code[0])
	assert.Equal(t, uint32(0x01020304), code[5])
}

func TestBytesToBytecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"unaligned", append(spirvModule(binary.LittleEndian), 0x01)},
		{"truncated header", spirvModule(binary.LittleEndian)[:12]},
		{"bad magic", make([]byte, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bytesToBytecode(tt.data)
			require.ErrorIs(t, err, core.ErrInvalidShader)
		})
	}
}

func TestBinaryLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vert.spv")
	data := spirvModule(binary.LittleEndian, 1, 2, 3)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	bl := &BinaryLoader{}
	res, err := bl.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "vert.spv", res.Name)
	assert.Equal(t, path, res.FullPath)
	assert.Equal(t, uint64(len(data)), res.DataSize)
	assert.Len(t, res.Code, 8)

	require.NoError(t, bl.Unload(res))
	assert.Nil(t, res.Code)
}

func TestBinaryLoaderMissingFile(t *testing.T) {
	_, err := (&BinaryLoader{}).Load(filepath.Join(t.TempDir(), "nope.spv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
