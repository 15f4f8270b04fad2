package loaders

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/hellotriangle/engine/core"
)

const (
	spirvMagic        uint32 = 0x07230203
	spirvMagicSwapped uint32 = 0x03022307
	// magic, version, generator, bound, schema
	spirvHeaderWords = 5
)

// BinaryLoader reads compiled SPIR-V modules.
type BinaryLoader struct{}

func (bl *BinaryLoader) Load(path string) (*Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	code, err := bytesToBytecode(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(buf)),
		Code:     code,
	}, nil
}

func (bl *BinaryLoader) Unload(res *Resource) error {
	res.Code = nil
	res.DataSize = 0
	return nil
}

// bytesToBytecode decodes a SPIR-V module into words. Modules written with
// the opposite byte order are swapped.
func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: size %d is not a multiple of 4", core.ErrInvalidShader, len(b))
	}
	if len(b) < spirvHeaderWords*4 {
		return nil, fmt.Errorf("%w: size %d is smaller than the header", core.ErrInvalidShader, len(b))
	}

	var order binary.ByteOrder = binary.LittleEndian
	switch binary.LittleEndian.Uint32(b) {
	case spirvMagic:
	case spirvMagicSwapped:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad magic number %#08x", core.ErrInvalidShader, binary.LittleEndian.Uint32(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = order.Uint32(b[i*4:])
	}
	return byteCode, nil
}
