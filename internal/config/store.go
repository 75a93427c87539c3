package config

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoProperty is returned for a property the store does not hold.
var ErrNoProperty = errors.New("property not found")

// MapStore is an in-memory PropertyStore. U32 and GPIO values are held in
// decoded form.
type MapStore struct {
	GPIOs map[string][2]uint32 // offset, flags
	U32s  map[string]uint32
	Bools map[string]bool
}

// GPIO returns the offset and flags stored under name.
func (m MapStore) GPIO(name string) (int, uint32, error) {
	v, ok := m.GPIOs[name]
	if !ok {
		return 0, 0, fmt.Errorf("%s: %w", name, ErrNoProperty)
	}
	return int(int32(v[0])), v[1], nil
}

// U32 returns the value stored under name.
func (m MapStore) U32(name string) (uint32, error) {
	v, ok := m.U32s[name]
	if !ok {
		return 0, fmt.Errorf("%s: %w", name, ErrNoProperty)
	}
	return v, nil
}

// Bool reports whether name is set.
func (m MapStore) Bool(name string) bool {
	return m.Bools[name]
}

// DTNode reads properties from a flattened device-tree node directory such
// as /sys/firmware/devicetree/base/hall. Each property is a file holding
// big-endian 32-bit cells; boolean properties are empty files.
type DTNode struct {
	Dir string
}

// GPIO decodes a <phandle offset flags> specifier.
func (n DTNode) GPIO(name string) (int, uint32, error) {
	cells, err := n.cells(name)
	if err != nil {
		return 0, 0, err
	}
	if len(cells) < 3 {
		return 0, 0, fmt.Errorf("%s: expected 3 cells, got %d", name, len(cells))
	}
	return int(int32(cells[1])), cells[2], nil
}

// U32 decodes a single-cell property.
func (n DTNode) U32(name string) (uint32, error) {
	cells, err := n.cells(name)
	if err != nil {
		return 0, err
	}
	if len(cells) < 1 {
		return 0, fmt.Errorf("%s: empty property", name)
	}
	return cells[0], nil
}

// Bool reports whether the property file exists.
func (n DTNode) Bool(name string) bool {
	_, err := os.Stat(filepath.Join(n.Dir, name))
	return err == nil
}

func (n DTNode) cells(name string) ([]uint32, error) {
	data, err := os.ReadFile(filepath.Join(n.Dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrNoProperty)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%s: length %d is not a multiple of 4", name, len(data))
	}
	cells := make([]uint32, len(data)/4)
	for i := range cells {
		cells[i] = binary.BigEndian.Uint32(data[i*4:])
	}
	return cells, nil
}
