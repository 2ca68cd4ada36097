package vm

import (
	"encoding/binary"
	"fmt"
)

// DefaultMemorySize is the arena size used when a VM is constructed without
// an explicit override.
const DefaultMemorySize = 1 << 20 // 1 MiB

// ReservedSize is the low region of memory reserved for the loaded program.
// The allocator never hands out addresses below this boundary.
const ReservedSize = 0x10000 // 64 KiB

// Memory is a flat, byte-addressable store with little-endian 32-bit word
// accessors. Every access is bounds-checked against Size.
type Memory struct {
	bytes []byte

	AccessCount uint64
	ReadCount   uint64
	WriteCount  uint64
}

// NewMemory allocates a zeroed arena of the given size.
func NewMemory(size uint32) *Memory {
	return &Memory{bytes: make([]byte, size)}
}

// Size returns the arena size in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.bytes))
}

// Reset zeroes the arena without reallocating it.
func (m *Memory) Reset() {
	for i := range m.bytes {
		m.bytes[i] = 0
	}
	m.AccessCount = 0
	m.ReadCount = 0
	m.WriteCount = 0
}

func (m *Memory) checkBounds(address uint32, length uint32) error {
	size := uint64(len(m.bytes))
	end := uint64(address) + uint64(length)
	if uint64(address) >= size || end > size {
		return newTrap(ErrMemoryViolation,
			fmt.Sprintf("memory violation: address 0x%08X (length %d) out of range [0, 0x%08X)", address, length, size))
	}
	return nil
}

// ReadByte reads a single byte at address.
func (m *Memory) ReadByte(address uint32) (byte, error) {
	if err := m.checkBounds(address, 1); err != nil {
		return 0, err
	}
	m.AccessCount++
	m.ReadCount++
	return m.bytes[address], nil
}

// WriteByte writes a single byte at address.
func (m *Memory) WriteByte(address uint32, value byte) error {
	if err := m.checkBounds(address, 1); err != nil {
		return err
	}
	m.AccessCount++
	m.WriteCount++
	m.bytes[address] = value
	return nil
}

// ReadWord reads a little-endian 32-bit word at address.
func (m *Memory) ReadWord(address uint32) (uint32, error) {
	if err := m.checkBounds(address, 4); err != nil {
		return 0, err
	}
	m.AccessCount++
	m.ReadCount++
	return binary.LittleEndian.Uint32(m.bytes[address : address+4]), nil
}

// WriteWord writes a little-endian 32-bit word at address.
func (m *Memory) WriteWord(address uint32, value uint32) error {
	if err := m.checkBounds(address, 4); err != nil {
		return err
	}
	m.AccessCount++
	m.WriteCount++
	binary.LittleEndian.PutUint32(m.bytes[address:address+4], value)
	return nil
}

// LoadBytes copies data into memory starting at address, with no relocation
// or header processing. Used to load assembled program binaries.
func (m *Memory) LoadBytes(address uint32, data []byte) error {
	if err := m.checkBounds(address, uint32(len(data))); err != nil {
		return err
	}
	copy(m.bytes[address:], data)
	return nil
}

// GetBytes returns a copy of length bytes starting at address.
func (m *Memory) GetBytes(address uint32, length uint32) ([]byte, error) {
	if err := m.checkBounds(address, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, m.bytes[address:address+length])
	return out, nil
}

// Snapshot returns a copy of the entire arena, used by `save` and by
// debugger state comparisons in tests.
func (m *Memory) Snapshot() []byte {
	out := make([]byte, len(m.bytes))
	copy(out, m.bytes)
	return out
}
