package block

import "fmt"

// Palette is an ordered sequence of distinct block values. A chunk's block
// array stores small integer indices into a palette, never block values
// directly.
type Palette []*Block

// Len returns the number of entries in the palette.
func (p Palette) Len() int { return len(p) }

// Block returns the block value at the given palette index.
func (p Palette) Block(i int) (*Block, error) {
	if i < 0 || i >= len(p) {
		return nil, fmt.Errorf("palette index %d out of range [0,%d)", i, len(p))
	}
	return p[i], nil
}

// PaletteManager is a deduplicating, order-stable table mapping block values
// to small integer indices. It is append-only: indices never change once
// assigned, and structurally equal blocks always map to the same index.
type PaletteManager struct {
	index  map[string]uint32
	blocks Palette
}

// NewPaletteManager creates an empty palette manager.
func NewPaletteManager() *PaletteManager {
	return &PaletteManager{index: make(map[string]uint32)}
}

// GetOrAdd returns the index of the given block, appending it with the next
// sequential index if it has not been seen before.
func (m *PaletteManager) GetOrAdd(b *Block) uint32 {
	if i, ok := m.index[b.key]; ok {
		return i
	}
	i := uint32(len(m.blocks))
	m.index[b.key] = i
	m.blocks = append(m.blocks, b)
	return i
}

// Contains reports whether a structurally equal block has been registered.
func (m *PaletteManager) Contains(b *Block) bool {
	_, ok := m.index[b.key]
	return ok
}

// Len returns the number of distinct blocks registered.
func (m *PaletteManager) Len() int { return len(m.blocks) }

// At returns the block registered at the given index.
func (m *PaletteManager) At(i uint32) (*Block, error) {
	return m.blocks.Block(int(i))
}

// Blocks returns the registered blocks in first-insertion order. The
// returned palette is a copy and stays valid if the manager grows.
func (m *PaletteManager) Blocks() Palette {
	out := make(Palette, len(m.blocks))
	copy(out, m.blocks)
	return out
}
