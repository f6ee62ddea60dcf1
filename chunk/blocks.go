package chunk

import (
	"fmt"
	"sort"
)

const (
	// SectionSize is the edge length of a section in blocks.
	SectionSize = 16
	// SectionVolume is the number of cells in one 16x16x16 section.
	SectionVolume = SectionSize * SectionSize * SectionSize
)

// Blocks is a vertically segmented 3D array of palette indices. Sections are
// 16x16x16 and keyed by section Y, which may be negative. Cells are laid out
// as y<<8 | z<<4 | x within a section. A missing section reads as all
// zeroes (the first palette entry).
type Blocks struct {
	sections map[int32][]uint32
}

// NewBlocks creates an empty block array.
func NewBlocks() *Blocks {
	return &Blocks{sections: make(map[int32][]uint32)}
}

// SectionYs returns the Y keys of all present sections, sorted ascending.
func (b *Blocks) SectionYs() []int32 {
	ys := make([]int32, 0, len(b.sections))
	for sy := range b.sections {
		ys = append(ys, sy)
	}
	sort.Slice(ys, func(i, j int) bool { return ys[i] < ys[j] })
	return ys
}

// Section returns the raw index array of a section, or nil if the section is
// not present. The returned slice aliases chunk state.
func (b *Blocks) Section(sy int32) []uint32 {
	return b.sections[sy]
}

// SetSection replaces a section's index array. The array must hold exactly
// SectionVolume entries.
func (b *Blocks) SetSection(sy int32, data []uint32) error {
	if len(data) != SectionVolume {
		return fmt.Errorf("section %d: expected %d cells, got %d", sy, SectionVolume, len(data))
	}
	if b.sections == nil {
		b.sections = make(map[int32][]uint32)
	}
	b.sections[sy] = data
	return nil
}

// At returns the palette index at a chunk-local x/z and absolute y. Reads
// from absent sections return 0.
func (b *Blocks) At(x int, y int, z int) uint32 {
	sy := int32(FloorDiv(y, SectionSize))
	sec := b.sections[sy]
	if sec == nil {
		return 0
	}
	return sec[cellIndex(x, FloorMod(y, SectionSize), z)]
}

// Set writes the palette index at a chunk-local x/z and absolute y,
// materialising the section if needed.
func (b *Blocks) Set(x int, y int, z int, idx uint32) {
	sy := int32(FloorDiv(y, SectionSize))
	sec := b.sections[sy]
	if sec == nil {
		sec = make([]uint32, SectionVolume)
		if b.sections == nil {
			b.sections = make(map[int32][]uint32)
		}
		b.sections[sy] = sec
	}
	sec[cellIndex(x, FloorMod(y, SectionSize), z)] = idx
}

// cellIndex packs local coordinates into a section array offset.
func cellIndex(x, y, z int) int {
	return y<<8 | z<<4 | x
}

// CellCoords unpacks a section array offset back into local coordinates.
func CellCoords(i int) (x, y, z int) {
	return i & 0xF, (i >> 8) & 0xF, (i >> 4) & 0xF
}

// FloorDiv divides rounding towards negative infinity, matching how
// absolute coordinates map onto section and chunk coordinates when
// negative.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod is the remainder paired with FloorDiv; always in [0,b).
func FloorMod(a, b int) int {
	m := a % b
	if m != 0 && ((a < 0) != (b < 0)) {
		m += b
	}
	return m
}
