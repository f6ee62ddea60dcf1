// Package translate implements the chunk translation engine: the two-pass,
// context-aware rewrite of a chunk's block palette and block array between a
// version-specific encoding and the universal representation, together with
// the direction adapters binding the engine to a version's rules.
package translate

import (
	"fmt"

	"github.com/dannythehacker/Amulet-Core/block"
	"github.com/dannythehacker/Amulet-Core/version"
)

// PaletteView is read access to an ordered block palette. It is the single
// boundary at which version-specific palette encodings that wrap the true
// block value in an extra layer are unwrapped; the engine and the resolver
// only ever see plain blocks.
type PaletteView interface {
	Len() int
	Block(i int) (*block.Block, error)
}

// PackedEntry is one entry of a version-specific palette encoding that pairs
// each block value with the game version it was written by.
type PackedEntry struct {
	Version version.Number
	Block   *block.Block
}

// PackedPalette is a palette of version/block pairs. Its PaletteView
// implementation unwraps entries transparently.
type PackedPalette []PackedEntry

// Len returns the number of entries.
func (p PackedPalette) Len() int { return len(p) }

// Block returns the block value at an index, stripped of its version
// wrapper.
func (p PackedPalette) Block(i int) (*block.Block, error) {
	if i < 0 || i >= len(p) {
		return nil, fmt.Errorf("packed palette index %d out of range [0,%d)", i, len(p))
	}
	return p[i].Block, nil
}

// PackFunc converts a palette of block values into a version-specific
// encoded palette. The default is the identity.
type PackFunc func(v *version.Version, palette block.Palette) (PaletteView, error)

// UnpackFunc converts a version-specific encoded palette into plain block
// values. The default unwraps through PaletteView.
type UnpackFunc func(v *version.Version, palette PaletteView) (block.Palette, error)

func identityPack(_ *version.Version, palette block.Palette) (PaletteView, error) {
	return palette, nil
}

func identityUnpack(_ *version.Version, palette PaletteView) (block.Palette, error) {
	out := make(block.Palette, palette.Len())
	for i := range out {
		b, err := palette.Block(i)
		if err != nil {
			return nil, fmt.Errorf("unpack palette: %w", err)
		}
		out[i] = b
	}
	return out, nil
}
