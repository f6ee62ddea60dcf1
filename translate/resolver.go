package translate

import (
	"errors"
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dannythehacker/Amulet-Core/block"
	"github.com/dannythehacker/Amulet-Core/chunk"
	"github.com/dannythehacker/Amulet-Core/version"
)

// GetChunkFunc loads a chunk and its palette by absolute chunk coordinates.
// It is called lazily, only when a block's translation rule needs neighbour
// context that falls outside the chunk being translated. It may block on
// I/O, must be safe to call from concurrent translations of distinct
// chunks, and must never return a chunk that is itself mid-translation;
// return stored (pre-translation) data instead.
type GetChunkFunc func(cx, cz int32) (*chunk.Chunk, PaletteView, error)

// errNoLoader is returned when a rule asks for a neighbour outside the
// chunk and no loader was supplied.
var errNoLoader = errors.New("no chunk loader for cross-chunk resolution")

// blockResolver constructs the version.GetBlockFunc bound to one position
// of the chunk being translated. x/z are chunk-local, y is absolute.
// In-chunk lookups read the chunk's pre-commit block array, which still
// holds the untranslated state; out-of-chunk lookups go through getChunk.
func blockResolver(c *chunk.Chunk, palette PaletteView, getChunk GetChunkFunc, x, y, z int) version.GetBlockFunc {
	return func(dx, dy, dz int) (*block.Block, *chunk.BlockEntity, error) {
		lx, ly, lz := x+dx, y+dy, z+dz
		abs := cube.Pos{lx + int(c.Cx)*16, ly, lz + int(c.Cz)*16}

		rcx, rcz := chunk.FloorDiv(lx, 16), chunk.FloorDiv(lz, 16)
		if rcx == 0 && rcz == 0 {
			b, err := palette.Block(int(c.Blocks.At(lx, ly, lz)))
			if err != nil {
				return nil, nil, fmt.Errorf("resolve %v: %w: %v", abs, chunk.ErrMalformed, err)
			}
			be, _ := c.BlockEntity(abs)
			return b, be, nil
		}

		if getChunk == nil {
			return nil, nil, errNoLoader
		}
		ocx, ocz := c.Cx+int32(rcx), c.Cz+int32(rcz)
		oc, opal, err := getChunk(ocx, ocz)
		if err != nil {
			return nil, nil, fmt.Errorf("load chunk (%d,%d): %w", ocx, ocz, err)
		}
		b, err := opal.Block(int(oc.Blocks.At(chunk.FloorMod(lx, 16), ly, chunk.FloorMod(lz, 16))))
		if err != nil {
			return nil, nil, fmt.Errorf("resolve %v in chunk (%d,%d): %w: %v", abs, ocx, ocz, chunk.ErrMalformed, err)
		}
		be, _ := oc.BlockEntity(abs)
		return b, be, nil
	}
}
