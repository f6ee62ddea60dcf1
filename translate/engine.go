package translate

import (
	"fmt"
	"math"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/dannythehacker/Amulet-Core/block"
	"github.com/dannythehacker/Amulet-Core/chunk"
	"github.com/dannythehacker/Amulet-Core/version"
)

// blockResult is the combined outcome of translating one (possibly
// composite) block through a direction's rules.
type blockResult struct {
	block       *block.Block
	blockEntity *chunk.BlockEntity
	entities    []*chunk.Entity
	extra       bool
}

// translateBlockFunc is the per-block callback bound by a direction
// adapter. get is nil during the context-free pass.
type translateBlockFunc func(b *block.Block, get version.GetBlockFunc) (blockResult, error)

// entityResult is the outcome of translating one entity.
type entityResult struct {
	block       *block.Block
	blockEntity *chunk.BlockEntity
	entities    []*chunk.Entity
}

// translateEntityFunc is the per-entity callback bound by a direction
// adapter.
type translateEntityFunc func(e *chunk.Entity) (entityResult, error)

// translate runs the two-pass palette/array rewrite and reassembles the
// chunk. Phase 1 translates each distinct palette entry once, context-free;
// entries whose rule needs neighbour context are deferred to phase 2, which
// retranslates them per position with a resolver bound to that position.
// All mutations are staged and applied in one commit at the end, so the
// chunk's own arrays read as pre-translation state throughout.
func (t *Translator) translate(c *chunk.Chunk, palette block.Palette, getChunk GetChunkFunc,
	translateBlock translateBlockFunc, translateEntity translateEntityFunc,
	full bool, unresolved *block.Block) (*chunk.Chunk, block.Palette, error) {

	if !full {
		return c, palette, nil
	}

	if err := validateIndices(c, len(palette)); err != nil {
		return nil, nil, err
	}

	finished := block.NewPaletteManager()
	paletteMappings := make(map[uint32]uint32, len(palette))
	var todo []uint32
	var outBlockEntities []*chunk.BlockEntity
	var outEntities []*chunk.Entity

	// Phase 1: context-free, once per distinct palette entry.
	for i, input := range palette {
		idx := uint32(i)
		res, err := translateBlock(input, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("translate palette entry %d: %w", i, err)
		}

		switch {
		case res.extra && getChunk != nil:
			todo = append(todo, idx)
		case res.block != nil:
			paletteMappings[idx] = finished.GetOrAdd(res.block)
			if res.blockEntity != nil {
				forEachOccurrence(c, idx, func(pos cube.Pos) {
					outBlockEntities = append(outBlockEntities, res.blockEntity.NewAtLocation(pos))
				})
			}
		default:
			// Unresolved palette entry: named placeholder policy.
			paletteMappings[idx] = finished.GetOrAdd(unresolved)
		}

		if t.entities && len(res.entities) > 0 {
			forEachOccurrence(c, idx, func(pos cube.Pos) {
				for _, e := range res.entities {
					clone := e.Clone()
					clone.Position = clone.Position.Add(mgl64.Vec3{float64(pos.X()), float64(pos.Y()), float64(pos.Z())})
					outEntities = append(outEntities, clone)
				}
			})
		}
	}

	// Phase 2: context-sensitive, per position. Outcomes may legitimately
	// differ between positions sharing an input index, so these are
	// recorded per position rather than palette-wide.
	blockMappings := make(map[cube.Pos]uint32)
	for _, idx := range todo {
		input := palette[idx]
		var perr error
		forEachOccurrenceLocal(c, idx, func(x, y, z int) {
			if perr != nil {
				return
			}
			get := blockResolver(c, palette, getChunk, x, y, z)
			res, err := translateBlock(input, get)
			if err != nil {
				perr = fmt.Errorf("translate %s at (%d,%d,%d): %w", input.Blockstate(), x, y, z, err)
				return
			}
			abs := cube.Pos{x + int(c.Cx)*16, y, z + int(c.Cz)*16}
			if res.block != nil {
				blockMappings[abs] = finished.GetOrAdd(res.block)
				if res.blockEntity != nil {
					outBlockEntities = append(outBlockEntities, res.blockEntity.NewAtLocation(abs))
				}
			} else {
				blockMappings[abs] = finished.GetOrAdd(unresolved)
			}
			if t.entities {
				for _, e := range res.entities {
					clone := e.Clone()
					clone.Position = clone.Position.Add(mgl64.Vec3{float64(abs.X()), float64(abs.Y()), float64(abs.Z())})
					outEntities = append(outEntities, clone)
				}
			}
		})
		if perr != nil {
			return nil, nil, perr
		}
	}

	// Entity pass, gated by the translator's entity capability.
	if t.entities && translateEntity != nil {
		for _, e := range c.Entities {
			res, err := translateEntity(e)
			if err != nil {
				return nil, nil, fmt.Errorf("translate entity %s: %w", e.NamespacedName(), err)
			}
			if res.block != nil {
				pos := cube.Pos{
					int(math.Floor(e.Position.X())),
					int(math.Floor(e.Position.Y())),
					int(math.Floor(e.Position.Z())),
				}
				blockMappings[pos] = finished.GetOrAdd(res.block)
				if res.blockEntity != nil {
					outBlockEntities = append(outBlockEntities, res.blockEntity.NewAtLocation(pos))
				}
			}
			for _, oe := range res.entities {
				oe.Position = e.Position
				outEntities = append(outEntities, oe)
			}
		}
	}

	// Commit: one vectorised palette-wide remap per section, then the
	// per-position overrides, then wholesale collection replacement.
	lut := make([]uint32, len(palette))
	for old, mapped := range paletteMappings {
		lut[old] = mapped
	}
	for _, sy := range c.Blocks.SectionYs() {
		sec := c.Blocks.Section(sy)
		for ci, v := range sec {
			sec[ci] = lut[v]
		}
	}
	for pos, mapped := range blockMappings {
		c.Blocks.Set(pos.X()-int(c.Cx)*16, pos.Y(), pos.Z()-int(c.Cz)*16, mapped)
	}

	c.BlockEntities = make(map[cube.Pos]*chunk.BlockEntity, len(outBlockEntities))
	for _, be := range outBlockEntities {
		c.BlockEntities[be.Pos] = be
	}
	if t.entities {
		// Without entity support the existing entity list is left alone.
		c.Entities = outEntities
	}

	return c, finished.Blocks(), nil
}

// validateIndices checks that every cell indexes into the palette. Caller
// data failing this is malformed and the engine refuses to mutate it.
func validateIndices(c *chunk.Chunk, paletteLen int) error {
	for _, sy := range c.Blocks.SectionYs() {
		for _, v := range c.Blocks.Section(sy) {
			if int(v) >= paletteLen {
				return fmt.Errorf("section %d references palette index %d of %d: %w",
					sy, v, paletteLen, chunk.ErrMalformed)
			}
		}
	}
	return nil
}

// forEachOccurrence calls fn with the absolute world position of every cell
// currently holding the given palette index, scanning all sections.
func forEachOccurrence(c *chunk.Chunk, idx uint32, fn func(pos cube.Pos)) {
	forEachOccurrenceLocal(c, idx, func(x, y, z int) {
		fn(cube.Pos{x + int(c.Cx)*16, y, z + int(c.Cz)*16})
	})
}

// forEachOccurrenceLocal is forEachOccurrence in chunk-local x/z and
// absolute y.
func forEachOccurrenceLocal(c *chunk.Chunk, idx uint32, fn func(x, y, z int)) {
	for _, sy := range c.Blocks.SectionYs() {
		sec := c.Blocks.Section(sy)
		baseY := int(sy) * chunk.SectionSize
		for ci, v := range sec {
			if v != idx {
				continue
			}
			x, y, z := chunk.CellCoords(ci)
			fn(x, baseY+y, z)
		}
	}
}
