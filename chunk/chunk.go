package chunk

import (
	"errors"

	"github.com/df-mc/dragonfly/server/block/cube"
)

// ErrMalformed is wrapped by errors caused by inconsistent chunk data, such
// as a block array referencing indices outside its palette. It is distinct
// from version lookup failures so callers can tell bad data from a missing
// translator.
var ErrMalformed = errors.New("malformed chunk data")

// Chunk is a 16x16 column of a world: a vertically sectioned array of
// palette indices, block entities keyed by absolute world position, a list
// of entities and a biome id array. A chunk is exclusively owned by its
// caller for the duration of a translation call and is mutated in place.
type Chunk struct {
	Cx, Cz int32

	// Blocks holds palette indices, segmented into 16x16x16 sections keyed
	// by section Y.
	Blocks *Blocks

	// BlockEntities maps absolute world coordinates to block entity data.
	// Positions are never chunk-local.
	BlockEntities map[cube.Pos]*BlockEntity

	// Entities are the entities attached to this chunk.
	Entities []*Entity

	// Biomes is the chunk's biome id array. The translation engine is
	// agnostic of its shape; versions define how it maps onto the column.
	Biomes []uint32
}

// New creates an empty chunk at the given chunk coordinates.
func New(cx, cz int32) *Chunk {
	return &Chunk{
		Cx:            cx,
		Cz:            cz,
		Blocks:        NewBlocks(),
		BlockEntities: make(map[cube.Pos]*BlockEntity),
	}
}

// SetBlockEntity stores a block entity at its own (absolute) position.
func (c *Chunk) SetBlockEntity(be *BlockEntity) {
	if c.BlockEntities == nil {
		c.BlockEntities = make(map[cube.Pos]*BlockEntity)
	}
	c.BlockEntities[be.Pos] = be
}

// BlockEntity returns the block entity at an absolute position, if any.
func (c *Chunk) BlockEntity(pos cube.Pos) (*BlockEntity, bool) {
	be, ok := c.BlockEntities[pos]
	return be, ok
}
