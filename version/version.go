// Package version defines the boundary to the per-version translation rule
// tables: how an individual block, biome or entity value maps to and from
// the universal representation. The translation engine consumes these
// interfaces; it never interprets rules itself.
package version

import (
	"fmt"

	"github.com/dannythehacker/Amulet-Core/block"
	"github.com/dannythehacker/Amulet-Core/chunk"
)

// Number is a version number. Editions with a single integer data version
// store it in the first element and leave the rest zero.
type Number [3]int

// String implements fmt.Stringer.
func (n Number) String() string {
	return fmt.Sprintf("%d.%d.%d", n[0], n[1], n[2])
}

// Key identifies one version's rule set: a platform namespace such as
// "java" or "bedrock" and a version number.
type Key struct {
	Platform string
	Number   Number
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return k.Platform + "/" + k.Number.String()
}

// Kind discriminates the three possible outcomes of a translation rule.
type Kind uint8

const (
	// KindNone means the rule produced nothing; the affected cells fall
	// back to the engine's unresolved placeholder policy.
	KindNone Kind = iota
	// KindBlock means the rule produced a block.
	KindBlock
	// KindEntity means the rule produced an entity.
	KindEntity
)

// Output is the tagged result of a single translation rule: exactly one of
// a block, an entity, or nothing.
type Output struct {
	Kind   Kind
	Block  *block.Block
	Entity *chunk.Entity
}

// BlockOutput wraps a block result.
func BlockOutput(b *block.Block) Output { return Output{Kind: KindBlock, Block: b} }

// EntityOutput wraps an entity result.
func EntityOutput(e *chunk.Entity) Output { return Output{Kind: KindEntity, Entity: e} }

// NoOutput is the empty result.
func NoOutput() Output { return Output{Kind: KindNone} }

// GetBlockFunc resolves a block (and any block entity) at an offset relative
// to the block currently being translated. Rules receive it only when they
// have reported that they need neighbour context; it may be nil otherwise.
type GetBlockFunc func(dx, dy, dz int) (*block.Block, *chunk.BlockEntity, error)

// BlockConverter translates a single block layer between a version's
// representation and the universal one. The boolean return reports that the
// rule needs neighbour context to resolve fully; when it is true and get was
// nil, the other returns are provisional.
type BlockConverter interface {
	ToUniversal(b *block.Block, get GetBlockFunc) (Output, *chunk.BlockEntity, bool)
	FromUniversal(b *block.Block, get GetBlockFunc) (Output, *chunk.BlockEntity, bool)
}

// BiomeConverter translates a single biome id between a version's numbering
// and the universal one.
type BiomeConverter interface {
	ToUniversal(id uint32) uint32
	FromUniversal(id uint32) uint32
}

// Version exposes one version's translation rules. A Version is looked up
// once per translation call and must be immutable for the duration of the
// call; it may be shared across concurrent translations.
type Version struct {
	Blocks BlockConverter

	// Biomes may be nil, which leaves biome arrays untouched.
	Biomes BiomeConverter

	// BlockEntityMap maps raw block entity base names to namespaced names
	// and BlockEntityMapInverse is its inverse. Either may be nil, which
	// disables name remapping in that direction.
	BlockEntityMap        map[string]string
	BlockEntityMapInverse map[string]string
}
