package translate

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dannythehacker/Amulet-Core/block"
	"github.com/dannythehacker/Amulet-Core/chunk"
	"github.com/dannythehacker/Amulet-Core/version"
)

// Translator binds the translation engine to a version manager. A
// Translator is immutable after construction and safe to share across
// concurrent translation calls, provided each chunk is exclusively owned by
// one call at a time.
type Translator struct {
	manager *version.Manager
	log     *slog.Logger

	// entities is the entity-translation capability. It is explicit
	// per-translator configuration, not process state.
	entities bool

	// unresolvedUniversal and unresolvedVersion are the placeholder blocks
	// substituted when a rule yields nothing, per direction.
	unresolvedUniversal *block.Block
	unresolvedVersion   *block.Block

	pack   PackFunc
	unpack UnpackFunc
}

// Option configures a Translator.
type Option func(*Translator)

// WithLogger sets the logger used for translation diagnostics. Diagnostic
// mismatches log at Debug and never fail the call.
func WithLogger(l *slog.Logger) Option {
	return func(t *Translator) { t.log = l }
}

// WithEntitySupport enables or disables the entity translation pass.
func WithEntitySupport(on bool) Option {
	return func(t *Translator) { t.entities = on }
}

// WithUnresolvedBlocks overrides the placeholder blocks substituted for
// cells whose translation yields nothing: universal is used by ToUniversal,
// versioned by FromUniversal.
func WithUnresolvedBlocks(universal, versioned *block.Block) Option {
	return func(t *Translator) {
		t.unresolvedUniversal = universal
		t.unresolvedVersion = versioned
	}
}

// WithPacker sets the per-format palette packing hook applied by
// FromUniversal and Pack.
func WithPacker(pack PackFunc) Option {
	return func(t *Translator) { t.pack = pack }
}

// WithUnpacker sets the per-format palette unpacking hook applied by
// Unpack.
func WithUnpacker(unpack UnpackFunc) Option {
	return func(t *Translator) { t.unpack = unpack }
}

// New creates a Translator over the given version manager.
func New(m *version.Manager, opts ...Option) *Translator {
	t := &Translator{
		manager:             m,
		log:                 slog.New(slog.NewTextHandler(io.Discard, nil)),
		unresolvedUniversal: block.UniversalAir(),
		unresolvedVersion:   block.Air(),
		pack:                identityPack,
		unpack:              identityUnpack,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ToUniversal translates a version-specific chunk into the universal
// representation. The chunk is mutated in place and returned together with
// the canonical output palette. getChunk may be nil, in which case
// context-dependent rules resolve without neighbour data. When full is
// false the block array is left untouched and only biomes and block entity
// names are remapped.
func (t *Translator) ToUniversal(key version.Key, c *chunk.Chunk, palette block.Palette,
	getChunk GetChunkFunc, full bool) (*chunk.Chunk, block.Palette, error) {

	v, err := t.manager.Get(key)
	if err != nil {
		return nil, nil, fmt.Errorf("to universal: %w", err)
	}

	if v.Biomes != nil {
		c.Biomes = remapBiomes(c.Biomes, v.Biomes.ToUniversal)
	}
	t.mapBlockEntityNames(c, v.BlockEntityMap, false)

	translateBlock := t.layeredBlockFunc(v.Blocks.ToUniversal, true)
	return t.translate(c, palette, getChunk, translateBlock, identityEntityFunc, full, t.unresolvedUniversal)
}

// FromUniversal translates a universal chunk into a version-specific
// representation, re-packing the output palette through the configured
// packing hook.
func (t *Translator) FromUniversal(key version.Key, c *chunk.Chunk, palette block.Palette,
	getChunk GetChunkFunc, full bool) (*chunk.Chunk, PaletteView, error) {

	v, err := t.manager.Get(key)
	if err != nil {
		return nil, nil, fmt.Errorf("from universal: %w", err)
	}

	translateBlock := t.layeredBlockFunc(v.Blocks.FromUniversal, false)
	c, outPalette, err := t.translate(c, palette, getChunk, translateBlock, identityEntityFunc, full, t.unresolvedVersion)
	if err != nil {
		return nil, nil, err
	}

	packed, err := t.pack(v, outPalette)
	if err != nil {
		return nil, nil, fmt.Errorf("pack palette: %w", err)
	}

	if v.Biomes != nil {
		c.Biomes = remapBiomes(c.Biomes, v.Biomes.FromUniversal)
	}
	t.mapBlockEntityNames(c, v.BlockEntityMapInverse, true)
	return c, packed, nil
}

// Unpack converts a version-specific encoded palette into plain block
// values without touching the block array or entities. Used when a
// neighbouring chunk's palette must be interpreted during the
// context-sensitive pass without retranslating that neighbour.
func (t *Translator) Unpack(key version.Key, c *chunk.Chunk, palette PaletteView) (*chunk.Chunk, block.Palette, error) {
	v, err := t.manager.Get(key)
	if err != nil {
		return nil, nil, fmt.Errorf("unpack: %w", err)
	}
	out, err := t.unpack(v, palette)
	if err != nil {
		return nil, nil, err
	}
	return c, out, nil
}

// Pack converts a palette of block values into the version-specific encoded
// form without touching the block array or entities.
func (t *Translator) Pack(key version.Key, c *chunk.Chunk, palette block.Palette) (*chunk.Chunk, PaletteView, error) {
	v, err := t.manager.Get(key)
	if err != nil {
		return nil, nil, fmt.Errorf("pack: %w", err)
	}
	out, err := t.pack(v, palette)
	if err != nil {
		return nil, nil, err
	}
	return c, out, nil
}

// layeredBlockFunc builds the engine's per-block callback: the base layer
// and every extra layer of a composite block run through the version rule
// in order, and block results merge onto an accumulator. Only the base
// layer may contribute the block entity; the needs-context flag is the OR
// across layers.
func (t *Translator) layeredBlockFunc(rule func(*block.Block, version.GetBlockFunc) (version.Output, *chunk.BlockEntity, bool), toUniversal bool) translateBlockFunc {
	return func(input *block.Block, get version.GetBlockFunc) (blockResult, error) {
		var res blockResult
		for depth, layer := range input.Layers() {
			out, be, extra := rule(layer, get)

			switch out.Kind {
			case version.KindBlock:
				universal := strings.HasPrefix(out.Block.Namespace(), "universal")
				if toUniversal && !universal {
					t.log.Debug("translation result is not universal",
						"input", input.Blockstate(), "output", out.Block.Blockstate())
				} else if !toUniversal && universal {
					t.log.Debug("translation result is still universal",
						"input", input.Blockstate(), "output", out.Block.Blockstate())
				}
				if res.block == nil {
					res.block = out.Block
				} else {
					res.block = res.block.Merge(out.Block)
				}
				if depth == 0 {
					res.blockEntity = be
				}
			case version.KindEntity:
				res.entities = append(res.entities, out.Entity)
			}

			res.extra = res.extra || extra
		}
		return res, nil
	}
}

// identityEntityFunc passes entities through unchanged. Per-version entity
// rules are not defined yet; identity keeps entities intact when the entity
// pass is enabled.
func identityEntityFunc(e *chunk.Entity) (entityResult, error) {
	return entityResult{entities: []*chunk.Entity{e}}, nil
}

// mapBlockEntityNames applies a version's block entity name map. Misses are
// diagnostic only: the raw name is kept and processing continues.
func (t *Translator) mapBlockEntityNames(c *chunk.Chunk, names map[string]string, inverse bool) {
	if names == nil {
		return
	}
	for _, be := range c.BlockEntities {
		if inverse {
			if raw, ok := names[be.NamespacedName()]; ok {
				be.SetNamespacedName(raw)
			} else {
				t.log.Debug("no raw name for block entity", "name", be.NamespacedName())
			}
			continue
		}
		if be.Namespace != "" {
			continue
		}
		if pretty, ok := names[be.BaseName]; ok {
			be.SetNamespacedName(pretty)
		} else {
			t.log.Debug("no pretty name for block entity", "name", be.NamespacedName())
		}
	}
}
