package version

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dannythehacker/Amulet-Core/block"
)

const testRules = `
platform: java
number: [1, 20, 4]
blocks:
  to_universal:
    "minecraft:stone":
      name: "universal_minecraft:stone"
    "minecraft:oak_door":
      name: "universal_minecraft:oak_door"
      copy_properties: true
      needs_context: true
    "minecraft:chest":
      name: "universal_minecraft:chest"
      copy_properties: true
      block_entity: "universal_minecraft:chest"
    "minecraft:infested_stone":
      name: "universal_minecraft:stone"
      properties:
        infested: true
  from_universal:
    "universal_minecraft:stone":
      name: "minecraft:stone"
biomes:
  to_universal:
    1: 100
    2: 200
  from_universal:
    100: 1
    200: 2
block_entities:
  Chest: "minecraft:chest"
`

// TestLoadRuleSet verifies YAML parsing and the derived version key.
func TestLoadRuleSet(t *testing.T) {
	rs, err := LoadRuleSet(strings.NewReader(testRules))
	require.NoError(t, err)

	assert.Equal(t, Key{Platform: "java", Number: Number{1, 20, 4}}, rs.Key())
	assert.Equal(t, "java/1.20.4", rs.Key().String())
	assert.Len(t, rs.BlockRules.ToUniversal, 4)
}

// TestRuleSetBlocks verifies the table-driven block conversion semantics.
func TestRuleSetBlocks(t *testing.T) {
	rs, err := LoadRuleSet(strings.NewReader(testRules))
	require.NoError(t, err)
	v := rs.Version()

	// Plain rename.
	out, be, extra := v.Blocks.ToUniversal(block.New("minecraft", "stone", nil), nil)
	require.Equal(t, KindBlock, out.Kind)
	assert.Equal(t, "universal_minecraft:stone", out.Block.NamespacedName())
	assert.Nil(t, be)
	assert.False(t, extra)

	// copy_properties carries the input's properties over.
	door := block.New("minecraft", "oak_door", map[string]any{"half": "lower"})
	out, _, extra = v.Blocks.ToUniversal(door, nil)
	require.Equal(t, KindBlock, out.Kind)
	half, ok := out.Block.Property("half")
	require.True(t, ok)
	assert.Equal(t, "lower", half)
	assert.True(t, extra, "door rule declares it needs neighbour context")

	// Fixed property overrides.
	out, _, _ = v.Blocks.ToUniversal(block.New("minecraft", "infested_stone", nil), nil)
	require.Equal(t, KindBlock, out.Kind)
	infested, ok := out.Block.Property("infested")
	require.True(t, ok)
	assert.Equal(t, true, infested)

	// Block entity template.
	out, be, _ = v.Blocks.ToUniversal(block.New("minecraft", "chest", nil), nil)
	require.Equal(t, KindBlock, out.Kind)
	require.NotNil(t, be)
	assert.Equal(t, "universal_minecraft:chest", be.NamespacedName())

	// Unmatched blocks translate to nothing.
	out, _, _ = v.Blocks.ToUniversal(block.New("minecraft", "unmapped", nil), nil)
	assert.Equal(t, KindNone, out.Kind)

	out, _, _ = v.Blocks.FromUniversal(block.New("universal_minecraft", "stone", nil), nil)
	require.Equal(t, KindBlock, out.Kind)
	assert.Equal(t, "minecraft:stone", out.Block.NamespacedName())
}

// TestRuleSetBiomes verifies biome mapping with passthrough on misses.
func TestRuleSetBiomes(t *testing.T) {
	rs, err := LoadRuleSet(strings.NewReader(testRules))
	require.NoError(t, err)
	v := rs.Version()

	assert.Equal(t, uint32(100), v.Biomes.ToUniversal(1))
	assert.Equal(t, uint32(1), v.Biomes.FromUniversal(100))
	assert.Equal(t, uint32(42), v.Biomes.ToUniversal(42), "unmapped ids pass through")
}

// TestRuleSetBlockEntityMaps verifies the name map and its inverse.
func TestRuleSetBlockEntityMaps(t *testing.T) {
	rs, err := LoadRuleSet(strings.NewReader(testRules))
	require.NoError(t, err)
	v := rs.Version()

	assert.Equal(t, "minecraft:chest", v.BlockEntityMap["Chest"])
	assert.Equal(t, "Chest", v.BlockEntityMapInverse["minecraft:chest"])
}

// TestManager verifies registration and typed lookup failures.
func TestManager(t *testing.T) {
	m := NewManager()
	key := Key{Platform: "java", Number: Number{1, 20, 4}}
	v := &Version{}
	m.Register(key, v)

	got, err := m.Get(key)
	require.NoError(t, err)
	assert.Same(t, v, got)

	missing := Key{Platform: "bedrock", Number: Number{1, 21, 0}}
	_, err = m.Get(missing)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownVersion)

	var uve *UnknownVersionError
	require.True(t, errors.As(err, &uve))
	assert.Equal(t, missing, uve.Key)
}

// TestLoadRuleSetBadYAML verifies parse failures surface as errors.
func TestLoadRuleSetBadYAML(t *testing.T) {
	_, err := LoadRuleSet(strings.NewReader("platform: [not a string"))
	assert.Error(t, err)
}
