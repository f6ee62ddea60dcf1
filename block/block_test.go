package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBlockEqual verifies structural equality over names, properties and
// extra layers.
func TestBlockEqual(t *testing.T) {
	a := New("minecraft", "stone", nil)
	b := New("minecraft", "stone", nil)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(New("minecraft", "dirt", nil)))
	assert.False(t, a.Equal(New("universal_minecraft", "stone", nil)))

	withProps := New("minecraft", "oak_door", map[string]any{"half": "lower", "open": false})
	sameProps := New("minecraft", "oak_door", map[string]any{"open": false, "half": "lower"})
	assert.True(t, withProps.Equal(sameProps))
	assert.False(t, withProps.Equal(New("minecraft", "oak_door", map[string]any{"half": "upper", "open": false})))
}

// TestBlockEqualIntegerWidths verifies that integer properties sourced from
// different decoders compare equal regardless of their original Go type.
func TestBlockEqualIntegerWidths(t *testing.T) {
	a := New("minecraft", "cake", map[string]any{"bites": int(3)})
	b := New("minecraft", "cake", map[string]any{"bites": int32(3)})
	c := New("minecraft", "cake", map[string]any{"bites": int64(3)})
	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(c))

	// The string "3" and the integer 3 stay distinct.
	s := New("minecraft", "cake", map[string]any{"bites": "3"})
	assert.False(t, a.Equal(s))
}

// TestBlockPropertiesCopied verifies that a block never aliases the
// caller's property map.
func TestBlockPropertiesCopied(t *testing.T) {
	props := map[string]any{"axis": "y"}
	b := New("minecraft", "oak_log", props)
	props["axis"] = "x"

	v, ok := b.Property("axis")
	require.True(t, ok)
	assert.Equal(t, "y", v)

	out := b.Properties()
	out["axis"] = "z"
	v, _ = b.Property("axis")
	assert.Equal(t, "y", v)
}

// TestBlockMerge verifies composite layering: the receiver's base stays the
// base and the other block's full layer stack is appended.
func TestBlockMerge(t *testing.T) {
	door := New("universal_minecraft", "oak_door", map[string]any{"half": "lower"})
	water := New("universal_minecraft", "water", map[string]any{"level": int64(0)})

	merged := door.Merge(water)
	require.Len(t, merged.Layers(), 2)
	assert.True(t, merged.Base().Equal(door))
	assert.True(t, merged.Extra()[0].Equal(water))

	// Merging a composite appends all of its layers.
	snow := New("universal_minecraft", "snow", nil)
	triple := merged.Merge(snow)
	require.Len(t, triple.Layers(), 3)
	assert.True(t, triple.Extra()[1].Equal(snow))

	// Equality covers the layer stack.
	assert.False(t, merged.Equal(door))
	assert.True(t, merged.Equal(door.Merge(water)))
	assert.False(t, merged.Equal(water.Merge(door)))
}

// TestBlockNewFlattensExtras verifies that composite extras passed to New
// are flattened into a single ordered stack.
func TestBlockNewFlattensExtras(t *testing.T) {
	water := New("minecraft", "water", nil)
	snow := New("minecraft", "snow", nil)
	composite := water.Merge(snow)

	b := New("minecraft", "oak_fence", nil, composite)
	require.Len(t, b.Extra(), 2)
	assert.True(t, b.Extra()[0].Equal(water))
	assert.True(t, b.Extra()[1].Equal(snow))
}

// TestBlockstate verifies the rendered blockstate form.
func TestBlockstate(t *testing.T) {
	b := New("minecraft", "oak_door", map[string]any{"open": false, "half": "lower"})
	assert.Equal(t, "minecraft:oak_door[half=lower,open=false]", b.Blockstate())
	assert.Equal(t, "minecraft:air", New("minecraft", "air", nil).Blockstate())

	water := New("minecraft", "water", nil)
	assert.Equal(t, "minecraft:oak_door[half=lower,open=false]{minecraft:water}", b.Merge(water).Blockstate())
}

// TestPaletteManager verifies dedup and stable first-insertion indices.
func TestPaletteManager(t *testing.T) {
	m := NewPaletteManager()

	stone := New("minecraft", "stone", nil)
	dirt := New("minecraft", "dirt", nil)

	assert.Equal(t, uint32(0), m.GetOrAdd(stone))
	assert.Equal(t, uint32(1), m.GetOrAdd(dirt))

	// A structurally equal value maps to the existing index.
	assert.Equal(t, uint32(0), m.GetOrAdd(New("minecraft", "stone", nil)))
	assert.Equal(t, 2, m.Len())
	assert.True(t, m.Contains(stone))
	assert.False(t, m.Contains(New("minecraft", "gravel", nil)))

	got, err := m.At(1)
	require.NoError(t, err)
	assert.True(t, got.Equal(dirt))
	_, err = m.At(2)
	assert.Error(t, err)

	// Blocks returns a copy in insertion order that survives later growth.
	snapshot := m.Blocks()
	m.GetOrAdd(New("minecraft", "gravel", nil))
	require.Len(t, snapshot, 2)
	assert.True(t, snapshot[0].Equal(stone))
	assert.True(t, snapshot[1].Equal(dirt))
}

// TestPaletteBounds verifies palette index range errors.
func TestPaletteBounds(t *testing.T) {
	p := Palette{New("minecraft", "stone", nil)}
	_, err := p.Block(-1)
	assert.Error(t, err)
	_, err = p.Block(1)
	assert.Error(t, err)
	b, err := p.Block(0)
	require.NoError(t, err)
	assert.Equal(t, "minecraft:stone", b.NamespacedName())
}
