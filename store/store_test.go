package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dannythehacker/Amulet-Core/block"
	"github.com/dannythehacker/Amulet-Core/chunk"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// TestStorePutLoad verifies the basic persistence round trip.
func TestStorePutLoad(t *testing.T) {
	s := openTestStore(t)

	c, palette := testChunk()
	require.NoError(t, s.Put(c, palette))

	got, gotPalette, err := s.Load(2, -1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), got.Cx)
	assert.Equal(t, int32(-1), got.Cz)
	assert.Equal(t, uint32(2), got.Blocks.At(15, 70, 15))
	require.Equal(t, len(palette), gotPalette.Len())

	// A second load serves the cached chunk.
	again, _, err := s.Load(2, -1)
	require.NoError(t, err)
	assert.Same(t, got, again)
}

// TestStoreLoadMissing verifies the typed miss.
func TestStoreLoadMissing(t *testing.T) {
	s := openTestStore(t)
	_, _, err := s.Load(9, 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestStorePutInvalidatesCache verifies that overwriting a chunk evicts the
// cached copy.
func TestStorePutInvalidatesCache(t *testing.T) {
	s := openTestStore(t)

	c := chunk.New(0, 0)
	c.Blocks.Set(0, 0, 0, 1)
	palette := block.Palette{
		block.New("minecraft", "air", nil),
		block.New("minecraft", "stone", nil),
	}
	require.NoError(t, s.Put(c, palette))
	_, _, err := s.Load(0, 0)
	require.NoError(t, err)

	c2 := chunk.New(0, 0)
	c2.Blocks.Set(0, 0, 0, 1)
	palette2 := block.Palette{
		block.New("minecraft", "air", nil),
		block.New("minecraft", "dirt", nil),
	}
	require.NoError(t, s.Put(c2, palette2))

	_, gotPalette, err := s.Load(0, 0)
	require.NoError(t, err)
	b, err := gotPalette.Block(1)
	require.NoError(t, err)
	assert.Equal(t, "minecraft:dirt", b.NamespacedName())
}

// TestStoreLoader verifies the translation-facing loader callback,
// including negative coordinates that collide under naive key packing.
func TestStoreLoader(t *testing.T) {
	s := openTestStore(t)

	for _, coords := range [][2]int32{{0, 0}, {-1, 0}, {0, -1}, {-1, -1}, {1, 1}} {
		c := chunk.New(coords[0], coords[1])
		c.Blocks.Set(0, 0, 0, 0)
		require.NoError(t, s.Put(c, block.Palette{block.New("minecraft", "air", nil)}))
	}

	loader := s.Loader()
	for _, coords := range [][2]int32{{0, 0}, {-1, 0}, {0, -1}, {-1, -1}, {1, 1}} {
		c, palette, err := loader(coords[0], coords[1])
		require.NoError(t, err)
		assert.Equal(t, coords[0], c.Cx)
		assert.Equal(t, coords[1], c.Cz)
		assert.Equal(t, 1, palette.Len())
	}

	_, _, err := loader(5, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestStoreEach verifies whole-store iteration and early termination.
func TestStoreEach(t *testing.T) {
	s := openTestStore(t)

	palette := block.Palette{block.New("minecraft", "air", nil)}
	for x := int32(0); x < 4; x++ {
		c := chunk.New(x, 0)
		c.Blocks.Set(0, 0, 0, 0)
		require.NoError(t, s.Put(c, palette))
	}

	seen := 0
	require.NoError(t, s.Each(func(c *chunk.Chunk, p block.Palette) error {
		seen++
		return nil
	}))
	assert.Equal(t, 4, seen)

	seen = 0
	err := s.Each(func(c *chunk.Chunk, p block.Palette) error {
		seen++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, seen)
}
