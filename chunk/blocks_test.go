package chunk

import (
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBlocksAtSet verifies reads and writes across section boundaries,
// including negative Y.
func TestBlocksAtSet(t *testing.T) {
	b := NewBlocks()

	assert.Equal(t, uint32(0), b.At(0, 0, 0), "absent sections read as zero")

	b.Set(3, 70, 12, 7)
	assert.Equal(t, uint32(7), b.At(3, 70, 12))
	assert.Equal(t, uint32(0), b.At(3, 69, 12))

	b.Set(15, -1, 15, 9)
	assert.Equal(t, uint32(9), b.At(15, -1, 15))
	assert.Equal(t, []int32{-1, 4}, b.SectionYs())
}

// TestBlocksSetSection verifies the section size contract.
func TestBlocksSetSection(t *testing.T) {
	b := NewBlocks()
	assert.Error(t, b.SetSection(0, make([]uint32, 10)))

	data := make([]uint32, SectionVolume)
	data[cellIndex(1, 2, 3)] = 5
	require.NoError(t, b.SetSection(0, data))
	assert.Equal(t, uint32(5), b.At(1, 2, 3))
}

// TestCellCoords verifies the cell layout round-trips.
func TestCellCoords(t *testing.T) {
	for _, c := range [][3]int{{0, 0, 0}, {15, 15, 15}, {1, 2, 3}, {15, 0, 7}} {
		x, y, z := CellCoords(cellIndex(c[0], c[1], c[2]))
		assert.Equal(t, c, [3]int{x, y, z})
	}
}

// TestFloorDivMod verifies flooring behaviour on negative coordinates.
func TestFloorDivMod(t *testing.T) {
	assert.Equal(t, 0, FloorDiv(15, 16))
	assert.Equal(t, -1, FloorDiv(-1, 16))
	assert.Equal(t, -1, FloorDiv(-16, 16))
	assert.Equal(t, -2, FloorDiv(-17, 16))
	assert.Equal(t, 2, FloorDiv(32, 16))

	assert.Equal(t, 15, FloorMod(-1, 16))
	assert.Equal(t, 0, FloorMod(-16, 16))
	assert.Equal(t, 15, FloorMod(-17, 16))
	assert.Equal(t, 3, FloorMod(19, 16))
}

// TestChunkBlockEntities verifies block entity storage by absolute position.
func TestChunkBlockEntities(t *testing.T) {
	c := New(2, -1)
	pos := cube.Pos{35, 64, -10}
	c.SetBlockEntity(NewBlockEntity("minecraft", "chest", pos, map[string]any{"Lock": "key"}))

	be, ok := c.BlockEntity(pos)
	require.True(t, ok)
	assert.Equal(t, "minecraft:chest", be.NamespacedName())

	_, ok = c.BlockEntity(cube.Pos{0, 0, 0})
	assert.False(t, ok)
}

// TestBlockEntityNames verifies namespaced name handling for raw and
// resolved names.
func TestBlockEntityNames(t *testing.T) {
	be := NewBlockEntity("", "Chest", cube.Pos{}, nil)
	assert.Equal(t, "Chest", be.NamespacedName())

	be.SetNamespacedName("minecraft:chest")
	assert.Equal(t, "minecraft", be.Namespace)
	assert.Equal(t, "chest", be.BaseName)

	be.SetNamespacedName("Furnace")
	assert.Equal(t, "", be.Namespace)
	assert.Equal(t, "Furnace", be.BaseName)
}

// TestBlockEntityNewAtLocation verifies that stamped-out instances share no
// payload state.
func TestBlockEntityNewAtLocation(t *testing.T) {
	src := NewBlockEntity("minecraft", "sign", cube.Pos{1, 2, 3}, map[string]any{
		"Lines": []any{"a", "b"},
		"Meta":  map[string]any{"color": "red"},
	})

	clone := src.NewAtLocation(cube.Pos{4, 5, 6})
	assert.Equal(t, cube.Pos{4, 5, 6}, clone.Pos)
	assert.Equal(t, src.Data, clone.Data)

	clone.Data["Meta"].(map[string]any)["color"] = "blue"
	assert.Equal(t, "red", src.Data["Meta"].(map[string]any)["color"])
}

// TestEntityClone verifies deep copy under a fresh identity.
func TestEntityClone(t *testing.T) {
	e := NewEntity("minecraft", "armor_stand", [3]float64{0.5, 64, 0.5}, map[string]any{"Pose": map[string]any{"Head": []any{0.0}}})

	clone := e.Clone()
	assert.NotEqual(t, e.UUID, clone.UUID)
	assert.Equal(t, e.Position, clone.Position)
	assert.Equal(t, e.Data, clone.Data)

	clone.Data["Pose"].(map[string]any)["Head"].([]any)[0] = 1.0
	assert.Equal(t, 0.0, e.Data["Pose"].(map[string]any)["Head"].([]any)[0])
}
