package chunk

import (
	"strings"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// BlockEntity is per-instance data attached to a block: a namespaced name,
// an opaque NBT-shaped payload and an absolute world position. Block
// entities are destroyed and recreated wholesale each time a chunk is
// retranslated.
type BlockEntity struct {
	// Namespace may be empty for raw data whose pretty name has not been
	// resolved yet; version block entity maps fill it in.
	Namespace string
	BaseName  string
	Pos       cube.Pos
	Data      map[string]any
}

// NewBlockEntity creates a block entity at an absolute world position.
func NewBlockEntity(namespace, baseName string, pos cube.Pos, data map[string]any) *BlockEntity {
	return &BlockEntity{Namespace: namespace, BaseName: baseName, Pos: pos, Data: data}
}

// NamespacedName returns "namespace:base_name", or just the base name when
// the namespace is unresolved.
func (b *BlockEntity) NamespacedName() string {
	if b.Namespace == "" {
		return b.BaseName
	}
	return b.Namespace + ":" + b.BaseName
}

// SetNamespacedName splits a "namespace:base_name" identifier into the block
// entity's name fields.
func (b *BlockEntity) SetNamespacedName(name string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		b.Namespace, b.BaseName = name[:i], name[i+1:]
	} else {
		b.Namespace, b.BaseName = "", name
	}
}

// NewAtLocation clones the block entity at a different absolute position.
// The payload is deep-copied so instances stamped out per block occurrence
// never share state.
func (b *BlockEntity) NewAtLocation(pos cube.Pos) *BlockEntity {
	return &BlockEntity{
		Namespace: b.Namespace,
		BaseName:  b.BaseName,
		Pos:       pos,
		Data:      copyCompound(b.Data),
	}
}

// Entity is a freestanding entity with a floating point location. Its
// lifecycle is independent of blocks, though block translation may produce
// entities as a side effect.
type Entity struct {
	Namespace string
	BaseName  string
	UUID      uuid.UUID
	Position  mgl64.Vec3
	Data      map[string]any
}

// NewEntity creates an entity with a fresh UUID.
func NewEntity(namespace, baseName string, pos mgl64.Vec3, data map[string]any) *Entity {
	return &Entity{
		Namespace: namespace,
		BaseName:  baseName,
		UUID:      uuid.New(),
		Position:  pos,
		Data:      data,
	}
}

// NamespacedName returns "namespace:base_name".
func (e *Entity) NamespacedName() string {
	return e.Namespace + ":" + e.BaseName
}

// Clone deep-copies the entity under a new UUID. Used when one template
// entity is stamped out per block occurrence.
func (e *Entity) Clone() *Entity {
	return &Entity{
		Namespace: e.Namespace,
		BaseName:  e.BaseName,
		UUID:      uuid.New(),
		Position:  e.Position,
		Data:      copyCompound(e.Data),
	}
}

// copyCompound deep-copies an NBT-shaped payload of nested maps and slices.
func copyCompound(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return copyCompound(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
