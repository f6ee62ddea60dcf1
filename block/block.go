package block

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Block is an immutable, structural block value: a namespaced name with a set
// of primitive properties and, for composite blocks, an ordered stack of
// extra blocks layered on top of the base (waterlogged variants, multi-part
// blocks and the like). Two blocks are equal when their full layered
// structure is equal.
type Block struct {
	namespace  string
	baseName   string
	properties map[string]any
	extra      []*Block

	key string // memoised canonical form used for dedup and map keys
}

// New creates a block value. Property values must be primitives (string,
// bool or an integer type). The property map is copied; the block never
// aliases caller state. Any extra blocks become the composite layer stack,
// flattened in order.
func New(namespace, baseName string, properties map[string]any, extra ...*Block) *Block {
	b := &Block{
		namespace: namespace,
		baseName:  baseName,
	}
	if len(properties) > 0 {
		b.properties = make(map[string]any, len(properties))
		for k, v := range properties {
			b.properties[k] = normaliseProperty(v)
		}
	}
	for _, e := range extra {
		b.extra = append(b.extra, e.Base())
		b.extra = append(b.extra, e.extra...)
	}
	b.key = canonicalKey(b)
	return b
}

// Namespace returns the block's namespace, e.g. "minecraft".
func (b *Block) Namespace() string { return b.namespace }

// BaseName returns the block's base name, e.g. "oak_door".
func (b *Block) BaseName() string { return b.baseName }

// NamespacedName returns "namespace:base_name".
func (b *Block) NamespacedName() string {
	return b.namespace + ":" + b.baseName
}

// Property returns a single property value.
func (b *Block) Property(name string) (any, bool) {
	v, ok := b.properties[name]
	return v, ok
}

// Properties returns a copy of the block's property map.
func (b *Block) Properties() map[string]any {
	if len(b.properties) == 0 {
		return nil
	}
	props := make(map[string]any, len(b.properties))
	for k, v := range b.properties {
		props[k] = v
	}
	return props
}

// Extra returns the extra layer stack. The returned slice must not be
// modified.
func (b *Block) Extra() []*Block { return b.extra }

// Base returns the base layer of the block with no extras attached. For a
// non-composite block it returns the receiver.
func (b *Block) Base() *Block {
	if len(b.extra) == 0 {
		return b
	}
	base := &Block{
		namespace:  b.namespace,
		baseName:   b.baseName,
		properties: b.properties,
	}
	base.key = canonicalKey(base)
	return base
}

// Layers returns the base block followed by every extra layer in order.
func (b *Block) Layers() []*Block {
	layers := make([]*Block, 0, 1+len(b.extra))
	layers = append(layers, b.Base())
	layers = append(layers, b.extra...)
	return layers
}

// Equal reports whether two blocks are structurally equal, including the
// full extra layer stack.
func (b *Block) Equal(other *Block) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.key == other.key
}

// Merge layers another block onto the receiver and returns the combined
// composite: the receiver's base is kept, and the other block's base and
// extras are appended to the receiver's extra stack.
func (b *Block) Merge(other *Block) *Block {
	merged := &Block{
		namespace:  b.namespace,
		baseName:   b.baseName,
		properties: b.properties,
	}
	merged.extra = append(merged.extra, b.extra...)
	merged.extra = append(merged.extra, other.Base())
	merged.extra = append(merged.extra, other.extra...)
	merged.key = canonicalKey(merged)
	return merged
}

// Blockstate renders the block in blockstate form,
// e.g. minecraft:oak_door[half=lower,open=false]. Extra layers are appended
// in braces.
func (b *Block) Blockstate() string {
	var sb strings.Builder
	sb.WriteString(b.NamespacedName())
	if len(b.properties) > 0 {
		keys := make([]string, 0, len(b.properties))
		for k := range b.properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('[')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(fmt.Sprintf("%v", b.properties[k]))
		}
		sb.WriteByte(']')
	}
	if len(b.extra) > 0 {
		sb.WriteByte('{')
		for i, e := range b.extra {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(e.Blockstate())
		}
		sb.WriteByte('}')
	}
	return sb.String()
}

// String implements fmt.Stringer.
func (b *Block) String() string { return b.Blockstate() }

// normaliseProperty widens every integer property type to int64 so that
// structurally identical blocks sourced from different decoders (YAML rule
// tables, NBT payloads, literals) key identically.
func normaliseProperty(v any) any {
	switch v := v.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	default:
		return v
	}
}

// canonicalKey builds the structural identity of a block. Unlike Blockstate
// it tags property values with their type so that e.g. the string "1" and
// the integer 1 cannot collide.
func canonicalKey(b *Block) string {
	var sb strings.Builder
	sb.WriteString(b.namespace)
	sb.WriteByte(':')
	sb.WriteString(b.baseName)
	if len(b.properties) > 0 {
		keys := make([]string, 0, len(b.properties))
		for k := range b.properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('[')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(k)
			sb.WriteByte('=')
			switch v := b.properties[k].(type) {
			case string:
				sb.WriteString(strconv.Quote(v))
			case bool:
				sb.WriteString(strconv.FormatBool(v))
			case int64:
				sb.WriteString(strconv.FormatInt(v, 10))
			default:
				sb.WriteString(fmt.Sprintf("%T(%v)", v, v))
			}
		}
		sb.WriteByte(']')
	}
	for _, e := range b.extra {
		sb.WriteByte('+')
		sb.WriteString(e.key)
	}
	return sb.String()
}

// UniversalAir returns the canonical air block of the universal namespace.
func UniversalAir() *Block { return New("universal_minecraft", "air", nil) }

// Air returns the version-side air block.
func Air() *Block { return New("minecraft", "air", nil) }
