package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/bits"
	"sort"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/sandertv/gophertunnel/minecraft/nbt"

	"github.com/dannythehacker/Amulet-Core/block"
	"github.com/dannythehacker/Amulet-Core/chunk"
)

const (
	// magicNumber identifies a chunk record ("AMLT").
	magicNumber = 0x414D4C54

	// currentVersion is the latest chunk record format version.
	currentVersion = 1

	// Compression types
	compressionNone = 0
	compressionZstd = 1
)

// Property value type tags used by the palette codec.
const (
	propString = 0
	propBool   = 1
	propInt    = 2
)

// EncodeChunk serialises a chunk together with its palette into one
// self-contained record. Records over a kilobyte are zstd-compressed when
// that actually shrinks them.
func EncodeChunk(c *chunk.Chunk, palette block.Palette) ([]byte, error) {
	buf := newBuffer()
	if err := encodeBody(buf, c, palette); err != nil {
		return nil, err
	}
	data := buf.Bytes()

	compression := byte(compressionNone)
	payload := data
	if len(data) > 1024 {
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err == nil {
			compressed := encoder.EncodeAll(data, make([]byte, 0, len(data)))
			if len(compressed) < len(data) {
				compression = compressionZstd
				payload = compressed
			}
			encoder.Close()
		}
	}

	out := newBuffer()
	_ = binary.Write(out, binary.BigEndian, uint32(magicNumber))
	_ = binary.Write(out, binary.BigEndian, int16(currentVersion))
	_ = out.WriteByte(compression)
	_, _ = out.Write(payload)
	return out.Bytes(), nil
}

// DecodeChunk deserialises a chunk record produced by EncodeChunk.
func DecodeChunk(data []byte) (*chunk.Chunk, block.Palette, error) {
	r := bytes.NewReader(data)

	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != magicNumber {
		return nil, nil, fmt.Errorf("invalid magic number: got 0x%08X, want 0x%08X: %w", magic, uint32(magicNumber), chunk.ErrMalformed)
	}
	var recVersion int16
	if err := binary.Read(r, binary.BigEndian, &recVersion); err != nil {
		return nil, nil, fmt.Errorf("read record version: %w", err)
	}
	if recVersion > currentVersion {
		return nil, nil, fmt.Errorf("unsupported record version: %d (max supported: %d)", recVersion, currentVersion)
	}
	var compression byte
	if err := binary.Read(r, binary.BigEndian, &compression); err != nil {
		return nil, nil, fmt.Errorf("read compression: %w", err)
	}

	payload := data[len(data)-r.Len():]
	if compression == compressionZstd {
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		defer decoder.Close()
		payload, err = decoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("decompress chunk record: %w", err)
		}
	}

	return decodeBody(newReader(bytes.NewReader(payload)))
}

// encodeBody writes the uncompressed record body.
func encodeBody(buf *buffer, c *chunk.Chunk, palette block.Palette) error {
	buf.WriteInt32(c.Cx)
	buf.WriteInt32(c.Cz)

	// Palette
	buf.WriteVarInt(int64(len(palette)))
	for _, b := range palette {
		if err := encodeBlock(buf, b); err != nil {
			return err
		}
	}

	// Sections: indices packed at the width the palette size requires.
	width := indexBits(len(palette))
	sys := c.Blocks.SectionYs()
	buf.WriteVarInt(int64(len(sys)))
	for _, sy := range sys {
		buf.WriteInt32(sy)
		longs := packIndices(c.Blocks.Section(sy), width)
		buf.WriteVarInt(int64(len(longs)))
		for _, l := range longs {
			buf.WriteInt64(l)
		}
	}

	// Biomes
	buf.WriteVarInt(int64(len(c.Biomes)))
	for _, id := range c.Biomes {
		buf.WriteVarInt(int64(id))
	}

	// Block entities, ordered by position for deterministic records.
	blockEntities := make([]*chunk.BlockEntity, 0, len(c.BlockEntities))
	for _, be := range c.BlockEntities {
		blockEntities = append(blockEntities, be)
	}
	sort.Slice(blockEntities, func(i, j int) bool {
		a, b := blockEntities[i].Pos, blockEntities[j].Pos
		if a.Y() != b.Y() {
			return a.Y() < b.Y()
		}
		if a.Z() != b.Z() {
			return a.Z() < b.Z()
		}
		return a.X() < b.X()
	})
	buf.WriteVarInt(int64(len(blockEntities)))
	for _, be := range blockEntities {
		buf.WriteString(be.Namespace)
		buf.WriteString(be.BaseName)
		buf.WriteVarInt(int64(be.Pos.X()))
		buf.WriteVarInt(int64(be.Pos.Y()))
		buf.WriteVarInt(int64(be.Pos.Z()))
		if err := encodeCompound(buf, be.Data); err != nil {
			return fmt.Errorf("encode block entity NBT: %w", err)
		}
	}

	// Entities
	buf.WriteVarInt(int64(len(c.Entities)))
	for _, e := range c.Entities {
		buf.WriteString(e.Namespace)
		buf.WriteString(e.BaseName)
		buf.WriteString(e.UUID.String())
		buf.WriteFloat64(e.Position.X())
		buf.WriteFloat64(e.Position.Y())
		buf.WriteFloat64(e.Position.Z())
		if err := encodeCompound(buf, e.Data); err != nil {
			return fmt.Errorf("encode entity NBT: %w", err)
		}
	}

	return nil
}

// decodeBody reads the uncompressed record body.
func decodeBody(rd *reader) (*chunk.Chunk, block.Palette, error) {
	cx, err := rd.ReadInt32()
	if err != nil {
		return nil, nil, fmt.Errorf("read cx: %w", err)
	}
	cz, err := rd.ReadInt32()
	if err != nil {
		return nil, nil, fmt.Errorf("read cz: %w", err)
	}
	c := chunk.New(cx, cz)

	paletteLen, err := rd.ReadVarInt()
	if err != nil {
		return nil, nil, fmt.Errorf("read palette size: %w", err)
	}
	palette := make(block.Palette, 0, paletteLen)
	for i := int64(0); i < paletteLen; i++ {
		b, err := decodeBlock(rd)
		if err != nil {
			return nil, nil, fmt.Errorf("decode palette entry %d: %w", i, err)
		}
		palette = append(palette, b)
	}

	width := indexBits(int(paletteLen))
	sectionCount, err := rd.ReadVarInt()
	if err != nil {
		return nil, nil, fmt.Errorf("read section count: %w", err)
	}
	for i := int64(0); i < sectionCount; i++ {
		sy, err := rd.ReadInt32()
		if err != nil {
			return nil, nil, fmt.Errorf("read section y: %w", err)
		}
		longCount, err := rd.ReadVarInt()
		if err != nil {
			return nil, nil, fmt.Errorf("read section %d size: %w", sy, err)
		}
		longs := make([]int64, longCount)
		for j := range longs {
			if longs[j], err = rd.ReadInt64(); err != nil {
				return nil, nil, fmt.Errorf("read section %d data: %w", sy, err)
			}
		}
		if err := c.Blocks.SetSection(sy, unpackIndices(longs, width, chunk.SectionVolume)); err != nil {
			return nil, nil, err
		}
	}

	biomeCount, err := rd.ReadVarInt()
	if err != nil {
		return nil, nil, fmt.Errorf("read biome count: %w", err)
	}
	if biomeCount > 0 {
		c.Biomes = make([]uint32, biomeCount)
		for i := range c.Biomes {
			id, err := rd.ReadVarInt()
			if err != nil {
				return nil, nil, fmt.Errorf("read biome %d: %w", i, err)
			}
			c.Biomes[i] = uint32(id)
		}
	}

	beCount, err := rd.ReadVarInt()
	if err != nil {
		return nil, nil, fmt.Errorf("read block entity count: %w", err)
	}
	for i := int64(0); i < beCount; i++ {
		be := &chunk.BlockEntity{}
		if be.Namespace, err = rd.ReadString(); err != nil {
			return nil, nil, fmt.Errorf("read block entity namespace: %w", err)
		}
		if be.BaseName, err = rd.ReadString(); err != nil {
			return nil, nil, fmt.Errorf("read block entity name: %w", err)
		}
		var pos cube.Pos
		for a := range pos {
			v, err := rd.ReadVarInt()
			if err != nil {
				return nil, nil, fmt.Errorf("read block entity position: %w", err)
			}
			pos[a] = int(v)
		}
		be.Pos = pos
		if be.Data, err = decodeCompound(rd); err != nil {
			return nil, nil, fmt.Errorf("decode block entity NBT: %w", err)
		}
		c.SetBlockEntity(be)
	}

	entityCount, err := rd.ReadVarInt()
	if err != nil {
		return nil, nil, fmt.Errorf("read entity count: %w", err)
	}
	for i := int64(0); i < entityCount; i++ {
		e := &chunk.Entity{}
		if e.Namespace, err = rd.ReadString(); err != nil {
			return nil, nil, fmt.Errorf("read entity namespace: %w", err)
		}
		if e.BaseName, err = rd.ReadString(); err != nil {
			return nil, nil, fmt.Errorf("read entity name: %w", err)
		}
		id, err := rd.ReadString()
		if err != nil {
			return nil, nil, fmt.Errorf("read entity uuid: %w", err)
		}
		if e.UUID, err = uuid.Parse(id); err != nil {
			return nil, nil, fmt.Errorf("parse entity uuid: %w", err)
		}
		var pos mgl64.Vec3
		for a := range pos {
			if pos[a], err = rd.ReadFloat64(); err != nil {
				return nil, nil, fmt.Errorf("read entity position: %w", err)
			}
		}
		e.Position = pos
		if e.Data, err = decodeCompound(rd); err != nil {
			return nil, nil, fmt.Errorf("decode entity NBT: %w", err)
		}
		c.Entities = append(c.Entities, e)
	}

	return c, palette, nil
}

// encodeBlock writes one block value, recursing into extra layers.
func encodeBlock(buf *buffer, b *block.Block) error {
	buf.WriteString(b.Namespace())
	buf.WriteString(b.BaseName())

	props := b.Properties()
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	// Deterministic output keeps records byte-comparable.
	sort.Strings(keys)
	buf.WriteVarInt(int64(len(keys)))
	for _, k := range keys {
		buf.WriteString(k)
		switch v := props[k].(type) {
		case string:
			_ = buf.WriteByte(propString)
			buf.WriteString(v)
		case bool:
			_ = buf.WriteByte(propBool)
			buf.WriteBool(v)
		case int64:
			_ = buf.WriteByte(propInt)
			buf.WriteVarInt(v)
		default:
			return fmt.Errorf("unsupported property type %T for %q", v, k)
		}
	}

	extra := b.Extra()
	buf.WriteVarInt(int64(len(extra)))
	for _, e := range extra {
		if err := encodeBlock(buf, e); err != nil {
			return err
		}
	}
	return nil
}

// decodeBlock reads one block value written by encodeBlock.
func decodeBlock(rd *reader) (*block.Block, error) {
	ns, err := rd.ReadString()
	if err != nil {
		return nil, err
	}
	name, err := rd.ReadString()
	if err != nil {
		return nil, err
	}

	propCount, err := rd.ReadVarInt()
	if err != nil {
		return nil, err
	}
	var props map[string]any
	if propCount > 0 {
		props = make(map[string]any, propCount)
		for i := int64(0); i < propCount; i++ {
			k, err := rd.ReadString()
			if err != nil {
				return nil, err
			}
			tag, err := rd.ReadByte()
			if err != nil {
				return nil, err
			}
			switch tag {
			case propString:
				if props[k], err = rd.ReadString(); err != nil {
					return nil, err
				}
			case propBool:
				if props[k], err = rd.ReadBool(); err != nil {
					return nil, err
				}
			case propInt:
				if props[k], err = rd.ReadVarInt(); err != nil {
					return nil, err
				}
			default:
				return nil, fmt.Errorf("unknown property tag %d", tag)
			}
		}
	}

	extraCount, err := rd.ReadVarInt()
	if err != nil {
		return nil, err
	}
	extra := make([]*block.Block, 0, extraCount)
	for i := int64(0); i < extraCount; i++ {
		e, err := decodeBlock(rd)
		if err != nil {
			return nil, err
		}
		extra = append(extra, e)
	}

	return block.New(ns, name, props, extra...), nil
}

// encodeCompound writes an NBT-shaped payload with its length prefixed.
func encodeCompound(buf *buffer, data map[string]any) error {
	if len(data) == 0 {
		buf.WriteBytes(nil)
		return nil
	}
	nbtBuf := new(bytes.Buffer)
	if err := nbt.NewEncoder(nbtBuf).Encode(data); err != nil {
		return err
	}
	buf.WriteBytes(nbtBuf.Bytes())
	return nil
}

// decodeCompound reads a payload written by encodeCompound.
func decodeCompound(rd *reader) (map[string]any, error) {
	raw, err := rd.ReadBytes()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var data map[string]any
	if err := nbt.NewDecoder(bytes.NewReader(raw)).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

// indexBits calculates the number of bits needed per index for a palette of
// the given size.
func indexBits(paletteSize int) int {
	if paletteSize <= 1 {
		return 0
	}
	return bits.Len(uint(paletteSize - 1))
}

// packIndices packs palette indices into an int64 array at the given width.
func packIndices(indices []uint32, width int) []int64 {
	if width == 0 || len(indices) == 0 {
		return nil
	}

	valuesPerLong := 64 / width
	longCount := (len(indices) + valuesPerLong - 1) / valuesPerLong

	result := make([]int64, longCount)
	for i, idx := range indices {
		longIdx := i / valuesPerLong
		bitOffset := (i % valuesPerLong) * width
		result[longIdx] |= int64(idx) << bitOffset
	}

	return result
}

// unpackIndices decodes palette indices from an int64 array.
func unpackIndices(data []int64, width, count int) []uint32 {
	indices := make([]uint32, count)
	if width == 0 || len(data) == 0 {
		// All cells hold the first palette entry.
		return indices
	}

	valuesPerLong := 64 / width
	mask := int64(1)<<width - 1

	for i := range count {
		longIdx := i / valuesPerLong
		if longIdx >= len(data) {
			break
		}
		bitOffset := (i % valuesPerLong) * width
		indices[i] = uint32((data[longIdx] >> bitOffset) & mask)
	}

	return indices
}
