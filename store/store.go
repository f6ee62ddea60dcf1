package store

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/df-mc/goleveldb/leveldb"

	"github.com/dannythehacker/Amulet-Core/block"
	"github.com/dannythehacker/Amulet-Core/chunk"
	"github.com/dannythehacker/Amulet-Core/translate"
)

// ErrNotFound is returned when a requested chunk does not exist in the
// store.
var ErrNotFound = leveldb.ErrNotFound

// Store persists chunk records in a LevelDB database. Loads are cached and
// safe to call from concurrent translation calls; cached chunks handed out
// by Loader are shared, pre-translation snapshots and must be treated as
// read-only by callers.
type Store struct {
	mu    sync.RWMutex
	db    *leveldb.DB
	cache map[int64]cachedChunk
}

type cachedChunk struct {
	c       *chunk.Chunk
	palette block.Palette
}

// Open opens (or creates) a chunk store in the given directory.
func Open(dir string) (*Store, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("open chunk store: %w", err)
	}
	return &Store{
		db:    db,
		cache: make(map[int64]cachedChunk),
	}, nil
}

// Put stores a chunk and its palette, replacing any previous record at the
// same coordinates.
func (s *Store) Put(c *chunk.Chunk, palette block.Palette) error {
	data, err := EncodeChunk(c, palette)
	if err != nil {
		return fmt.Errorf("encode chunk (%d,%d): %w", c.Cx, c.Cz, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Put(chunkDBKey(c.Cx, c.Cz), data, nil); err != nil {
		return fmt.Errorf("store chunk (%d,%d): %w", c.Cx, c.Cz, err)
	}
	delete(s.cache, chunkKey(c.Cx, c.Cz))
	return nil
}

// Load fetches the chunk at the given coordinates. Missing chunks return
// ErrNotFound.
func (s *Store) Load(cx, cz int32) (*chunk.Chunk, block.Palette, error) {
	key := chunkKey(cx, cz)

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return cached.c, cached.palette, nil
	}

	data, err := s.db.Get(chunkDBKey(cx, cz), nil)
	if err != nil {
		return nil, nil, err
	}
	c, palette, err := DecodeChunk(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode chunk (%d,%d): %w", cx, cz, err)
	}

	s.mu.Lock()
	s.cache[key] = cachedChunk{c: c, palette: palette}
	s.mu.Unlock()
	return c, palette, nil
}

// Loader returns the chunk-loading callback used by the translation
// engine's cross-chunk resolver. It only ever serves stored data, never a
// chunk that is mid-translation.
func (s *Store) Loader() translate.GetChunkFunc {
	return func(cx, cz int32) (*chunk.Chunk, translate.PaletteView, error) {
		c, palette, err := s.Load(cx, cz)
		if err != nil {
			return nil, nil, err
		}
		return c, palette, nil
	}
}

// Each calls fn for every stored chunk. Iteration stops at the first error.
func (s *Store) Each(fn func(c *chunk.Chunk, palette block.Palette) error) error {
	it := s.db.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		c, palette, err := DecodeChunk(it.Value())
		if err != nil {
			return fmt.Errorf("decode chunk record: %w", err)
		}
		if err := fn(c, palette); err != nil {
			return err
		}
	}
	return it.Error()
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
	return s.db.Close()
}

// chunkKey creates a unique cache key for chunk coordinates.
func chunkKey(x, z int32) int64 {
	return int64(x)<<32 | int64(uint32(z))
}

// chunkDBKey creates the database key for chunk coordinates.
func chunkDBKey(x, z int32) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint32(key[:4], uint32(x))
	binary.BigEndian.PutUint32(key[4:], uint32(z))
	return key
}
