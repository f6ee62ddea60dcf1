// Package operations holds editing operations that consume the chunk model:
// bulk, index-based rewrites built on the palette manager contract.
package operations

import (
	"errors"
	"io"
	"log/slog"

	"github.com/dannythehacker/Amulet-Core/block"
	"github.com/dannythehacker/Amulet-Core/chunk"
)

// ErrCountMismatch is returned when a bulk operation is given source and
// destination lists whose lengths differ without a valid single-value
// broadcast.
var ErrCountMismatch = errors.New("source and destination block counts differ")

// Replace rewrites every cell of the chunk holding one of the original
// blocks to the corresponding replacement block. A single replacement
// broadcasts across all originals. On a count mismatch the operation logs
// an error and returns without mutating anything.
func Replace(log *slog.Logger, c *chunk.Chunk, pm *block.PaletteManager, original, replacement []*block.Block) error {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if len(original) == 0 {
		return nil
	}
	if len(replacement) != len(original) {
		if len(replacement) == 1 {
			broadcast := make([]*block.Block, len(original))
			for i := range broadcast {
				broadcast[i] = replacement[0]
			}
			replacement = broadcast
		} else {
			log.Error("replace needs one destination block per source block",
				"original", len(original), "replacement", len(replacement))
			return ErrCountMismatch
		}
	}

	originalIDs := make([]uint32, len(original))
	replacementIDs := make([]uint32, len(replacement))
	for i := range original {
		originalIDs[i] = pm.GetOrAdd(original[i])
		replacementIDs[i] = pm.GetOrAdd(replacement[i])
	}

	for _, sy := range c.Blocks.SectionYs() {
		sec := c.Blocks.Section(sy)
		// Match against a snapshot so one pair's output is never rewritten
		// by a later pair.
		old := make([]uint32, len(sec))
		copy(old, sec)
		for p := range originalIDs {
			for ci, v := range old {
				if v == originalIDs[p] {
					sec[ci] = replacementIDs[p]
				}
			}
		}
	}
	return nil
}
