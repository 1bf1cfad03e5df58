package storage

import (
	"math/bits"

	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/clamm"
	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/domain"
)

// bitmapIndex maps a spacing-aligned tick to its bit, counting from the
// lowest usable tick of the spacing.
func bitmapIndex(tick int32, spacing uint16) int32 {
	return (tick + clamm.MaxTick) / int32(spacing)
}

func tickAtIndex(index int32, spacing uint16) int32 {
	s := int32(spacing)
	return index*s - (clamm.MaxTick - clamm.MaxTick%s)
}

// TickToPosition returns the chunk and bit holding tick.
func TickToPosition(tick int32, spacing uint16) (uint16, uint8) {
	i := bitmapIndex(tick, spacing)
	return uint16(i / clamm.ChunkSize), uint8(i % clamm.ChunkSize)
}

func PositionToTick(chunk uint16, bit uint8, spacing uint16) int32 {
	return tickAtIndex(int32(chunk)*clamm.ChunkSize+int32(bit), spacing)
}

func (t *Txn) chunk(key domain.PoolKey, chunk int32) uint64 {
	v, _ := t.bitmap.get(ChunkKey{key, uint16(chunk)})
	return v
}

// IsTickInitialized reports the tickmap bit of index.
func (t *Txn) IsTickInitialized(key domain.PoolKey, index int32) bool {
	if clamm.CheckTick(index, key.FeeTier.TickSpacing) != nil {
		return false
	}
	chunk, bit := TickToPosition(index, key.FeeTier.TickSpacing)
	v, _ := t.bitmap.get(ChunkKey{key, chunk})
	return v&(1<<bit) != 0
}

// Flip sets the bit of tick to value. The bit must currently hold !value.
func (t *Txn) Flip(value bool, tick int32, spacing uint16, key domain.PoolKey) error {
	if err := clamm.CheckTick(tick, spacing); err != nil {
		return err
	}
	chunk, bit := TickToPosition(tick, spacing)
	k := ChunkKey{key, chunk}
	v, _ := t.bitmap.get(k)
	if (v&(1<<bit) != 0) == value {
		return errors.Newf("tickmap: tick %d already %t", tick, value)
	}
	v ^= 1 << bit
	if v == 0 {
		t.bitmap.del(k)
	} else {
		t.bitmap.set(k, v)
	}
	return nil
}

// NextInitialized finds the nearest initialized tick strictly above tick,
// scanning at most TickSearchRange chunks from tick's own chunk.
func (t *Txn) NextInitialized(key domain.PoolKey, tick int32, spacing uint16) (int32, bool) {
	s := int32(spacing)
	if tick+s > clamm.MaxTick {
		return 0, false
	}
	start := bitmapIndex(tick+s, spacing)
	limit := min(
		bitmapIndex(clamm.GetMaxTick(spacing), spacing),
		(bitmapIndex(tick, spacing)/clamm.ChunkSize+clamm.TickSearchRange)*clamm.ChunkSize-1,
	)

	for chunk := start / clamm.ChunkSize; chunk*clamm.ChunkSize <= limit; chunk++ {
		word := t.chunk(key, chunk)
		if chunk == start/clamm.ChunkSize {
			word &^= (uint64(1) << (start % clamm.ChunkSize)) - 1
		}
		if word == 0 {
			continue
		}
		index := chunk*clamm.ChunkSize + int32(bits.TrailingZeros64(word))
		if index > limit {
			return 0, false
		}
		return tickAtIndex(index, spacing), true
	}
	return 0, false
}

// PrevInitialized finds the nearest initialized tick at or below tick,
// scanning at most TickSearchRange chunks down from tick's chunk.
func (t *Txn) PrevInitialized(key domain.PoolKey, tick int32, spacing uint16) (int32, bool) {
	start := bitmapIndex(tick, spacing)
	if start < 0 {
		return 0, false
	}
	first := start / clamm.ChunkSize
	last := max(first-clamm.TickSearchRange+1, 0)

	for chunk := first; chunk >= last; chunk-- {
		word := t.chunk(key, chunk)
		if chunk == first {
			if bit := start % clamm.ChunkSize; bit < clamm.ChunkSize-1 {
				word &= (uint64(1) << (bit + 1)) - 1
			}
		}
		if word == 0 {
			continue
		}
		index := chunk*clamm.ChunkSize + int32(63-bits.LeadingZeros64(word))
		return tickAtIndex(index, spacing), true
	}
	return 0, false
}

// SearchLimit is the last tick a single search from tick can see.
func SearchLimit(tick int32, spacing uint16, up bool) int32 {
	chunk := bitmapIndex(tick, spacing) / clamm.ChunkSize
	if up {
		index := min(
			(chunk+clamm.TickSearchRange)*clamm.ChunkSize-1,
			bitmapIndex(clamm.GetMaxTick(spacing), spacing),
		)
		return tickAtIndex(index, spacing)
	}
	index := max((chunk-clamm.TickSearchRange+1)*clamm.ChunkSize, 0)
	return tickAtIndex(index, spacing)
}

// CloserLimit picks the target of the next swap step: the nearest
// initialized tick in the swap direction, the edge of the search window when
// none is visible, or sqrtPriceLimit when that comes first. The bound is nil
// when the price limit wins.
func (t *Txn) CloserLimit(
	key domain.PoolKey,
	sqrtPriceLimit decimal.SqrtPrice,
	xToY bool,
	current int32,
	spacing uint16,
) (decimal.SqrtPrice, *domain.TickBound, error) {
	var (
		index int32
		found bool
	)
	if xToY {
		index, found = t.PrevInitialized(key, current, spacing)
	} else {
		index, found = t.NextInitialized(key, current, spacing)
	}
	if !found {
		index = SearchLimit(current, spacing, !xToY)
		if index == current {
			return decimal.SqrtPrice{}, nil, errors.Wrapf(common.ErrTickLimitReached, "tick %d", current)
		}
	}

	price, err := clamm.CalculateSqrtPrice(index)
	if err != nil {
		return decimal.SqrtPrice{}, nil, errors.Wrap(err, "closer limit")
	}
	if (xToY && price.Gt(sqrtPriceLimit)) || (!xToY && price.Lt(sqrtPriceLimit)) {
		bound := &domain.TickBound{Index: index}
		if found {
			tick, err := t.Tick(key, index)
			if err != nil {
				return decimal.SqrtPrice{}, nil, err
			}
			bound.Tick = &tick
		}
		return price, bound, nil
	}
	return sqrtPriceLimit, nil, nil
}
