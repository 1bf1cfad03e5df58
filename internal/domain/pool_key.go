package domain

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/zeebo/blake3"

	"github.com/hxuan190/clamm-engine/internal/common"
)

// PoolKey identifies a pool. TokenX always sorts before TokenY.
type PoolKey struct {
	TokenX  Address `json:"tokenX"`
	TokenY  Address `json:"tokenY"`
	FeeTier FeeTier `json:"feeTier"`
}

// NewPoolKey orders the two tokens, so (a, b) and (b, a) give the same key.
func NewPoolKey(token0, token1 Address, feeTier FeeTier) (PoolKey, error) {
	switch compareAddress(token0, token1) {
	case 0:
		return PoolKey{}, errors.Wrapf(common.ErrTokensAreSame, "token %s", token0)
	case 1:
		token0, token1 = token1, token0
	}
	return PoolKey{TokenX: token0, TokenY: token1, FeeTier: feeTier}, nil
}

// ID is a stable digest of the key, used as a storage key and log field.
func (k PoolKey) ID() [32]byte {
	var buf [32 + 32 + 16 + 2]byte
	copy(buf[0:], k.TokenX[:])
	copy(buf[32:], k.TokenY[:])
	fee := k.FeeTier.Fee.Raw()
	binary.LittleEndian.PutUint64(buf[64:], fee[0])
	binary.LittleEndian.PutUint64(buf[72:], fee[1])
	binary.LittleEndian.PutUint16(buf[80:], k.FeeTier.TickSpacing)
	return blake3.Sum256(buf[:])
}

func (k PoolKey) IDString() string {
	id := k.ID()
	return hex.EncodeToString(id[:8])
}

func (k PoolKey) String() string {
	return fmt.Sprintf("%s/%s@%s", k.TokenX.Short(4), k.TokenY.Short(4), k.FeeTier)
}
