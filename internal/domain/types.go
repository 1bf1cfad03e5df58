package domain

import (
	"bytes"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/clamm-engine/internal/decimal"
)

// Address identifies accounts and tokens.
type Address = solana.PublicKey

func compareAddress(a, b Address) int {
	return bytes.Compare(a[:], b[:])
}

// Env is the per-call environment supplied by the host.
type Env struct {
	Caller      Address
	Timestamp   uint64 // milliseconds
	BlockNumber uint64
}

// Config is the engine-wide singleton.
type Config struct {
	Admin       Address            `json:"admin"`
	ProtocolFee decimal.Percentage `json:"protocolFee"`
}
