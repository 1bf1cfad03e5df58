package events

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	bin "github.com/gagliardetto/binary"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/clamm-engine/internal/domain"
)

// Kind is the one-byte tag that leads every encoded event.
type Kind uint8

const (
	KindCreatePosition Kind = iota
	KindRemovePosition
	KindCrossTick
	KindSwap
)

var ErrUnknownEvent = errors.New("unknown event")

var le = binary.LittleEndian

// Encode writes ev in Borsh layout behind its Kind tag.
func Encode(ev domain.Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)

	var err error
	switch e := ev.(type) {
	case domain.CreatePositionEvent:
		err = encodePosition(enc, KindCreatePosition, e)
	case domain.RemovePositionEvent:
		err = encodePosition(enc, KindRemovePosition, domain.CreatePositionEvent(e))
	case domain.CrossTickEvent:
		err = encodeCrossTick(enc, e)
	case domain.SwapEvent:
		err = encodeSwap(enc, e)
	default:
		return nil, errors.Wrapf(ErrUnknownEvent, "%T", ev)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", ev.EventName())
	}
	return buf.Bytes(), nil
}

func encodeHeader(enc *bin.Encoder, kind Kind, ts uint64, addr domain.Address, pool domain.PoolKey) error {
	if err := enc.WriteUint8(uint8(kind)); err != nil {
		return err
	}
	if err := enc.WriteUint64(ts, le); err != nil {
		return err
	}
	if err := enc.WriteBytes(addr[:], false); err != nil {
		return err
	}
	return encodePoolKey(enc, pool)
}

func encodePoolKey(enc *bin.Encoder, k domain.PoolKey) error {
	if err := enc.WriteBytes(k.TokenX[:], false); err != nil {
		return err
	}
	if err := enc.WriteBytes(k.TokenY[:], false); err != nil {
		return err
	}
	if err := k.FeeTier.Fee.MarshalWithEncoder(enc); err != nil {
		return err
	}
	return enc.WriteUint16(k.FeeTier.TickSpacing, le)
}

// Both position events share one layout.
func encodePosition(enc *bin.Encoder, kind Kind, e domain.CreatePositionEvent) error {
	if err := encodeHeader(enc, kind, e.Timestamp, e.Address, e.Pool); err != nil {
		return err
	}
	if err := e.Liquidity.MarshalWithEncoder(enc); err != nil {
		return err
	}
	if err := enc.WriteInt32(e.LowerTick, le); err != nil {
		return err
	}
	if err := enc.WriteInt32(e.UpperTick, le); err != nil {
		return err
	}
	return e.CurrentSqrtPrice.MarshalWithEncoder(enc)
}

func encodeCrossTick(enc *bin.Encoder, e domain.CrossTickEvent) error {
	if err := encodeHeader(enc, KindCrossTick, e.Timestamp, e.Address, e.Pool); err != nil {
		return err
	}
	if err := enc.WriteUint32(uint32(len(e.Indexes)), le); err != nil {
		return err
	}
	for _, i := range e.Indexes {
		if err := enc.WriteInt32(i, le); err != nil {
			return err
		}
	}
	return nil
}

func encodeSwap(enc *bin.Encoder, e domain.SwapEvent) error {
	if err := encodeHeader(enc, KindSwap, e.Timestamp, e.Address, e.Pool); err != nil {
		return err
	}
	for _, m := range []bin.BinaryMarshaler{e.AmountIn, e.AmountOut, e.Fee, e.StartSqrtPrice, e.TargetSqrtPrice} {
		if err := m.MarshalWithEncoder(enc); err != nil {
			return err
		}
	}
	return enc.WriteBool(e.XToY)
}

// Decode reverses Encode.
func Decode(data []byte) (domain.Event, error) {
	dec := bin.NewBorshDecoder(data)
	kind, err := dec.ReadUint8()
	if err != nil {
		return nil, errors.Wrap(err, "decode event kind")
	}

	var h header
	if err := h.read(dec); err != nil {
		return nil, errors.Wrap(err, "decode event header")
	}

	switch Kind(kind) {
	case KindCreatePosition, KindRemovePosition:
		ev := domain.CreatePositionEvent{Timestamp: h.ts, Address: h.addr, Pool: h.pool}
		if err := ev.Liquidity.UnmarshalWithDecoder(dec); err != nil {
			return nil, errors.Wrap(err, "decode position event")
		}
		if ev.LowerTick, err = dec.ReadInt32(le); err != nil {
			return nil, errors.Wrap(err, "decode position event")
		}
		if ev.UpperTick, err = dec.ReadInt32(le); err != nil {
			return nil, errors.Wrap(err, "decode position event")
		}
		if err := ev.CurrentSqrtPrice.UnmarshalWithDecoder(dec); err != nil {
			return nil, errors.Wrap(err, "decode position event")
		}
		if Kind(kind) == KindRemovePosition {
			return domain.RemovePositionEvent(ev), nil
		}
		return ev, nil

	case KindCrossTick:
		ev := domain.CrossTickEvent{Timestamp: h.ts, Address: h.addr, Pool: h.pool}
		n, err := dec.ReadUint32(le)
		if err != nil {
			return nil, errors.Wrap(err, "decode cross tick event")
		}
		ev.Indexes = make([]int32, n)
		for i := range ev.Indexes {
			if ev.Indexes[i], err = dec.ReadInt32(le); err != nil {
				return nil, errors.Wrap(err, "decode cross tick event")
			}
		}
		return ev, nil

	case KindSwap:
		ev := domain.SwapEvent{Timestamp: h.ts, Address: h.addr, Pool: h.pool}
		for _, u := range []bin.BinaryUnmarshaler{&ev.AmountIn, &ev.AmountOut, &ev.Fee, &ev.StartSqrtPrice, &ev.TargetSqrtPrice} {
			if err := u.UnmarshalWithDecoder(dec); err != nil {
				return nil, errors.Wrap(err, "decode swap event")
			}
		}
		if ev.XToY, err = dec.ReadBool(); err != nil {
			return nil, errors.Wrap(err, "decode swap event")
		}
		return ev, nil
	}
	return nil, errors.Wrapf(ErrUnknownEvent, "kind %d", kind)
}

type header struct {
	ts   uint64
	addr domain.Address
	pool domain.PoolKey
}

func readAddress(dec *bin.Decoder) (domain.Address, error) {
	var a domain.Address
	b, err := dec.ReadNBytes(len(a))
	if err != nil {
		return a, err
	}
	copy(a[:], b)
	return a, nil
}

func (h *header) read(dec *bin.Decoder) (err error) {
	if h.ts, err = dec.ReadUint64(le); err != nil {
		return err
	}
	if h.addr, err = readAddress(dec); err != nil {
		return err
	}
	if h.pool.TokenX, err = readAddress(dec); err != nil {
		return err
	}
	if h.pool.TokenY, err = readAddress(dec); err != nil {
		return err
	}
	if err = h.pool.FeeTier.Fee.UnmarshalWithDecoder(dec); err != nil {
		return err
	}
	h.pool.FeeTier.TickSpacing, err = dec.ReadUint16(le)
	return err
}

// WireSink streams events to w as u32 length-prefixed Borsh frames.
type WireSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWireSink(w io.Writer) *WireSink {
	return &WireSink{w: w}
}

func (s *WireSink) Publish(ev domain.Event) {
	payload, err := Encode(ev)
	if err != nil {
		log.Error().Err(err).Msg("[events] wire encode failed")
		return
	}
	frame := make([]byte, 4, 4+len(payload))
	le.PutUint32(frame, uint32(len(payload)))
	frame = append(frame, payload...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(frame); err != nil {
		log.Error().Err(err).Str("event", ev.EventName()).Msg("[events] wire write failed")
	}
}
