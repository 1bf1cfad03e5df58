// Package invariant runs the engine's entry points. Each call validates its
// input, works on a storage transaction, settles token transfers through the
// ledger and only then commits and publishes its events.
package invariant

import (
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/domain"
	"github.com/hxuan190/clamm-engine/internal/events"
	"github.com/hxuan190/clamm-engine/internal/metrics"
	"github.com/hxuan190/clamm-engine/internal/services"
	"github.com/hxuan190/clamm-engine/internal/storage"
	"github.com/hxuan190/clamm-engine/internal/token"
)

const INVARIANT_SERVICE = "invariant"

type Invariant struct {
	mu     sync.Mutex
	state  *storage.State
	ledger token.Ledger
	// address holding pooled tokens
	self  domain.Address
	sinks []events.Sink

	logger *services.ServiceLogger
}

type Option func(*Invariant)

func WithSinks(sinks ...events.Sink) Option {
	return func(s *Invariant) { s.sinks = append(s.sinks, sinks...) }
}

func WithLogger(base zerolog.Logger) Option {
	return func(s *Invariant) { s.logger = services.NewServiceLoggerWith(base, s) }
}

// New starts an engine with an empty state owned by admin.
func New(self, admin domain.Address, protocolFee decimal.Percentage, ledger token.Ledger, opts ...Option) (*Invariant, error) {
	if protocolFee.Gt(decimal.One[decimal.PercentageScale]()) {
		return nil, errors.Wrapf(common.ErrInvalidFee, "protocol fee %s", protocolFee)
	}
	state := storage.New(domain.Config{Admin: admin, ProtocolFee: protocolFee})
	return NewFromState(self, state, ledger, opts...), nil
}

// NewFromState resumes an engine over a restored state.
func NewFromState(self domain.Address, state *storage.State, ledger token.Ledger, opts ...Option) *Invariant {
	s := &Invariant{state: state, ledger: ledger, self: self}
	s.logger = services.NewServiceLogger(s)
	for _, opt := range opts {
		opt(s)
	}
	s.refreshGauges()
	return s
}

func (s *Invariant) ID() string {
	return INVARIANT_SERVICE
}

func (s *Invariant) Address() domain.Address {
	return s.self
}

// call is the scratch space of one entry point.
type call struct {
	txn       *storage.Txn
	env       domain.Env
	self      domain.Address
	transfers []token.Transfer
	events    []domain.Event
	reshaped  bool
}

func (c *call) pull(tok domain.Address, amount decimal.TokenAmount) {
	c.transfers = append(c.transfers, token.Transfer{
		Token: tok, Spender: c.self, From: c.env.Caller, To: c.self, Amount: amount,
	})
}

func (c *call) push(tok, to domain.Address, amount decimal.TokenAmount) {
	c.transfers = append(c.transfers, token.Transfer{
		Token: tok, From: c.self, To: to, Amount: amount,
	})
}

func (c *call) emit(ev domain.Event) {
	c.events = append(c.events, ev)
}

// execute runs fn under the engine lock. State, transfers and events of fn
// take effect together or not at all.
func (s *Invariant) execute(method string, env domain.Env, fn func(c *call) error) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &call{txn: s.state.Begin(), env: env, self: s.self}
	err := fn(c)
	if err == nil && len(c.transfers) > 0 {
		err = s.ledger.Execute(c.transfers)
	}
	if err != nil {
		err = common.Boundary(err)
		s.observe(method, start, err)
		return err
	}

	c.txn.Commit()
	if c.reshaped {
		s.refreshGauges()
	}
	for _, ev := range c.events {
		for _, sink := range s.sinks {
			sink.Publish(ev)
		}
	}
	s.observe(method, start, nil)
	return nil
}

// simulate runs fn on a transaction that is always discarded.
func (s *Invariant) simulate(method string, env domain.Env, fn func(c *call) error) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	err := common.Boundary(fn(&call{txn: s.state.Begin(), env: env, self: s.self}))
	s.observe(method, start, err)
	return err
}

func (s *Invariant) observe(method string, start time.Time, err error) {
	metrics.CallDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.Calls.WithLabelValues(method, "ok").Inc()
		return
	}
	code := common.CodeOf(err)
	metrics.Calls.WithLabelValues(method, "error").Inc()
	metrics.Failures.WithLabelValues(method, codeLabel(code)).Inc()

	lg := s.logger.Method(method)
	var ev *zerolog.Event
	if code == common.CodeComputation {
		ev = lg.Error()
	} else {
		ev = lg.Debug()
	}
	ev.Err(err).Uint8("code", uint8(code)).Msg("[invariant] call failed")
}

func (s *Invariant) refreshGauges() {
	st := s.state.Stats()
	metrics.PoolCount.Set(float64(st.Pools))
	metrics.TickCount.Set(float64(st.Ticks))
	metrics.PositionCount.Set(float64(st.Positions))
	metrics.FeeTierCount.Set(float64(st.FeeTiers))
}

func codeLabel(code common.Code) string {
	return strconv.Itoa(int(code))
}
