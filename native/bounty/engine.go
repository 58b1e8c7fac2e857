package bounty

import (
	"errors"
	"time"

	"bountyvault/core/events"
	"bountyvault/core/types"
	"bountyvault/crypto"
)

var errNilState = errors.New("bounty engine: state not configured")

// engineState is the slice of ledger state the engine needs. Implemented by
// the state manager in production and by hand-built mocks in tests.
type engineState interface {
	BountyVaultPut(*Vault) error
	BountyVaultGet(addr crypto.Identity) (*Vault, bool, error)
	BountyVaultDelete(addr crypto.Identity) error
	BountyReportPut(*Report) error
	BountyReportGet(addr crypto.Identity) (*Report, bool, error)
	BountyPendingReports(vault crypto.Identity) (uint64, error)
	BountyBadgePut(*ReputationBadge) error
	BountyBadgeGet(addr crypto.Identity) (*ReputationBadge, bool, error)
	EscrowCredit(vault crypto.Identity, asset Asset, amount uint64) error
	EscrowDebit(vault crypto.Identity, asset Asset, amount uint64) error
	EscrowBalance(vault crypto.Identity, asset Asset) (uint64, error)
	AccountCredit(addr crypto.Identity, asset Asset, amount uint64) error
	AccountDebit(addr crypto.Identity, asset Asset, amount uint64) error
	AccountBalance(addr crypto.Identity, asset Asset) (uint64, error)
}

type bountyEvent struct {
	evt *types.Event
}

func (e bountyEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e bountyEvent) Event() *types.Event { return e.evt }

// Engine wires the bounty vault and report business logic with external state
// and event emitters. Every exported method is one ledger instruction: it
// validates fully before mutating, so a failed call leaves state untouched.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a bounty engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(bountyEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) loadVault(addr crypto.Identity) (*Vault, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	vault, ok, err := e.state.BountyVaultGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVaultNotFound
	}
	return vault, nil
}

func (e *Engine) loadReport(addr crypto.Identity) (*Report, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	report, ok, err := e.state.BountyReportGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrReportNotFound
	}
	return report, nil
}

// Vault returns the stored vault at addr, if any.
func (e *Engine) Vault(addr crypto.Identity) (*Vault, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	return e.state.BountyVaultGet(addr)
}

// Report returns the stored report at addr, if any.
func (e *Engine) Report(addr crypto.Identity) (*Report, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	return e.state.BountyReportGet(addr)
}

// PendingReports returns how many submitted reports on the vault still await
// a governance decision.
func (e *Engine) PendingReports(vaultAddr crypto.Identity) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.BountyPendingReports(vaultAddr)
}

// Badge returns the stored reputation badge at addr, if any.
func (e *Engine) Badge(addr crypto.Identity) (*ReputationBadge, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	return e.state.BountyBadgeGet(addr)
}

func addAmount(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrAmountOverflow
	}
	return sum, nil
}
