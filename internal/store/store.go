// Package store is the client-side cache layer: one slice per entity, each
// reducing the three-phase lifecycle of its fetch dispatchers into state
// transitions. All writes are serialized behind one mutex, so concurrent
// dispatchers never race on slice state.
package store

import (
	"sync"

	"moneytrack/internal/gateway"
	"moneytrack/internal/log"
)

// Phase is the slice lifecycle: Idle until the first dispatch, then
// Loading -> Ready or Failed, re-entering Loading on the next dispatch.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// Gateway is everything the dispatchers need from the network boundary.
type Gateway interface {
	gateway.TransactionReader
	gateway.TransactionWriter
	gateway.CategoryGateway
	gateway.CreditCardReader
	gateway.Authenticator
}

// Hooks let the surrounding app react to store events without the store
// depending on it. OnMutation fires after any successful add/update/delete so
// dependent views can re-fetch; OnAuthChange fires on session transitions.
type Hooks struct {
	OnMutation   func(entity string)
	OnAuthChange func(signedIn bool)
}

type Store struct {
	mu     sync.Mutex
	gw     Gateway
	hooks  Hooks
	logger *log.Logger

	tx      transactionSlice
	stats   statsSlice
	cats    categorySlice
	cards   creditCardSlice
	session sessionSlice
}

func New(gw Gateway, hooks Hooks, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentStore)
	}
	return &Store{
		gw:     gw,
		hooks:  hooks,
		logger: logger,
	}
}

// beginFetch marks a slice loading and hands out the fetch token for this
// dispatch. seq is the slice's issue counter, phase/err the fields to reset.
func beginFetch(seq *uint64, phase *Phase, errStr *string) uint64 {
	*seq++
	*phase = PhaseLoading
	*errStr = ""
	return *seq
}

// stale reports whether a response carrying token arrived after a newer
// fetch was issued. Stale responses are dropped so an out-of-order network
// response can never overwrite fresher data.
func stale(seq uint64, token uint64) bool {
	return token != seq
}
