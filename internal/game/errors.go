// Package game implements the rookery game engine: the daily action
// budget, resource ledgers, incubation state machine, the shared
// adversary loop, manifestation, research, and the cooperative
// interactions between nests. All state lives behind the Store
// interface; the engine itself keeps no durable state in memory.
package game

import "errors"

// Closed error taxonomy. Every engine operation fails with one of these
// (wrapped with context); the gateway maps them to user-facing messages
// and never re-inspects the wrapped detail.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrOutOfActions        = errors.New("out of actions")
	ErrNotEnoughResources  = errors.New("not enough resources")
	ErrCapacityExceeded    = errors.New("capacity exceeded")
	ErrStateViolation      = errors.New("state violation")
	ErrStickerMismatch     = errors.New("sticker mismatch")
	ErrExternalUnavailable = errors.New("external service unavailable")
	ErrInternal            = errors.New("internal error")
)
