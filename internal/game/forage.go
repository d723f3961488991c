package game

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/talgya/rookery/internal/catalog"
)

// Foraging durations follow a*e^(-b*n) for n invested actions, tuned so
// one action takes about an hour and 470 actions finish in a second.
const (
	forageDecay = 0.017459 // ln(3600)/469
	forageScale = 3663.0   // 3600*e^forageDecay
)

// ForageDuration returns how long a forage of n actions takes.
func ForageDuration(n int) time.Duration {
	secs := forageScale * math.Exp(-forageDecay*float64(n))
	return time.Duration(secs * float64(time.Second))
}

// ForageOutcome is delivered to ForageDone when a timer completes.
type ForageOutcome struct {
	PlayerID   string
	Location   string
	TreasureID string
	Treasure   string
	Err        error
}

type forageTask struct {
	location string
	actions  int
	timer    *time.Timer
}

// Forage spends n forage actions toward a treasure draw at the named
// location and starts the background timer. A player runs at most one
// forage at a time. The draw lands in the inventory when the timer
// fires; completion is announced through the ForageDone hook.
func (e *Engine) Forage(ctx context.Context, playerID, location string, n int) (time.Duration, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if len(e.locationTreasures(location)) == 0 {
		return 0, fmt.Errorf("%w: nothing to forage at %q", ErrInvalidInput, location)
	}

	e.mu.Lock()
	if _, busy := e.forages[playerID]; busy {
		e.mu.Unlock()
		return 0, fmt.Errorf("%w: already foraging", ErrStateViolation)
	}
	e.mu.Unlock()

	err := e.store.WithTx(ctx, func(tx Tx) error {
		day := e.clock.Today()
		fx, err := e.effectsFor(tx, playerID)
		if err != nil {
			return err
		}
		first, err := e.isFirstOfType(tx, playerID, day, ActionForage)
		if err != nil {
			return err
		}
		if err := e.spend(tx, playerID, day, n, ActionForage); err != nil {
			return err
		}
		if first {
			if _, err := e.applyFirstOfDay(tx, playerID, fx, ActionForage); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	d := ForageDuration(n)
	e.mu.Lock()
	task := &forageTask{location: location, actions: n}
	task.timer = time.AfterFunc(d, func() { e.finishForage(playerID) })
	e.forages[playerID] = task
	e.mu.Unlock()
	return d, nil
}

// finishForage runs when a forage timer fires: draws the treasure and
// credits the inventory.
func (e *Engine) finishForage(playerID string) {
	e.mu.Lock()
	task, ok := e.forages[playerID]
	if ok {
		delete(e.forages, playerID)
	}
	e.mu.Unlock()
	if !ok {
		return // cancelled under us
	}

	outcome := ForageOutcome{PlayerID: playerID, Location: task.location}
	pool := e.locationTreasures(task.location)
	weights := make([]float64, len(pool))
	for i, t := range pool {
		weights[i] = float64(t.Weights[task.location])
	}
	pick := pool[e.weightedDraw(weights)]
	outcome.TreasureID = pick.ID
	outcome.Treasure = pick.Name

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	outcome.Err = e.store.WithTx(ctx, func(tx Tx) error {
		return tx.AddTreasure(playerID, pick.ID, 1)
	})

	if e.ForageDone != nil {
		e.ForageDone(outcome)
	}
}

// CancelForage stops a running forage and refunds the invested actions
// as persistent bonus actions.
func (e *Engine) CancelForage(ctx context.Context, playerID string) (int, error) {
	e.mu.Lock()
	task, ok := e.forages[playerID]
	if ok {
		delete(e.forages, playerID)
		task.timer.Stop()
	}
	e.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("%w: no forage in progress", ErrStateViolation)
	}
	err := e.store.WithTx(ctx, func(tx Tx) error {
		return tx.IncrPlayer(playerID, "bonus_actions", task.actions)
	})
	if err != nil {
		return 0, err
	}
	return task.actions, nil
}

// locationTreasures lists catalog treasures with positive weight at the
// location, in a stable order.
func (e *Engine) locationTreasures(location string) []*catalog.Treasure {
	var out []*catalog.Treasure
	for i := range e.catalog.Treasures {
		t := &e.catalog.Treasures[i]
		if t.Weights[location] > 0 {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
