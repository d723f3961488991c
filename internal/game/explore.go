package game

import (
	"context"
	"fmt"
	"strings"
)

// Regions a player may explore. Exploration counters are realm-wide.
var ExploreRegions = []string{"riverbank", "forest", "garden", "shoreline", "township"}

// ExploreResult reports an exploration step and the realm-wide tally.
type ExploreResult struct {
	Region string
	Steps  int
	Total  int
}

// Explore spends n explore actions advancing the realm's counter for a
// region.
func (e *Engine) Explore(ctx context.Context, playerID, region string, n int) (*ExploreResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	region = strings.ToLower(strings.TrimSpace(region))
	if !validRegion(region) {
		return nil, fmt.Errorf("%w: unknown region %q", ErrInvalidInput, region)
	}
	res := &ExploreResult{Region: region, Steps: n}
	err := e.store.WithTx(ctx, func(tx Tx) error {
		day := e.clock.Today()
		fx, err := e.effectsFor(tx, playerID)
		if err != nil {
			return err
		}
		first, err := e.isFirstOfType(tx, playerID, day, ActionExplore)
		if err != nil {
			return err
		}
		if err := e.spend(tx, playerID, day, n, ActionExplore); err != nil {
			return err
		}
		if first {
			if _, err := e.applyFirstOfDay(tx, playerID, fx, ActionExplore); err != nil {
				return err
			}
		}
		res.Total, err = tx.IncrExploration(region, n)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ExplorationTotals reports every region's realm-wide counter.
func (e *Engine) ExplorationTotals(ctx context.Context) (map[string]int, error) {
	totals := make(map[string]int, len(ExploreRegions))
	err := e.store.WithTx(ctx, func(tx Tx) error {
		for _, region := range ExploreRegions {
			n, err := tx.Exploration(region)
			if err != nil {
				return err
			}
			totals[region] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func validRegion(region string) bool {
	for _, r := range ExploreRegions {
		if r == region {
			return true
		}
	}
	return false
}

// WriteMemoir records the player's diary entry for today. One per day.
func (e *Engine) WriteMemoir(ctx context.Context, playerID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: empty memoir", ErrInvalidInput)
	}
	return e.store.WithTx(ctx, func(tx Tx) error {
		day := e.clock.Today()
		written, err := tx.HasMemoir(playerID, day)
		if err != nil {
			return err
		}
		if written {
			return fmt.Errorf("%w: today's memoir is already written", ErrStateViolation)
		}
		return tx.AddMemoir(&Memoir{PlayerID: playerID, Day: day, Text: text})
	})
}

// MemoirHistory returns the player's most recent memoirs.
func (e *Engine) MemoirHistory(ctx context.Context, playerID string, limit int) ([]Memoir, error) {
	var out []Memoir
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.Memoirs(playerID, limit)
		return err
	})
	return out, err
}

// RealmLog returns the most recent fleet-wide announcements.
func (e *Engine) RealmLog(ctx context.Context, limit int) ([]RealmMessage, error) {
	var out []RealmMessage
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.RealmMessages(limit)
		return err
	})
	return out, err
}
