package game

import (
	"context"
	"fmt"
)

// remaining computes the actions a player may still spend today:
// base allotment + clamped persistent bonus + one per owned bird,
// minus what was already used.
func (e *Engine) remaining(tx Tx, playerID, day string) (int, error) {
	p, err := tx.Player(playerID)
	if err != nil {
		return 0, err
	}
	birds, err := tx.PlayerBirds(playerID)
	if err != nil {
		return 0, err
	}
	rec, err := tx.DailyActions(playerID, day)
	if err != nil {
		return 0, err
	}
	bonus := p.BonusActions
	if bonus < 0 {
		bonus = 0
	}
	return BaseDailyActions + bonus + len(birds) - rec.Used, nil
}

// Remaining reports the actions a player may still spend today.
func (e *Engine) Remaining(ctx context.Context, playerID string) (int, error) {
	var n int
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		n, err = e.remaining(tx, playerID, e.clock.Today())
		return err
	})
	return n, err
}

// spend consumes n actions tagged with tag. Persistent bonus actions
// are drained first and are permanently gone; the rest lands on today's
// used counter. The tag is appended once per action so first-of-type
// checks stay a membership test.
func (e *Engine) spend(tx Tx, playerID, day string, n int, tag string) error {
	if n <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	rem, err := e.remaining(tx, playerID, day)
	if err != nil {
		return err
	}
	if rem < n {
		return fmt.Errorf("%w: need %d, have %d", ErrOutOfActions, n, rem)
	}

	// Any action on a new day revives the adversary loop.
	if err := e.maybeSpawnAdversary(tx, day); err != nil {
		return err
	}

	p, err := tx.Player(playerID)
	if err != nil {
		return err
	}
	fromBonus := p.BonusActions
	if fromBonus < 0 {
		fromBonus = 0
	}
	if fromBonus > n {
		fromBonus = n
	}
	if fromBonus > 0 {
		if err := tx.IncrPlayer(playerID, "bonus_actions", -fromBonus); err != nil {
			return err
		}
	}

	rec, err := tx.DailyActions(playerID, day)
	if err != nil {
		return err
	}
	rec.Used += n - fromBonus
	for i := 0; i < n; i++ {
		rec.History = append(rec.History, tag)
	}
	return tx.SetDailyActions(rec)
}

// isFirstOfType reports whether no action with this tag has been spent
// today. Callers must check before the spend that will record the tag.
func (e *Engine) isFirstOfType(tx Tx, playerID, day, tag string) (bool, error) {
	rec, err := tx.DailyActions(playerID, day)
	if err != nil {
		return false, err
	}
	for _, t := range rec.History {
		if t == tag {
			return false, nil
		}
	}
	return true, nil
}

// GrantBonus adds k (signed) to a player's persistent bonus balance.
// Negative balances are stored verbatim and clamped only when reading
// availability.
func (e *Engine) GrantBonus(ctx context.Context, playerID string, k int) error {
	return e.store.WithTx(ctx, func(tx Tx) error {
		return tx.IncrPlayer(playerID, "bonus_actions", k)
	})
}
