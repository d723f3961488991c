package game

import (
	"context"
	"fmt"
)

// DepositResult reports what a build/seed command actually did after
// clamping.
type DepositResult struct {
	Requested int
	Deposited int
	Remaining int
	Notes     []string // first-of-day effect grants
}

// Build adds twigs to the player's nest, one action per twig. The
// requested amount is clamped to the remaining action budget.
func (e *Engine) Build(ctx context.Context, playerID string, n int) (*DepositResult, error) {
	return e.deposit(ctx, playerID, n, ActionBuild, false, false)
}

// BuildCommon adds twigs to the shared ledger.
func (e *Engine) BuildCommon(ctx context.Context, playerID string, n int) (*DepositResult, error) {
	return e.deposit(ctx, playerID, n, ActionBuild, false, true)
}

// AddSeed adds seeds to the player's nest, clamped to the twig ceiling
// and the remaining action budget.
func (e *Engine) AddSeed(ctx context.Context, playerID string, n int) (*DepositResult, error) {
	return e.deposit(ctx, playerID, n, ActionSeed, true, false)
}

// AddSeedCommon adds seeds to the shared ledger under its own ceiling.
func (e *Engine) AddSeedCommon(ctx context.Context, playerID string, n int) (*DepositResult, error) {
	return e.deposit(ctx, playerID, n, ActionSeed, true, true)
}

func (e *Engine) deposit(ctx context.Context, playerID string, n int, tag string, seeds, common bool) (*DepositResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	res := &DepositResult{Requested: n}
	err := e.store.WithTx(ctx, func(tx Tx) error {
		day := e.clock.Today()
		rem, err := e.remaining(tx, playerID, day)
		if err != nil {
			return err
		}
		amount := n
		if amount > rem {
			amount = rem
		}
		if seeds {
			// Seeds never exceed twigs on the affected ledger.
			var room int
			if common {
				l, err := tx.CommonLedger()
				if err != nil {
					return err
				}
				room = l.Twigs - l.Seeds
			} else {
				p, err := tx.Player(playerID)
				if err != nil {
					return err
				}
				room = p.Twigs - p.Seeds
			}
			if amount > room {
				amount = room
			}
		}
		if amount <= 0 {
			if rem <= 0 {
				return fmt.Errorf("%w: no actions left today", ErrOutOfActions)
			}
			return fmt.Errorf("%w: seeds would exceed twigs", ErrCapacityExceeded)
		}

		fx, err := e.effectsFor(tx, playerID)
		if err != nil {
			return err
		}
		first, err := e.isFirstOfType(tx, playerID, day, tag)
		if err != nil {
			return err
		}

		if err := e.spend(tx, playerID, day, amount, tag); err != nil {
			return err
		}

		field := "twigs"
		if seeds {
			field = "seeds"
		}
		if common {
			if err := tx.IncrCommonLedger(field, amount); err != nil {
				return err
			}
		} else {
			if err := tx.IncrPlayer(playerID, field, amount); err != nil {
				return err
			}
		}

		if first {
			// First-of-type effectiveness bonus lands on the same ledger.
			// Seed bonuses respect the seeds <= twigs ceiling on whichever
			// ledger they land.
			if extra := firstBonus(amount, fx.firstBetterPct[tag]); extra > 0 {
				switch {
				case !seeds && common:
					if err := tx.IncrCommonLedger(field, extra); err != nil {
						return err
					}
					amount += extra
				case !seeds:
					if err := tx.IncrPlayer(playerID, field, extra); err != nil {
						return err
					}
					amount += extra
				case common:
					l, err := tx.CommonLedger()
					if err != nil {
						return err
					}
					if room := l.Twigs - l.Seeds; room > 0 {
						if extra > room {
							extra = room
						}
						if err := tx.IncrCommonLedger("seeds", extra); err != nil {
							return err
						}
						amount += extra
					}
				default:
					p, err := tx.Player(playerID)
					if err != nil {
						return err
					}
					if room := p.Twigs - p.Seeds; room > 0 {
						if extra > room {
							extra = room
						}
						if err := tx.IncrPlayer(playerID, "seeds", extra); err != nil {
							return err
						}
						amount += extra
					}
				}
			}
			notes, err := e.applyFirstOfDay(tx, playerID, fx, tag)
			if err != nil {
				return err
			}
			res.Notes = notes
		}

		res.Deposited = amount
		res.Remaining, err = e.remaining(tx, playerID, day)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DonateSeeds moves seeds from the player's nest to the shared ledger.
// Both ledgers' invariants are checked before either write; no action
// cost.
func (e *Engine) DonateSeeds(ctx context.Context, playerID string, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	return e.store.WithTx(ctx, func(tx Tx) error {
		p, err := tx.Player(playerID)
		if err != nil {
			return err
		}
		if p.Seeds < n {
			return fmt.Errorf("%w: %d seeds short", ErrNotEnoughResources, n-p.Seeds)
		}
		l, err := tx.CommonLedger()
		if err != nil {
			return err
		}
		if l.Seeds+n > l.Twigs {
			return fmt.Errorf("%w: common nest can hold %d more seeds", ErrCapacityExceeded, l.Twigs-l.Seeds)
		}
		if err := tx.IncrPlayer(playerID, "seeds", -n); err != nil {
			return err
		}
		return tx.IncrCommonLedger("seeds", n)
	})
}

// BorrowSeeds moves seeds from the shared ledger into the player's
// nest, bounded by the player's twig ceiling.
func (e *Engine) BorrowSeeds(ctx context.Context, playerID string, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	return e.store.WithTx(ctx, func(tx Tx) error {
		l, err := tx.CommonLedger()
		if err != nil {
			return err
		}
		if l.Seeds < n {
			return fmt.Errorf("%w: the common nest has only %d seeds", ErrNotEnoughResources, l.Seeds)
		}
		p, err := tx.Player(playerID)
		if err != nil {
			return err
		}
		if p.Seeds+n > p.Twigs {
			return fmt.Errorf("%w: your nest can hold %d more seeds", ErrCapacityExceeded, p.Twigs-p.Seeds)
		}
		if err := tx.IncrCommonLedger("seeds", -n); err != nil {
			return err
		}
		return tx.IncrPlayer(playerID, "seeds", n)
	})
}

// spendPlayerResource deducts a resource with a shortfall check.
func spendPlayerResource(tx Tx, playerID, field string, n int) error {
	p, err := tx.Player(playerID)
	if err != nil {
		return err
	}
	var have int
	switch field {
	case "seeds":
		have = p.Seeds
	case "twigs":
		have = p.Twigs
	case "inspiration":
		have = p.Inspiration
	default:
		return fmt.Errorf("%w: unknown resource %q", ErrInternal, field)
	}
	if have < n {
		return fmt.Errorf("%w: %d %s short", ErrNotEnoughResources, n-have, field)
	}
	return tx.IncrPlayer(playerID, field, -n)
}
