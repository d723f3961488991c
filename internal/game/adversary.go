package game

import (
	"context"
	"fmt"

	"github.com/talgya/rookery/internal/catalog"
)

const metaDefeatTally = "adversaries_defeated"

// maybeSpawnAdversary installs a new adversary when none is current, or
// when the current one fell on a previous day. Idempotent per day.
func (e *Engine) maybeSpawnAdversary(tx Tx, day string) error {
	current, err := tx.AdversaryState()
	if err != nil {
		return err
	}
	if current != nil && current.Resilience > 0 {
		return nil
	}
	if current != nil && current.SpawnedOn == day {
		// Defeated today; the fleet rests until tomorrow.
		return nil
	}

	tier, err := e.nextTier(tx)
	if err != nil {
		return err
	}
	pool := e.catalog.AdversariesForTier(tier)
	if len(pool) == 0 {
		return fmt.Errorf("%w: no tier %d adversaries in catalog", ErrInternal, tier)
	}
	pick := pool[e.rng.Intn(len(pool))]
	return tx.SetAdversary(&Adversary{
		Name:          pick.Name,
		Resilience:    pick.Resilience,
		MaxResilience: pick.Resilience,
		Tier:          pick.Tier,
		SpawnedOn:     day,
	})
}

// nextTier climbs one tier every three defeats, capped at tier 3.
func (e *Engine) nextTier(tx Tx) (int, error) {
	tally, err := tx.Meta(metaDefeatTally)
	if err != nil {
		return 1, err
	}
	defeated := 0
	fmt.Sscanf(tally, "%d", &defeated)
	tier := 1 + defeated/3
	if tier > 3 {
		tier = 3
	}
	return tier, nil
}

// SwoopResult reports a strike on the adversary.
type SwoopResult struct {
	Adversary  string
	Damage     int
	Resilience int
	Defeated   bool
	Blessing   string
	Amount     int
}

// Swoop strikes the shared adversary for n actions of damage, plus the
// first-of-day swoop bonus. Defeat triggers the fleet-wide blessing in
// the same transaction.
func (e *Engine) Swoop(ctx context.Context, playerID string, n int) (*SwoopResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	res := &SwoopResult{}
	err := e.store.WithTx(ctx, func(tx Tx) error {
		day := e.clock.Today()
		if err := e.maybeSpawnAdversary(tx, day); err != nil {
			return err
		}
		adv, err := tx.AdversaryState()
		if err != nil {
			return err
		}
		if adv == nil || adv.Resilience <= 0 {
			return fmt.Errorf("%w: there is nothing to swoop at today", ErrStateViolation)
		}

		fx, err := e.effectsFor(tx, playerID)
		if err != nil {
			return err
		}
		first, err := e.isFirstOfType(tx, playerID, day, ActionSwoop)
		if err != nil {
			return err
		}
		if err := e.spend(tx, playerID, day, n, ActionSwoop); err != nil {
			return err
		}

		damage := n
		if first {
			damage += firstBonus(n, fx.firstBetterPct[ActionSwoop])
			if _, err := e.applyFirstOfDay(tx, playerID, fx, ActionSwoop); err != nil {
				return err
			}
		}

		adv.Resilience -= damage
		if adv.Resilience < 0 {
			adv.Resilience = 0
		}
		if err := tx.SetAdversary(adv); err != nil {
			return err
		}

		res.Adversary = adv.Name
		res.Damage = damage
		res.Resilience = adv.Resilience
		if adv.Resilience == 0 {
			res.Defeated = true
			res.Blessing, res.Amount, err = e.defeat(tx, adv, day)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// defeat distributes a random blessing to the whole fleet and logs the
// fallen adversary.
func (e *Engine) defeat(tx Tx, adv *Adversary, day string) (string, int, error) {
	if len(e.catalog.Blessings) == 0 {
		return "", 0, fmt.Errorf("%w: no blessings in catalog", ErrInternal)
	}
	blessing := e.catalog.Blessings[e.rng.Intn(len(e.catalog.Blessings))]
	amount := blessing.Amounts[adv.Tier-1]

	if err := e.applyBlessing(tx, blessing.Type, amount); err != nil {
		return "", 0, err
	}

	if err := tx.AppendDefeated(&DefeatedAdversary{
		Name:          adv.Name,
		MaxResilience: adv.MaxResilience,
		Date:          day,
		Blessing:      blessing.Name,
		Amount:        amount,
	}); err != nil {
		return "", 0, err
	}

	tally, err := tx.Meta(metaDefeatTally)
	if err != nil {
		return "", 0, err
	}
	defeated := 0
	fmt.Sscanf(tally, "%d", &defeated)
	if err := tx.SetMeta(metaDefeatTally, fmt.Sprintf("%d", defeated+1)); err != nil {
		return "", 0, err
	}

	msg := fmt.Sprintf("%s has been defeated! The realm receives %s (%d).", adv.Name, blessing.Name, amount)
	if err := tx.AppendRealmMessage(day, msg); err != nil {
		return "", 0, err
	}
	return blessing.Name, amount, nil
}

// applyBlessing applies one blessing type fleet-wide. Per-player writes
// are independent increments, each clipped against that player's own
// row; capped resources never overflow their ceiling.
func (e *Engine) applyBlessing(tx Tx, blessType string, amount int) error {
	switch blessType {
	case catalog.BlessCommonSeeds:
		l, err := tx.CommonLedger()
		if err != nil {
			return err
		}
		n := amount
		if room := l.Twigs - l.Seeds; n > room {
			n = room
		}
		if n > 0 {
			return tx.IncrCommonLedger("seeds", n)
		}
		return nil
	case catalog.BlessCommonNestGrowth:
		return tx.IncrCommonLedger("twigs", amount)
	}

	ids, err := tx.AllPlayerIDs()
	if err != nil {
		return err
	}
	maxGarden, err := e.maxGardenSize(tx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		p, err := tx.Player(id)
		if err != nil {
			return err
		}
		switch blessType {
		case catalog.BlessIndividualSeeds:
			n := amount
			if room := p.Twigs - p.Seeds; n > room {
				n = room
			}
			if n > 0 {
				if err := tx.IncrPlayer(id, "seeds", n); err != nil {
					return err
				}
			}
		case catalog.BlessInspiration:
			if err := tx.IncrPlayer(id, "inspiration", amount); err != nil {
				return err
			}
		case catalog.BlessGardenGrowth:
			n := amount
			if room := maxGarden - p.GardenSize; n > room {
				n = room
			}
			if n > 0 {
				if err := tx.IncrPlayer(id, "garden_size", n); err != nil {
					return err
				}
			}
		case catalog.BlessBonusActions:
			if err := tx.IncrPlayer(id, "bonus_actions", amount); err != nil {
				return err
			}
		case catalog.BlessIndividualNestGrowth:
			if err := tx.IncrPlayer(id, "twigs", amount); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown blessing type %q", ErrInternal, blessType)
		}
	}
	return nil
}

// CurrentAdversary reports the adversary of the day, spawning one if
// needed.
func (e *Engine) CurrentAdversary(ctx context.Context) (*Adversary, error) {
	var adv *Adversary
	err := e.store.WithTx(ctx, func(tx Tx) error {
		if err := e.maybeSpawnAdversary(tx, e.clock.Today()); err != nil {
			return err
		}
		var err error
		adv, err = tx.AdversaryState()
		return err
	})
	if err != nil {
		return nil, err
	}
	if adv == nil {
		return nil, fmt.Errorf("%w: no adversary available", ErrStateViolation)
	}
	return adv, nil
}

// DefeatedLog lists recent defeats for the gateway.
func (e *Engine) DefeatedLog(ctx context.Context, limit int) ([]DefeatedAdversary, error) {
	var rows []DefeatedAdversary
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		rows, err = tx.DefeatedLog(limit)
		return err
	})
	return rows, err
}
