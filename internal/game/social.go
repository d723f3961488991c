package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

const metaReleasedBirds = "released_birds"

// SungTarget is the per-target outcome of a sing run.
type SungTarget struct {
	Target      string
	Sung        bool
	Skipped     string // reason when Sung is false
	BonusGiven  int
	Inspiration int // singer inspiration earned on this target's song
}

// SingResult reports a full sing run.
type SingResult struct {
	Targets   []SungTarget
	Remaining int
}

// Sing serenades each target in order, granting 3 plus the singer's
// song bonus as persistent bonus actions per song. One sing action is
// spent per successful target; processing stops when the singer runs
// out, and remaining targets are reported skipped. The first sing of
// the day rolls the singer's per-bird inspiration chances.
func (e *Engine) Sing(ctx context.Context, singerID string, targets []string) (*SingResult, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no targets", ErrInvalidInput)
	}
	res := &SingResult{}
	err := e.store.WithTx(ctx, func(tx Tx) error {
		day := e.clock.Today()
		fx, err := e.effectsFor(tx, singerID)
		if err != nil {
			return err
		}
		first, err := e.isFirstOfType(tx, singerID, day, ActionSing)
		if err != nil {
			return err
		}

		grant := 3 + fx.songBonus
		for _, target := range targets {
			out := SungTarget{Target: target}
			switch {
			case target == singerID:
				out.Skipped = "you cannot sing to yourself"
			default:
				sung, err := tx.HasDailySong(day, singerID, target)
				if err != nil {
					return err
				}
				if sung {
					out.Skipped = "already sung to today"
				}
			}
			if out.Skipped == "" {
				if err := e.spend(tx, singerID, day, 1, ActionSing); err != nil {
					if errors.Is(err, ErrOutOfActions) {
						out.Skipped = "no actions left"
					} else {
						return err
					}
				}
			}
			if out.Skipped == "" {
				if err := tx.AddDailySong(day, singerID, target); err != nil {
					return err
				}
				if err := tx.IncrPlayer(target, "bonus_actions", grant); err != nil {
					return err
				}
				out.Sung = true
				out.BonusGiven = grant
				if first {
					first = false
					for _, chance := range fx.singInspoChances {
						if e.rng.Float()*100 < chance {
							out.Inspiration++
						}
					}
					if out.Inspiration > 0 {
						if err := tx.IncrPlayer(singerID, "inspiration", out.Inspiration); err != nil {
							return err
						}
					}
					if _, err := e.applyFirstOfDay(tx, singerID, fx, ActionSing); err != nil {
						return err
					}
				}
			}
			res.Targets = append(res.Targets, out)
		}

		if err := tx.SetLastSungTargets(singerID, targets); err != nil {
			return err
		}
		res.Remaining, err = e.remaining(tx, singerID, day)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SingRepeat re-runs the singer's last target list.
func (e *Engine) SingRepeat(ctx context.Context, singerID string) (*SingResult, error) {
	var targets []string
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		targets, err = tx.LastSungTargets(singerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no previous sing to repeat", ErrStateViolation)
	}
	return e.Sing(ctx, singerID, targets)
}

// Entrust moves one of the giver's birds to the receiver's nest. The
// receiver must have capacity.
func (e *Engine) Entrust(ctx context.Context, giverID, receiverID, commonName string) (*Bird, error) {
	if giverID == receiverID {
		return nil, fmt.Errorf("%w: the bird is already in your nest", ErrStateViolation)
	}
	var moved *Bird
	err := e.store.WithTx(ctx, func(tx Tx) error {
		bird, err := e.findBird(tx, giverID, commonName)
		if err != nil {
			return err
		}
		theirs, err := tx.PlayerBirds(receiverID)
		if err != nil {
			return err
		}
		capacity, err := e.maxBirds(tx)
		if err != nil {
			return err
		}
		if len(theirs) >= capacity {
			return fmt.Errorf("%w: their nest holds %d birds already", ErrCapacityExceeded, capacity)
		}
		if err := tx.TransferBird(bird.ID, receiverID); err != nil {
			return err
		}
		moved = bird
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// GraduateBird releases one of the player's birds back to the wild and
// bumps the realm-wide released tally.
func (e *Engine) GraduateBird(ctx context.Context, playerID, commonName string) (*Bird, int, error) {
	var (
		released *Bird
		tally    int
	)
	err := e.store.WithTx(ctx, func(tx Tx) error {
		bird, err := e.findBird(tx, playerID, commonName)
		if err != nil {
			return err
		}
		if err := tx.RemoveBird(bird.ID); err != nil {
			return err
		}
		raw, err := tx.Meta(metaReleasedBirds)
		if err != nil {
			return err
		}
		tally, _ = strconv.Atoi(raw)
		tally++
		if err := tx.SetMeta(metaReleasedBirds, strconv.Itoa(tally)); err != nil {
			return err
		}
		released = bird
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return released, tally, nil
}

// findBird resolves the first owned bird with the given common name.
func (e *Engine) findBird(tx Tx, ownerID, commonName string) (*Bird, error) {
	birds, err := tx.PlayerBirds(ownerID)
	if err != nil {
		return nil, err
	}
	for i := range birds {
		if birds[i].CommonName == commonName {
			return &birds[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no bird named %q in the nest", ErrInvalidInput, commonName)
}
