package game

import (
	"context"
	"fmt"
	"strings"
)

// NestSummary is a rendered-ready view of one player's nest.
type NestSummary struct {
	Player    Player
	Birds     []Bird
	Plants    []Plant
	Egg       *Egg
	Remaining int
	MaxBirds  int
	MaxGarden int
	Shared    CommonLedger
	Memoir    bool // today's memoir already written
}

// Nest gathers everything the gateway shows for one nest.
func (e *Engine) Nest(ctx context.Context, playerID string) (*NestSummary, error) {
	s := &NestSummary{}
	err := e.store.WithTx(ctx, func(tx Tx) error {
		day := e.clock.Today()
		p, err := tx.Player(playerID)
		if err != nil {
			return err
		}
		s.Player = *p
		if s.Birds, err = tx.PlayerBirds(playerID); err != nil {
			return err
		}
		if s.Plants, err = tx.PlayerPlants(playerID); err != nil {
			return err
		}
		if s.Egg, err = tx.Egg(playerID); err != nil {
			return err
		}
		if s.Remaining, err = e.remaining(tx, playerID, day); err != nil {
			return err
		}
		if s.MaxBirds, err = e.maxBirds(tx); err != nil {
			return err
		}
		if s.MaxGarden, err = e.maxGardenSize(tx); err != nil {
			return err
		}
		shared, err := tx.CommonLedger()
		if err != nil {
			return err
		}
		s.Shared = *shared
		s.Memoir, err = tx.HasMemoir(playerID, day)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// AllNests lists every player's summary for the realm overview.
func (e *Engine) AllNests(ctx context.Context) ([]NestSummary, error) {
	var ids []string
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		ids, err = tx.AllPlayerIDs()
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]NestSummary, 0, len(ids))
	for _, id := range ids {
		s, err := e.Nest(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

// RenameNest sets the player's nest name.
func (e *Engine) RenameNest(ctx context.Context, playerID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 60 {
		return fmt.Errorf("%w: nest name must be 1-60 characters", ErrInvalidInput)
	}
	return e.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.Player(playerID); err != nil {
			return err
		}
		return tx.SetNestName(playerID, name)
	})
}

// FeatureBird pins one owned bird as the nest's featured bird.
func (e *Engine) FeatureBird(ctx context.Context, playerID, commonName string) (*Bird, error) {
	var featured *Bird
	err := e.store.WithTx(ctx, func(tx Tx) error {
		bird, err := e.findBird(tx, playerID, commonName)
		if err != nil {
			return err
		}
		if err := tx.SetFeaturedBird(playerID, bird.CommonName, bird.ScientificName); err != nil {
			return err
		}
		featured = bird
		return nil
	})
	if err != nil {
		return nil, err
	}
	return featured, nil
}

// Boon kinds an admin may grant.
const (
	BoonBonusActions = "bonus_actions"
	BoonSeeds        = "seeds"
	BoonTwigs        = "twigs"
	BoonInspiration  = "inspiration"
	BoonGardenSize   = "garden_size"
)

// GrantBoon applies an admin grant to one player, with the same
// capacity clipping the blessing distribution uses; negative amounts
// are clamped so no resource drops below its floor. An empty playerID
// grants fleet-wide.
func (e *Engine) GrantBoon(ctx context.Context, playerID, kind string, amount int) error {
	if amount == 0 {
		return fmt.Errorf("%w: amount must be non-zero", ErrInvalidInput)
	}
	var blessType string
	switch kind {
	case BoonBonusActions:
		blessType = "bonus_actions"
	case BoonSeeds:
		blessType = "individual_seeds"
	case BoonTwigs:
		blessType = "individual_nest_growth"
	case BoonInspiration:
		blessType = "inspiration"
	case BoonGardenSize:
		blessType = "garden_growth"
	default:
		return fmt.Errorf("%w: unknown boon %q", ErrInvalidInput, kind)
	}
	return e.store.WithTx(ctx, func(tx Tx) error {
		if playerID == "" {
			return e.applyBlessing(tx, blessType, amount)
		}
		return e.grantOne(tx, playerID, kind, amount)
	})
}

func (e *Engine) grantOne(tx Tx, playerID, kind string, amount int) error {
	p, err := tx.Player(playerID)
	if err != nil {
		return err
	}
	n := amount
	switch kind {
	case BoonSeeds:
		if room := p.Twigs - p.Seeds; n > room {
			n = room
		}
		if n < -p.Seeds {
			n = -p.Seeds
		}
	case BoonTwigs:
		// Twigs never drop below the seeds they shelter.
		if floor := p.Seeds - p.Twigs; n < floor {
			n = floor
		}
	case BoonInspiration:
		if n < -p.Inspiration {
			n = -p.Inspiration
		}
	case BoonGardenSize:
		maxGarden, err := e.maxGardenSize(tx)
		if err != nil {
			return err
		}
		if room := maxGarden - p.GardenSize; n > room {
			n = room
		}
		if n < -p.GardenSize {
			n = -p.GardenSize
		}
	}
	if amount > 0 && n <= 0 {
		return fmt.Errorf("%w: %s is already at capacity", ErrCapacityExceeded, kind)
	}
	if amount < 0 && n >= 0 {
		return fmt.Errorf("%w: no %s left to take", ErrCapacityExceeded, kind)
	}
	return tx.IncrPlayer(playerID, kind, n)
}

// PurgeDaily removes daily bookkeeping older than the given day key and
// reports how many rows went.
func (e *Engine) PurgeDaily(ctx context.Context, beforeDay string) (int64, error) {
	var n int64
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		n, err = tx.PurgeDailyBefore(beforeDay)
		return err
	})
	return n, err
}
