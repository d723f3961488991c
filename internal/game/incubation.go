package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// LayResult reports a freshly laid egg.
type LayResult struct {
	InitialProgress int
}

// LayEgg creates an egg for the player. Costs EggCost seeds; plants
// with the less-brood effect can grant initial progress.
func (e *Engine) LayEgg(ctx context.Context, owner string) (*LayResult, error) {
	res := &LayResult{}
	err := e.store.WithTx(ctx, func(tx Tx) error {
		egg, err := tx.Egg(owner)
		if err != nil {
			return err
		}
		if egg != nil {
			return fmt.Errorf("%w: you already have an egg", ErrStateViolation)
		}
		if err := spendPlayerResource(tx, owner, "seeds", EggCost); err != nil {
			return err
		}

		fx, err := e.effectsFor(tx, owner)
		if err != nil {
			return err
		}
		res.InitialProgress = e.initialProgress(fx.lessBroodPct)

		return tx.UpsertEgg(&Egg{
			OwnerID:     owner,
			Progress:    res.InitialProgress,
			BroodDay:    e.clock.Today(),
			Multipliers: map[string]int{},
		})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// initialProgress converts the summed less-brood percentage into a
// starting brood count: the whole part is guaranteed, the fraction is
// one extra with matching probability.
func (e *Engine) initialProgress(sumPct float64) int {
	whole, frac := math.Modf(sumPct / 100.0)
	progress := int(whole)
	if frac > e.rng.Float() {
		progress++
	}
	if progress > BroodTarget-1 {
		progress = BroodTarget - 1
	}
	return progress
}

// HatchResult reports the birds inserted by a hatch.
type HatchResult struct {
	Birds            []Bird
	PrayersPreserved bool
}

// BroodResult reports a brood action and any hatch it triggered.
type BroodResult struct {
	Progress     int
	Hatched      *HatchResult
	HatchBlocked string // non-empty when the egg is full but the hatch could not complete
}

// Brood warms another player's egg. Each (brooder, target) pair counts
// once per day; the tenth brood triggers the hatch. An egg already at
// full progress retries its hatch without consuming an action.
func (e *Engine) Brood(ctx context.Context, brooder, target string) (*BroodResult, error) {
	if brooder == target && !e.AllowSelfBrood {
		return nil, fmt.Errorf("%w: you cannot brood your own egg", ErrStateViolation)
	}
	res := &BroodResult{}
	ready := false
	err := e.store.WithTx(ctx, func(tx Tx) error {
		day := e.clock.Today()
		egg, err := tx.Egg(target)
		if err != nil {
			return err
		}
		if egg == nil {
			return fmt.Errorf("%w: that nest has no egg", ErrStateViolation)
		}
		if egg.Progress >= BroodTarget {
			// Pending hatch from an earlier failed attempt.
			ready = true
			res.Progress = egg.Progress
			return nil
		}
		dup, err := tx.HasDailyBrood(day, brooder, target)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("%w: you already brooded that egg today", ErrStateViolation)
		}

		fx, err := e.effectsFor(tx, brooder)
		if err != nil {
			return err
		}
		first, err := e.isFirstOfType(tx, brooder, day, ActionBrood)
		if err != nil {
			return err
		}
		if err := e.spend(tx, brooder, day, 1, ActionBrood); err != nil {
			return err
		}
		if err := tx.AddDailyBrood(day, brooder, target); err != nil {
			return err
		}

		incr := 1
		if first {
			incr += firstBonus(1, fx.firstBetterPct[ActionBrood])
			if _, err := e.applyFirstOfDay(tx, brooder, fx, ActionBrood); err != nil {
				return err
			}
		}

		if egg.BroodDay != day {
			egg.BroodedBy = nil
			egg.BroodDay = day
		}
		egg.BroodedBy = append(egg.BroodedBy, brooder)
		egg.Progress += incr
		if egg.Progress > BroodTarget {
			egg.Progress = BroodTarget
		}
		res.Progress = egg.Progress
		ready = egg.Progress >= BroodTarget
		return tx.UpsertEgg(egg)
	})
	if err != nil {
		return nil, err
	}

	if ready {
		// The hatch runs in its own transaction so a capacity failure
		// leaves the committed brood progress in place for a retry.
		hatched, err := e.hatch(ctx, target)
		if err != nil {
			if isTaxonomyErr(err) {
				res.HatchBlocked = err.Error()
				return res, nil
			}
			return nil, err
		}
		res.Hatched = hatched
	}
	return res, nil
}

// BroodRandom picks a broodable egg for the player: any other nest with
// an unhatched egg the player has not brooded today.
func (e *Engine) BroodRandom(ctx context.Context, brooder string) (string, *BroodResult, error) {
	var candidates []string
	err := e.store.WithTx(ctx, func(tx Tx) error {
		day := e.clock.Today()
		ids, err := tx.AllPlayerIDs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			if id == brooder {
				continue
			}
			egg, err := tx.Egg(id)
			if err != nil {
				return err
			}
			if egg == nil || egg.Progress >= BroodTarget {
				continue
			}
			dup, err := tx.HasDailyBrood(day, brooder, id)
			if err != nil {
				return err
			}
			if !dup {
				candidates = append(candidates, id)
			}
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	if len(candidates) == 0 {
		return "", nil, fmt.Errorf("%w: no eggs need brooding", ErrStateViolation)
	}
	target := candidates[e.rng.Intn(len(candidates))]
	res, err := e.Brood(ctx, brooder, target)
	return target, res, err
}

// Pray weights the egg's draw toward a species, one action per prayer.
func (e *Engine) Pray(ctx context.Context, owner, species string, n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	var sci string
	err := e.store.WithTx(ctx, func(tx Tx) error {
		egg, err := tx.Egg(owner)
		if err != nil {
			return err
		}
		if egg == nil {
			return fmt.Errorf("%w: you have no egg to pray over", ErrStateViolation)
		}

		sci, err = e.resolveSpecies(tx, species)
		if err != nil {
			return err
		}

		day := e.clock.Today()
		fx, err := e.effectsFor(tx, owner)
		if err != nil {
			return err
		}
		first, err := e.isFirstOfType(tx, owner, day, ActionPray)
		if err != nil {
			return err
		}
		if err := e.spend(tx, owner, day, n, ActionPray); err != nil {
			return err
		}
		if first {
			if _, err := e.applyFirstOfDay(tx, owner, fx, ActionPray); err != nil {
				return err
			}
		}

		egg.Multipliers[sci] += n
		return tx.UpsertEgg(egg)
	})
	return sci, err
}

// resolveSpecies maps a player-supplied name to a scientific name in
// the draw pool (catalog or fully manifested species).
func (e *Engine) resolveSpecies(tx Tx, name string) (string, error) {
	if s := e.catalog.SpeciesBySci(name); s != nil {
		return s.ScientificName, nil
	}
	if s := e.catalog.SpeciesByCommon(name); s != nil {
		return s.ScientificName, nil
	}
	rows, err := tx.ManifestedAll()
	if err != nil {
		return "", err
	}
	for _, row := range rows {
		if row.FullyManifested && (row.ScientificName == name || row.CommonName == name) {
			return row.ScientificName, nil
		}
	}
	return "", fmt.Errorf("%w: unknown species %q", ErrInvalidInput, name)
}

// BlessEgg protects the egg's prayers: if the hatch draw misses the
// most-prayed species, the multipliers carry into a free replacement
// egg.
func (e *Engine) BlessEgg(ctx context.Context, owner string) error {
	return e.store.WithTx(ctx, func(tx Tx) error {
		egg, err := tx.Egg(owner)
		if err != nil {
			return err
		}
		if egg == nil {
			return fmt.Errorf("%w: you have no egg to bless", ErrStateViolation)
		}
		if egg.ProtectedPrayers {
			return fmt.Errorf("%w: that egg is already blessed", ErrStateViolation)
		}
		if err := spendPlayerResource(tx, owner, "inspiration", BlessEggInspo); err != nil {
			return err
		}
		if err := spendPlayerResource(tx, owner, "seeds", BlessEggSeeds); err != nil {
			return err
		}
		egg.ProtectedPrayers = true
		return tx.UpsertEgg(egg)
	})
}

// drawCandidate is one entry in the weighted hatch pool.
type drawCandidate struct {
	common string
	sci    string
	weight float64
}

// hatch draws a species, inserts the bird(s), and retires the egg. The
// whole transition is one transaction: a capacity failure rolls
// everything back and the egg stays at full progress.
func (e *Engine) hatch(ctx context.Context, owner string) (*HatchResult, error) {
	res := &HatchResult{}
	err := e.store.WithTx(ctx, func(tx Tx) error {
		egg, err := tx.Egg(owner)
		if err != nil {
			return err
		}
		if egg == nil || egg.Progress < BroodTarget {
			return fmt.Errorf("%w: egg is not ready to hatch", ErrStateViolation)
		}

		exponent, err := e.prayerExponent(tx)
		if err != nil {
			return err
		}
		pool, err := e.drawPool(tx, egg.Multipliers, exponent)
		if err != nil {
			return err
		}

		birds, err := tx.PlayerBirds(owner)
		if err != nil {
			return err
		}
		capacity, err := e.maxBirds(tx)
		if err != nil {
			return err
		}
		if len(birds) >= capacity {
			return fmt.Errorf("%w: nest holds %d birds already", ErrCapacityExceeded, capacity)
		}

		weights := make([]float64, len(pool))
		for i, c := range pool {
			weights[i] = c.weight
		}
		first := pool[e.weightedDraw(weights)]
		id, err := tx.AddBird(owner, first.common, first.sci)
		if err != nil {
			return err
		}
		res.Birds = append(res.Birds, Bird{ID: id, OwnerID: owner, CommonName: first.common, ScientificName: first.sci})

		fx, err := e.effectsFor(tx, owner)
		if err != nil {
			return err
		}
		extraChance := fx.extraBirdPct / 100.0
		if extraChance > 1 {
			extraChance = 1
		}
		if extraChance > 0 && e.rng.Float() < extraChance && len(birds)+2 <= capacity {
			second := pool[e.weightedDraw(weights)]
			id, err := tx.AddBird(owner, second.common, second.sci)
			if err != nil {
				return err
			}
			res.Birds = append(res.Birds, Bird{ID: id, OwnerID: owner, CommonName: second.common, ScientificName: second.sci})
		}

		// A blessed egg that missed its most-prayed species carries the
		// prayers into a free replacement egg.
		if egg.ProtectedPrayers && len(egg.Multipliers) > 0 && first.sci != topPrayed(egg.Multipliers) {
			res.PrayersPreserved = true
			return tx.UpsertEgg(&Egg{
				OwnerID:     owner,
				Progress:    0,
				BroodDay:    e.clock.Today(),
				Multipliers: egg.Multipliers,
			})
		}
		return tx.DeleteEgg(owner)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// drawPool builds the weighted candidate list: catalog species plus
// fully manifested ones, with prayer multipliers raised to the research
// exponent.
func (e *Engine) drawPool(tx Tx, multipliers map[string]int, exponent float64) ([]drawCandidate, error) {
	var pool []drawCandidate
	seen := make(map[string]bool)
	for _, s := range e.catalog.Species {
		pool = append(pool, drawCandidate{common: s.CommonName, sci: s.ScientificName, weight: float64(s.Weight)})
		seen[s.ScientificName] = true
	}
	manifested, err := tx.ManifestedAll()
	if err != nil {
		return nil, err
	}
	for _, m := range manifested {
		if !m.FullyManifested || seen[m.ScientificName] {
			continue
		}
		pool = append(pool, drawCandidate{
			common: m.CommonName,
			sci:    m.ScientificName,
			weight: float64(e.catalog.WeightForRarity(string(m.Rarity))),
		})
	}
	for i := range pool {
		if mult, ok := multipliers[pool[i].sci]; ok && mult > 0 {
			pool[i].weight *= math.Pow(float64(mult), exponent)
		}
	}
	return pool, nil
}

// topPrayed returns the species with the largest multiplier, breaking
// ties by name so the preserved-prayer check is deterministic.
func topPrayed(multipliers map[string]int) string {
	var keys []string
	for k := range multipliers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := ""
	bestN := 0
	for _, k := range keys {
		if multipliers[k] > bestN {
			best = k
			bestN = multipliers[k]
		}
	}
	return best
}

// isTaxonomyErr reports whether err belongs to the closed game error
// set (as opposed to an infrastructure failure).
func isTaxonomyErr(err error) bool {
	for _, e := range []error{
		ErrInvalidInput, ErrOutOfActions, ErrNotEnoughResources,
		ErrCapacityExceeded, ErrStateViolation, ErrStickerMismatch,
		ErrExternalUnavailable,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
