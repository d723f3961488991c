package game

import (
	"context"
	"fmt"
	"math"
)

// SaveDecorations applies one decorator save: the proposed placements
// for a single owned entity plus the proposed leftover inventory. The
// multiset of treasure ids across {entity placements, inventory} must
// be conserved or the save fails with no mutation. Placements are
// clamped to the render surface before storage.
func (e *Engine) SaveDecorations(ctx context.Context, playerID, entityType, entityID string, placements []Placement, inventory map[string]int) error {
	switch entityType {
	case EntityNest, EntityBird, EntityPlant:
	default:
		return fmt.Errorf("%w: unknown entity type %q", ErrInvalidInput, entityType)
	}
	for id, n := range inventory {
		if n < 0 {
			return fmt.Errorf("%w: negative inventory count for %q", ErrInvalidInput, id)
		}
	}
	for _, p := range placements {
		if e.catalog.TreasureByID(p.TreasureID) == nil {
			return fmt.Errorf("%w: unknown treasure %q", ErrInvalidInput, p.TreasureID)
		}
	}

	return e.store.WithTx(ctx, func(tx Tx) error {
		if err := e.checkEntityOwned(tx, playerID, entityType, entityID); err != nil {
			return err
		}

		current, err := tx.Placements(entityType, entityID)
		if err != nil {
			return err
		}
		inv, err := tx.TreasureInventory(playerID)
		if err != nil {
			return err
		}

		before := make(map[string]int)
		for _, p := range current {
			before[p.TreasureID]++
		}
		for id, n := range inv {
			before[id] += n
		}
		after := make(map[string]int)
		for _, p := range placements {
			after[p.TreasureID]++
		}
		for id, n := range inventory {
			after[id] += n
		}
		if !sameMultiset(before, after) {
			return fmt.Errorf("%w: decorations do not add up", ErrStickerMismatch)
		}

		clamped := make([]Placement, len(placements))
		for i, p := range placements {
			clamped[i] = clampPlacement(p)
		}
		if err := tx.ReplacePlacements(entityType, entityID, clamped); err != nil {
			return err
		}
		return tx.SetTreasureInventory(playerID, inventory)
	})
}

// Decorations returns the placements on an owned entity.
func (e *Engine) Decorations(ctx context.Context, playerID, entityType, entityID string) ([]Placement, error) {
	var out []Placement
	err := e.store.WithTx(ctx, func(tx Tx) error {
		if err := e.checkEntityOwned(tx, playerID, entityType, entityID); err != nil {
			return err
		}
		var err error
		out, err = tx.Placements(entityType, entityID)
		return err
	})
	return out, err
}

// Inventory returns the player's unplaced decoration tokens.
func (e *Engine) Inventory(ctx context.Context, playerID string) (map[string]int, error) {
	var inv map[string]int
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		inv, err = tx.TreasureInventory(playerID)
		return err
	})
	return inv, err
}

func (e *Engine) checkEntityOwned(tx Tx, playerID, entityType, entityID string) error {
	switch entityType {
	case EntityNest:
		if entityID != playerID {
			return fmt.Errorf("%w: not your nest", ErrInvalidInput)
		}
		return nil
	case EntityBird:
		birds, err := tx.PlayerBirds(playerID)
		if err != nil {
			return err
		}
		for _, b := range birds {
			if b.ID == entityID {
				return nil
			}
		}
		return fmt.Errorf("%w: not your bird", ErrInvalidInput)
	case EntityPlant:
		plants, err := tx.PlayerPlants(playerID)
		if err != nil {
			return err
		}
		for _, p := range plants {
			if p.ID == entityID {
				return nil
			}
		}
		return fmt.Errorf("%w: not your plant", ErrInvalidInput)
	}
	return fmt.Errorf("%w: unknown entity type %q", ErrInvalidInput, entityType)
}

func sameMultiset(a, b map[string]int) bool {
	if len(pruneZero(a)) != len(pruneZero(b)) {
		return false
	}
	for id, n := range a {
		if n != b[id] {
			return false
		}
	}
	return true
}

func pruneZero(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for id, n := range m {
		if n != 0 {
			out[id] = n
		}
	}
	return out
}

// clampPlacement forces coordinates onto the decorator surface:
// x and y in [0,100], size in [5,100], rotation normalized to [0,360).
func clampPlacement(p Placement) Placement {
	p.X = clamp(p.X, 0, 100)
	p.Y = clamp(p.Y, 0, 100)
	p.Size = clamp(p.Size, 5, 100)
	p.Rotation = math.Mod(p.Rotation, 360)
	if p.Rotation < 0 {
		p.Rotation += 360
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
