package game

import (
	"context"
	"fmt"
)

// PlantNew plants a catalog plant in the player's garden. Planting
// consumes the plant's seed and inspiration costs and one slot of
// garden space; it spends no actions.
func (e *Engine) PlantNew(ctx context.Context, playerID, commonName string) (*Plant, error) {
	spec := e.catalog.PlantByCommon(commonName)
	if spec == nil {
		return nil, fmt.Errorf("%w: unknown plant %q", ErrInvalidInput, commonName)
	}
	var planted *Plant
	err := e.store.WithTx(ctx, func(tx Tx) error {
		p, err := tx.Player(playerID)
		if err != nil {
			return err
		}
		plants, err := tx.PlayerPlants(playerID)
		if err != nil {
			return err
		}
		if len(plants) >= p.GardenSize {
			return fmt.Errorf("%w: garden is full (%d/%d)", ErrCapacityExceeded, len(plants), p.GardenSize)
		}
		if p.Seeds < spec.SeedCost {
			return fmt.Errorf("%w: need %d seeds, have %d", ErrNotEnoughResources, spec.SeedCost, p.Seeds)
		}
		if p.Inspiration < spec.InspirationCost {
			return fmt.Errorf("%w: need %d inspiration, have %d", ErrNotEnoughResources, spec.InspirationCost, p.Inspiration)
		}
		if spec.SeedCost > 0 {
			if err := tx.IncrPlayer(playerID, "seeds", -spec.SeedCost); err != nil {
				return err
			}
		}
		if spec.InspirationCost > 0 {
			if err := tx.IncrPlayer(playerID, "inspiration", -spec.InspirationCost); err != nil {
				return err
			}
		}
		date := e.clock.Today()
		id, err := tx.AddPlant(playerID, spec.CommonName, spec.ScientificName, date)
		if err != nil {
			return err
		}
		planted = &Plant{
			ID:             id,
			OwnerID:        playerID,
			CommonName:     spec.CommonName,
			ScientificName: spec.ScientificName,
			PlantedDate:    date,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return planted, nil
}

// CompostResult reports what a compost refunded.
type CompostResult struct {
	Plant           string
	SeedsRefunded   int
	InspirationBack int
}

// Compost destroys one of the player's plants and refunds 80% of each
// cost, rounded down. The seed refund still respects the twig ceiling.
func (e *Engine) Compost(ctx context.Context, playerID, commonName string) (*CompostResult, error) {
	res := &CompostResult{Plant: commonName}
	err := e.store.WithTx(ctx, func(tx Tx) error {
		plants, err := tx.PlayerPlants(playerID)
		if err != nil {
			return err
		}
		var target *Plant
		for i := range plants {
			if plants[i].CommonName == commonName {
				target = &plants[i]
				break
			}
		}
		if target == nil {
			return fmt.Errorf("%w: no plant named %q in the garden", ErrInvalidInput, commonName)
		}
		spec := e.catalog.PlantByCommon(commonName)
		if spec == nil {
			return fmt.Errorf("%w: plant %q left the catalog", ErrInternal, commonName)
		}
		if err := tx.RemovePlant(target.ID); err != nil {
			return err
		}

		res.SeedsRefunded = spec.SeedCost * 80 / 100
		res.InspirationBack = spec.InspirationCost * 80 / 100

		p, err := tx.Player(playerID)
		if err != nil {
			return err
		}
		if room := p.Twigs - p.Seeds; res.SeedsRefunded > room {
			res.SeedsRefunded = room
		}
		if res.SeedsRefunded < 0 {
			res.SeedsRefunded = 0
		}
		if res.SeedsRefunded > 0 {
			if err := tx.IncrPlayer(playerID, "seeds", res.SeedsRefunded); err != nil {
				return err
			}
		}
		if res.InspirationBack > 0 {
			if err := tx.IncrPlayer(playerID, "inspiration", res.InspirationBack); err != nil {
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
