package game

import (
	"strconv"

	"github.com/talgya/rookery/internal/catalog"
)

// playerEffects aggregates the parsed effects of everything a player
// owns. Computed fresh inside each transaction; cheap relative to the
// row reads it already did.
type playerEffects struct {
	// firstOfDay maps action tag -> flat resource grants.
	firstOfDay map[string][]catalog.Effect
	// firstBetterPct maps action tag -> summed effectiveness percent.
	firstBetterPct map[string]float64
	// songBonus is the additive bonus-action grant per song target.
	songBonus int
	// singInspoChances holds per-bird inspiration chances (independent
	// trials on the first sing of the day).
	singInspoChances []float64
	// lessBroodPct and extraBirdPct are summed across owned plants.
	lessBroodPct float64
	extraBirdPct float64
}

func (e *Engine) effectsFor(tx Tx, playerID string) (*playerEffects, error) {
	fx := &playerEffects{
		firstOfDay:     make(map[string][]catalog.Effect),
		firstBetterPct: make(map[string]float64),
	}

	birds, err := tx.PlayerBirds(playerID)
	if err != nil {
		return nil, err
	}
	for _, b := range birds {
		spec := e.catalog.SpeciesBySci(b.ScientificName)
		if spec == nil {
			// Manifested species carry no effects.
			continue
		}
		fx.add(spec.Effect)
	}

	plants, err := tx.PlayerPlants(playerID)
	if err != nil {
		return nil, err
	}
	for _, p := range plants {
		spec := e.catalog.PlantByCommon(p.CommonName)
		if spec == nil {
			continue
		}
		fx.add(spec.Effect)
	}
	return fx, nil
}

func (fx *playerEffects) add(ef catalog.Effect) {
	switch ef.Kind {
	case catalog.EffectFirstOfDayResource:
		fx.firstOfDay[ef.Tag] = append(fx.firstOfDay[ef.Tag], ef)
	case catalog.EffectSongBonus:
		fx.songBonus += ef.Amount
	case catalog.EffectFirstMoreEffective:
		fx.firstBetterPct[ef.Tag] += ef.Percent
	case catalog.EffectLessBrood:
		fx.lessBroodPct += ef.Percent
	case catalog.EffectExtraBird:
		fx.extraBirdPct += ef.Percent
	case catalog.EffectSingInspiration:
		fx.singInspoChances = append(fx.singInspoChances, ef.Percent)
	}
}

// applyFirstOfDay grants the flat first-of-type resources for tag,
// returning a description of what was granted for the gateway.
// Resource names outside the ledger vocabulary are inert.
func (e *Engine) applyFirstOfDay(tx Tx, playerID string, fx *playerEffects, tag string) ([]string, error) {
	var notes []string
	for _, ef := range fx.firstOfDay[tag] {
		var field string
		switch ef.Resource {
		case "twigs":
			field = "twigs"
		case "seeds":
			field = "seeds"
		case "inspiration":
			field = "inspiration"
		case "bonus actions":
			field = "bonus_actions"
		default:
			continue
		}
		if field == "seeds" {
			// Seed grants respect the seeds <= twigs ceiling.
			p, err := tx.Player(playerID)
			if err != nil {
				return nil, err
			}
			room := p.Twigs - p.Seeds
			if room <= 0 {
				continue
			}
			n := ef.Amount
			if n > room {
				n = room
			}
			if err := tx.IncrPlayer(playerID, "seeds", n); err != nil {
				return nil, err
			}
			notes = append(notes, note(n, "seeds"))
			continue
		}
		if err := tx.IncrPlayer(playerID, field, ef.Amount); err != nil {
			return nil, err
		}
		notes = append(notes, note(ef.Amount, ef.Resource))
	}
	return notes, nil
}

func note(n int, resource string) string {
	return "+" + strconv.Itoa(n) + " " + resource
}

// firstBonus returns the extra effect amount for the first action of
// the given tag today: floor(base * pct / 100), zero when the tag was
// already used.
func firstBonus(base int, pct float64) int {
	return int(float64(base) * pct / 100.0)
}
