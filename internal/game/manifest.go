package game

import (
	"context"
	"fmt"
	"strings"
)

// TaxonomyRecord is the canonical identity of a species as reported by
// the external taxonomy service.
type TaxonomyRecord struct {
	ScientificName string
	CommonName     string
	IconicTaxon    string // "Aves", "Plantae", ...
	Observations   int
	PhotoURL       string
}

// Taxonomy resolves a free-text species query. Implemented by
// taxonomy.Client; nil means the service is unconfigured.
type Taxonomy interface {
	Lookup(ctx context.Context, query string) (*TaxonomyRecord, error)
}

// SetTaxonomy installs the external taxonomy resolver.
func (e *Engine) SetTaxonomy(t Taxonomy) { e.taxo = t }

// Iconic taxa accepted by the two manifest commands.
const (
	TaxonBird  = "Aves"
	TaxonPlant = "Plantae"
)

// ManifestResult reports progress toward manifesting a species.
type ManifestResult struct {
	CommonName      string
	ScientificName  string
	Rarity          Rarity
	PointsAdded     int
	Points          int
	Threshold       int
	FullyManifested bool // flipped by this call
	PhotoURL        string
}

// Manifest channels n manifest actions into a species looked up from
// the taxonomy service. Only the actions actually needed to finish are
// charged. wantTaxon restricts the hit to birds or plants.
func (e *Engine) Manifest(ctx context.Context, playerID, query string, n int, wantTaxon string) (*ManifestResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty species name", ErrInvalidInput)
	}
	if e.taxo == nil {
		return nil, fmt.Errorf("%w: taxonomy service not configured", ErrExternalUnavailable)
	}

	rec, err := e.taxo.Lookup(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalUnavailable, err)
	}
	if rec.IconicTaxon != wantTaxon {
		return nil, fmt.Errorf("%w: %q is not a %s", ErrInvalidInput, rec.CommonName, taxonNoun(wantTaxon))
	}

	res := &ManifestResult{
		CommonName:     rec.CommonName,
		ScientificName: rec.ScientificName,
		PhotoURL:       rec.PhotoURL,
	}
	err = e.store.WithTx(ctx, func(tx Tx) error {
		day := e.clock.Today()
		row, err := tx.ManifestedBySci(rec.ScientificName)
		if err != nil {
			return err
		}
		if row == nil {
			row = &ManifestedSpecies{
				ScientificName: rec.ScientificName,
				CommonName:     rec.CommonName,
				Rarity:         RarityFromObservations(rec.Observations),
				IconicTaxon:    rec.IconicTaxon,
			}
		}
		if row.FullyManifested {
			return fmt.Errorf("%w: %s is already fully manifested", ErrStateViolation, row.CommonName)
		}

		threshold := ManifestThreshold(row.Rarity)
		used := n
		if needed := threshold - row.Points; used > needed {
			used = needed
		}

		fx, err := e.effectsFor(tx, playerID)
		if err != nil {
			return err
		}
		first, err := e.isFirstOfType(tx, playerID, day, ActionManifest)
		if err != nil {
			return err
		}
		if err := e.spend(tx, playerID, day, used, ActionManifest); err != nil {
			return err
		}
		if first {
			if _, err := e.applyFirstOfDay(tx, playerID, fx, ActionManifest); err != nil {
				return err
			}
		}

		row.Points += used
		if row.Points >= threshold {
			row.FullyManifested = true
			if err := tx.AppendRealmMessage(day, fmt.Sprintf(
				"%s (%s) has been manifested into the realm!", row.CommonName, row.ScientificName)); err != nil {
				return err
			}
		}
		row.PhotoURL = rec.PhotoURL
		if err := tx.UpsertManifested(row); err != nil {
			return err
		}

		res.Rarity = row.Rarity
		res.PointsAdded = used
		res.Points = row.Points
		res.Threshold = threshold
		res.FullyManifested = row.FullyManifested
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RefreshSpeciesImages re-resolves the cached photo for every
// manifested species. Returns how many rows changed; lookup failures
// skip the row rather than aborting the sweep.
func (e *Engine) RefreshSpeciesImages(ctx context.Context) (int, error) {
	if e.taxo == nil {
		return 0, fmt.Errorf("%w: taxonomy service not configured", ErrExternalUnavailable)
	}
	rows, err := e.ManifestedSpeciesList(ctx)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, row := range rows {
		rec, err := e.taxo.Lookup(ctx, row.ScientificName)
		if err != nil || rec.PhotoURL == "" || rec.PhotoURL == row.PhotoURL {
			continue
		}
		row.PhotoURL = rec.PhotoURL
		err = e.store.WithTx(ctx, func(tx Tx) error {
			return tx.UpsertManifested(&row)
		})
		if err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// ManifestedSpeciesList lists the community's manifestation progress.
func (e *Engine) ManifestedSpeciesList(ctx context.Context) ([]ManifestedSpecies, error) {
	var rows []ManifestedSpecies
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		rows, err = tx.ManifestedAll()
		return err
	})
	return rows, err
}

func taxonNoun(taxon string) string {
	switch taxon {
	case TaxonBird:
		return "bird"
	case TaxonPlant:
		return "plant"
	}
	return strings.ToLower(taxon)
}
