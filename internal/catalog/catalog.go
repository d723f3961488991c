// Package catalog holds the static game content: the species and plant
// catalogs, treasures and their forage tables, adversaries, blessings,
// and researchers. Content ships as embedded YAML so it can grow
// without code changes; effect strings are parsed once at load time.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed data/species.yaml
var speciesYAML []byte

//go:embed data/plants.yaml
var plantsYAML []byte

//go:embed data/treasures.yaml
var treasuresYAML []byte

//go:embed data/adversaries.yaml
var adversariesYAML []byte

//go:embed data/blessings.yaml
var blessingsYAML []byte

//go:embed data/researchers.yaml
var researchersYAML []byte

// Species is one catalog bird eligible for the hatch draw.
type Species struct {
	CommonName     string      `yaml:"common_name"`
	ScientificName string      `yaml:"scientific_name"`
	Rarity         string      `yaml:"rarity"`
	Weight         int         `yaml:"weight"`
	EffectText     string      `yaml:"effect"`

	Effect Effect `yaml:"-"`
}

// Plant is one catalog plant available to plant_new.
type Plant struct {
	CommonName      string `yaml:"common_name"`
	ScientificName  string `yaml:"scientific_name"`
	SeedCost        int    `yaml:"seed_cost"`
	InspirationCost int    `yaml:"inspiration_cost"`
	EffectText      string `yaml:"effect"`

	Effect Effect `yaml:"-"`
}

// Treasure is one decoration token with per-location forage weights.
type Treasure struct {
	ID      string         `yaml:"id"`
	Name    string         `yaml:"name"`
	Weights map[string]int `yaml:"weights"` // forage location -> weight
}

// Adversary is one spawnable shared opponent.
type Adversary struct {
	Name       string `yaml:"name"`
	Tier       int    `yaml:"tier"`
	Resilience int    `yaml:"resilience"`
}

// Blessing is one fleet-wide reward entry. Amounts is indexed by
// adversary tier (tier 1 at index 0).
type Blessing struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Amounts [3]int `yaml:"amounts"`
}

// Blessing types understood by the distribution step.
const (
	BlessCommonSeeds          = "common_seeds"
	BlessCommonNestGrowth     = "common_nest_growth"
	BlessIndividualSeeds      = "individual_seeds"
	BlessInspiration          = "inspiration"
	BlessGardenGrowth         = "garden_growth"
	BlessBonusActions         = "bonus_actions"
	BlessIndividualNestGrowth = "individual_nest_growth"
)

// Milestone is one research reward tier for a researcher.
type Milestone struct {
	Points int    `yaml:"points"`
	Reward string `yaml:"reward"`
}

// Milestone reward families read by other subsystems.
const (
	RewardGardenSpace  = "+1 Max Garden Size"
	RewardPrayerBonus  = "Prayers are 1% more effective"
	RewardNestCapacity = "+1 Nest Capacity"
)

// Researcher is one quotable scholar with a milestone track.
type Researcher struct {
	Name       string      `yaml:"name"`
	Quotes     []string    `yaml:"quotes"`
	Milestones []Milestone `yaml:"milestones"`
}

// Catalog bundles all static content with lookup indexes.
type Catalog struct {
	Species     []Species
	Plants      []Plant
	Treasures   []Treasure
	Adversaries []Adversary
	Blessings   []Blessing
	Researchers []Researcher

	speciesBySci    map[string]*Species
	speciesByCommon map[string]*Species
	plantByCommon   map[string]*Plant
	treasureByID    map[string]*Treasure
}

// Load parses the embedded catalog files and pre-parses every effect
// string.
func Load() (*Catalog, error) {
	c := &Catalog{}
	for _, part := range []struct {
		name string
		data []byte
		dst  any
	}{
		{"species", speciesYAML, &c.Species},
		{"plants", plantsYAML, &c.Plants},
		{"treasures", treasuresYAML, &c.Treasures},
		{"adversaries", adversariesYAML, &c.Adversaries},
		{"blessings", blessingsYAML, &c.Blessings},
		{"researchers", researchersYAML, &c.Researchers},
	} {
		if err := yaml.Unmarshal(part.data, part.dst); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", part.name, err)
		}
	}

	c.Reindex()

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reindex rebuilds the lookup indexes and re-parses every effect
// string. Load calls it once; callers that assemble or extend the
// content slices by hand must call it again before use.
func (c *Catalog) Reindex() {
	c.speciesBySci = make(map[string]*Species, len(c.Species))
	c.speciesByCommon = make(map[string]*Species, len(c.Species))
	for i := range c.Species {
		s := &c.Species[i]
		s.Effect = ParseEffect(s.EffectText)
		c.speciesBySci[s.ScientificName] = s
		c.speciesByCommon[s.CommonName] = s
	}

	c.plantByCommon = make(map[string]*Plant, len(c.Plants))
	for i := range c.Plants {
		p := &c.Plants[i]
		p.Effect = ParseEffect(p.EffectText)
		c.plantByCommon[p.CommonName] = p
	}

	c.treasureByID = make(map[string]*Treasure, len(c.Treasures))
	for i := range c.Treasures {
		c.treasureByID[c.Treasures[i].ID] = &c.Treasures[i]
	}
}

func (c *Catalog) validate() error {
	if len(c.Species) == 0 {
		return fmt.Errorf("catalog: no species")
	}
	for _, a := range c.Adversaries {
		if a.Tier < 1 || a.Tier > 3 {
			return fmt.Errorf("catalog: adversary %q tier %d out of range", a.Name, a.Tier)
		}
		if a.Resilience <= 0 {
			return fmt.Errorf("catalog: adversary %q has no resilience", a.Name)
		}
	}
	for _, b := range c.Blessings {
		switch b.Type {
		case BlessCommonSeeds, BlessCommonNestGrowth, BlessIndividualSeeds,
			BlessInspiration, BlessGardenGrowth, BlessBonusActions, BlessIndividualNestGrowth:
		default:
			return fmt.Errorf("catalog: blessing %q has unknown type %q", b.Name, b.Type)
		}
	}
	return nil
}

// SpeciesBySci returns the catalog species with the given scientific
// name, or nil.
func (c *Catalog) SpeciesBySci(sci string) *Species { return c.speciesBySci[sci] }

// SpeciesByCommon returns the catalog species with the given common
// name, or nil.
func (c *Catalog) SpeciesByCommon(name string) *Species { return c.speciesByCommon[name] }

// PlantByCommon returns the catalog plant with the given common name,
// or nil.
func (c *Catalog) PlantByCommon(name string) *Plant { return c.plantByCommon[name] }

// TreasureByID returns the treasure with the given id, or nil.
func (c *Catalog) TreasureByID(id string) *Treasure { return c.treasureByID[id] }

// WeightForRarity returns the draw weight a manifested species of the
// given rarity inherits: the weight of a catalog peer of the same
// rarity.
func (c *Catalog) WeightForRarity(r string) int {
	for i := range c.Species {
		if c.Species[i].Rarity == r {
			return c.Species[i].Weight
		}
	}
	return 1
}

// AdversariesForTier returns all adversaries of the given tier.
func (c *Catalog) AdversariesForTier(tier int) []Adversary {
	var out []Adversary
	for _, a := range c.Adversaries {
		if a.Tier == tier {
			out = append(out, a)
		}
	}
	return out
}

// ResearcherByName returns the researcher with the given name, or nil.
func (c *Catalog) ResearcherByName(name string) *Researcher {
	for i := range c.Researchers {
		if c.Researchers[i].Name == name {
			return &c.Researchers[i]
		}
	}
	return nil
}
