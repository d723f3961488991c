package catalog

import "testing"

func TestLoad(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Species) == 0 || len(c.Plants) == 0 || len(c.Treasures) == 0 {
		t.Fatalf("catalog incomplete: %d species %d plants %d treasures",
			len(c.Species), len(c.Plants), len(c.Treasures))
	}
	if len(c.Blessings) == 0 || len(c.Researchers) == 0 {
		t.Fatalf("catalog incomplete: %d blessings %d researchers",
			len(c.Blessings), len(c.Researchers))
	}

	// Every tier must be able to spawn something.
	for tier := 1; tier <= 3; tier++ {
		if len(c.AdversariesForTier(tier)) == 0 {
			t.Errorf("no adversaries for tier %d", tier)
		}
	}

	// Lookup indexes resolve both directions.
	for _, s := range c.Species {
		if c.SpeciesBySci(s.ScientificName) == nil {
			t.Errorf("SpeciesBySci(%q) = nil", s.ScientificName)
		}
		if c.SpeciesByCommon(s.CommonName) == nil {
			t.Errorf("SpeciesByCommon(%q) = nil", s.CommonName)
		}
	}
	for _, tr := range c.Treasures {
		if c.TreasureByID(tr.ID) == nil {
			t.Errorf("TreasureByID(%q) = nil", tr.ID)
		}
	}

	// Blessing amounts must cover all three tiers.
	for _, b := range c.Blessings {
		if len(b.Amounts) != 3 {
			t.Errorf("blessing %q has %d amounts, want 3", b.Name, len(b.Amounts))
		}
	}
}
