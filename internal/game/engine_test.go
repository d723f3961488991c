package game_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/talgya/rookery/internal/catalog"
	"github.com/talgya/rookery/internal/game"
	"github.com/talgya/rookery/internal/store"
)

// stubRand serves scripted draws, then falls back to values that fail
// every Bernoulli trial and pick index zero.
type stubRand struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (r *stubRand) Float() float64 {
	if r.fi < len(r.floats) {
		v := r.floats[r.fi]
		r.fi++
		return v
	}
	return 0.99
}

func (r *stubRand) Intn(n int) int {
	if r.ii < len(r.ints) {
		v := r.ints[r.ii] % n
		r.ii++
		return v
	}
	return 0
}

func newTestEngine(t *testing.T, rng game.Rand) (*game.Engine, *store.DB) {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	clock := game.FixedClock(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC), time.UTC)
	return game.New(db, clock, rng, cat), db
}

func TestBuildClampsToBudget(t *testing.T) {
	eng, _ := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	res, err := eng.Build(ctx, "p", 5)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Deposited != game.BaseDailyActions {
		t.Fatalf("deposited = %d, want %d", res.Deposited, game.BaseDailyActions)
	}
	if res.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", res.Remaining)
	}

	_, err = eng.Build(ctx, "p", 1)
	if !errors.Is(err, game.ErrOutOfActions) {
		t.Fatalf("err = %v, want ErrOutOfActions", err)
	}
}

func TestAddSeedRespectsTwigCeiling(t *testing.T) {
	eng, _ := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	if _, err := eng.Build(ctx, "p", 2); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := eng.GrantBonus(ctx, "p", 10); err != nil {
		t.Fatalf("grant: %v", err)
	}

	// 2 twigs, 0 seeds: a request for 5 clamps to the twig ceiling.
	res, err := eng.AddSeed(ctx, "p", 5)
	if err != nil {
		t.Fatalf("add seed: %v", err)
	}
	if res.Deposited != 2 {
		t.Fatalf("deposited = %d, want 2", res.Deposited)
	}

	_, err = eng.AddSeed(ctx, "p", 1)
	if !errors.Is(err, game.ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
}

func TestDonateAndBorrowSeeds(t *testing.T) {
	eng, _ := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	if err := eng.GrantBoon(ctx, "p", game.BoonTwigs, 10); err != nil {
		t.Fatalf("twigs: %v", err)
	}
	if err := eng.GrantBoon(ctx, "p", game.BoonSeeds, 10); err != nil {
		t.Fatalf("seeds: %v", err)
	}

	// Common nest has no twigs: the donation must be refused whole.
	if err := eng.DonateSeeds(ctx, "p", 5); !errors.Is(err, game.ErrCapacityExceeded) {
		t.Fatalf("donate err = %v, want ErrCapacityExceeded", err)
	}

	if _, err := eng.BuildCommon(ctx, "p", 3); err != nil {
		t.Fatalf("build common: %v", err)
	}
	if err := eng.DonateSeeds(ctx, "p", 3); err != nil {
		t.Fatalf("donate: %v", err)
	}
	if err := eng.BorrowSeeds(ctx, "p", 3); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if err := eng.BorrowSeeds(ctx, "p", 1); !errors.Is(err, game.ErrNotEnoughResources) {
		t.Fatalf("borrow err = %v, want ErrNotEnoughResources", err)
	}
}

func TestSingStopsWhenOutOfActions(t *testing.T) {
	eng, _ := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	// Burn one action so two remain.
	if _, err := eng.Build(ctx, "p", 1); err != nil {
		t.Fatalf("build: %v", err)
	}

	res, err := eng.Sing(ctx, "p", []string{"x", "y", "z"})
	if err != nil {
		t.Fatalf("sing: %v", err)
	}
	if len(res.Targets) != 3 {
		t.Fatalf("targets = %d, want 3", len(res.Targets))
	}
	for i, want := range []bool{true, true, false} {
		if res.Targets[i].Sung != want {
			t.Fatalf("target %d sung = %v, want %v", i, res.Targets[i].Sung, want)
		}
	}
	if res.Targets[2].Skipped != "no actions left" {
		t.Fatalf("skip reason = %q", res.Targets[2].Skipped)
	}
	if res.Targets[0].BonusGiven != game.SingBaseGrant {
		t.Fatalf("bonus = %d, want %d", res.Targets[0].BonusGiven, game.SingBaseGrant)
	}

	// The recipients can spend their gift.
	rem, err := eng.Remaining(ctx, "x")
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if rem != game.BaseDailyActions+game.SingBaseGrant {
		t.Fatalf("x remaining = %d, want %d", rem, game.BaseDailyActions+game.SingBaseGrant)
	}
}

func TestSingDeduplicatesPerDay(t *testing.T) {
	eng, _ := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	if _, err := eng.Sing(ctx, "p", []string{"x", "p"}); err != nil {
		t.Fatalf("sing: %v", err)
	}
	res, err := eng.SingRepeat(ctx, "p")
	if err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if res.Targets[0].Sung || res.Targets[0].Skipped != "already sung to today" {
		t.Fatalf("dedup miss: %+v", res.Targets[0])
	}
	if res.Targets[1].Skipped != "you cannot sing to yourself" {
		t.Fatalf("self skip = %q", res.Targets[1].Skipped)
	}
}

func TestLayBroodHatch(t *testing.T) {
	eng, _ := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	if err := eng.GrantBoon(ctx, "owner", game.BoonTwigs, 30); err != nil {
		t.Fatalf("twigs: %v", err)
	}
	if err := eng.GrantBoon(ctx, "owner", game.BoonSeeds, 30); err != nil {
		t.Fatalf("seeds: %v", err)
	}

	lay, err := eng.LayEgg(ctx, "owner")
	if err != nil {
		t.Fatalf("lay: %v", err)
	}
	if lay.InitialProgress != 0 {
		t.Fatalf("initial progress = %d, want 0", lay.InitialProgress)
	}
	if _, err := eng.LayEgg(ctx, "owner"); !errors.Is(err, game.ErrStateViolation) {
		t.Fatalf("second lay err = %v, want ErrStateViolation", err)
	}

	// Ten distinct brooders take the egg to the hatch.
	var last *game.BroodResult
	for i := 0; i < game.BroodTarget; i++ {
		last, err = eng.Brood(ctx, fmt.Sprintf("b%d", i), "owner")
		if err != nil {
			t.Fatalf("brood %d: %v", i, err)
		}
	}
	if last.Hatched == nil {
		t.Fatalf("tenth brood did not hatch: %+v", last)
	}
	if len(last.Hatched.Birds) != 1 {
		t.Fatalf("birds = %d, want 1", len(last.Hatched.Birds))
	}

	nest, err := eng.Nest(ctx, "owner")
	if err != nil {
		t.Fatalf("nest: %v", err)
	}
	if nest.Egg != nil {
		t.Fatalf("egg should be gone after hatch")
	}
	if len(nest.Birds) != 1 {
		t.Fatalf("nest birds = %d, want 1", len(nest.Birds))
	}
}

func TestBroodOwnEggForbidden(t *testing.T) {
	eng, _ := newTestEngine(t, &stubRand{})
	if _, err := eng.Brood(context.Background(), "p", "p"); !errors.Is(err, game.ErrStateViolation) {
		t.Fatalf("err = %v, want ErrStateViolation", err)
	}
}

func TestBroodDeduplicatesPerPairPerDay(t *testing.T) {
	eng, _ := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	if err := eng.GrantBoon(ctx, "owner", game.BoonTwigs, 30); err != nil {
		t.Fatalf("twigs: %v", err)
	}
	if err := eng.GrantBoon(ctx, "owner", game.BoonSeeds, 30); err != nil {
		t.Fatalf("seeds: %v", err)
	}
	if _, err := eng.LayEgg(ctx, "owner"); err != nil {
		t.Fatalf("lay: %v", err)
	}
	if _, err := eng.Brood(ctx, "b", "owner"); err != nil {
		t.Fatalf("brood: %v", err)
	}
	if _, err := eng.Brood(ctx, "b", "owner"); !errors.Is(err, game.ErrStateViolation) {
		t.Fatalf("err = %v, want ErrStateViolation", err)
	}
}

func TestAdversaryDefeatDistributesBlessing(t *testing.T) {
	// Spawn picks Shadow Currawong (tier 1, resilience 60); the defeat
	// draw lands on Morning Chorus (inspiration, tier 1 amount 10).
	eng, _ := newTestEngine(t, &stubRand{ints: []int{0, 3}})
	ctx := context.Background()

	if err := eng.GrantBonus(ctx, "p", 60); err != nil {
		t.Fatalf("grant: %v", err)
	}
	res, err := eng.Swoop(ctx, "p", 60)
	if err != nil {
		t.Fatalf("swoop: %v", err)
	}
	if !res.Defeated {
		t.Fatalf("not defeated: %+v", res)
	}
	if res.Blessing != "Morning Chorus" || res.Amount != 10 {
		t.Fatalf("blessing = %q (%d), want Morning Chorus (10)", res.Blessing, res.Amount)
	}

	nest, err := eng.Nest(ctx, "p")
	if err != nil {
		t.Fatalf("nest: %v", err)
	}
	if nest.Player.Inspiration != 10 {
		t.Fatalf("inspiration = %d, want 10", nest.Player.Inspiration)
	}

	log, err := eng.DefeatedLog(ctx, 10)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(log) != 1 || log[0].Name != "Shadow Currawong" {
		t.Fatalf("defeated log = %+v", log)
	}

	// Defeated today: no respawn until tomorrow.
	if _, err := eng.Swoop(ctx, "p", 1); !errors.Is(err, game.ErrStateViolation) {
		t.Fatalf("err = %v, want ErrStateViolation", err)
	}
}

func TestPlantAndCompost(t *testing.T) {
	eng, _ := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	if err := eng.GrantBoon(ctx, "p", game.BoonTwigs, 20); err != nil {
		t.Fatalf("twigs: %v", err)
	}
	if err := eng.GrantBoon(ctx, "p", game.BoonSeeds, 20); err != nil {
		t.Fatalf("seeds: %v", err)
	}
	if err := eng.GrantBoon(ctx, "p", game.BoonInspiration, 5); err != nil {
		t.Fatalf("inspiration: %v", err)
	}

	// No garden space yet.
	if _, err := eng.PlantNew(ctx, "p", "Golden Wattle"); !errors.Is(err, game.ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	if err := eng.GrantBoon(ctx, "p", game.BoonGardenSize, 1); err != nil {
		t.Fatalf("garden: %v", err)
	}

	plant, err := eng.PlantNew(ctx, "p", "Golden Wattle")
	if err != nil {
		t.Fatalf("plant: %v", err)
	}
	if plant.ScientificName != "Acacia pycnantha" {
		t.Fatalf("scientific = %q", plant.ScientificName)
	}

	// Golden Wattle costs 5 seeds and 1 inspiration; 80% back, floored.
	res, err := eng.Compost(ctx, "p", "Golden Wattle")
	if err != nil {
		t.Fatalf("compost: %v", err)
	}
	if res.SeedsRefunded != 4 || res.InspirationBack != 0 {
		t.Fatalf("refund = %d seeds %d inspiration, want 4 and 0", res.SeedsRefunded, res.InspirationBack)
	}
}

type stubTaxo struct {
	rec game.TaxonomyRecord
}

func (s stubTaxo) Lookup(ctx context.Context, query string) (*game.TaxonomyRecord, error) {
	r := s.rec
	return &r, nil
}

func TestManifestChargesOnlyWhatFinishes(t *testing.T) {
	eng, _ := newTestEngine(t, &stubRand{})
	eng.SetTaxonomy(stubTaxo{rec: game.TaxonomyRecord{
		ScientificName: "Dacelo novaeguineae",
		CommonName:     "Laughing Kookaburra",
		IconicTaxon:    game.TaxonBird,
		Observations:   5000,
	}})
	ctx := context.Background()

	if err := eng.GrantBonus(ctx, "p", 50); err != nil {
		t.Fatalf("grant: %v", err)
	}
	res, err := eng.Manifest(ctx, "p", "kookaburra", 100, game.TaxonBird)
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if res.Rarity != game.RarityCommon || res.Threshold != 40 {
		t.Fatalf("rarity = %q threshold %d", res.Rarity, res.Threshold)
	}
	if res.PointsAdded != 40 || !res.FullyManifested {
		t.Fatalf("points = %d fully = %v, want 40/true", res.PointsAdded, res.FullyManifested)
	}

	// Only the 40 needed actions were charged.
	rem, err := eng.Remaining(ctx, "p")
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if rem != game.BaseDailyActions+50-40 {
		t.Fatalf("remaining = %d, want %d", rem, game.BaseDailyActions+50-40)
	}

	if _, err := eng.Manifest(ctx, "p", "kookaburra", 1, game.TaxonBird); !errors.Is(err, game.ErrStateViolation) {
		t.Fatalf("err = %v, want ErrStateViolation", err)
	}
	if _, err := eng.Manifest(ctx, "p", "kookaburra", 1, game.TaxonPlant); !errors.Is(err, game.ErrInvalidInput) {
		t.Fatalf("taxon err = %v, want ErrInvalidInput", err)
	}
}

func TestSaveDecorationsConservesTokens(t *testing.T) {
	eng, db := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx game.Tx) error {
		if _, err := tx.Player("p"); err != nil {
			return err
		}
		return tx.AddTreasure("p", "river_stone", 2)
	})
	if err != nil {
		t.Fatalf("seed inventory: %v", err)
	}

	place := []game.Placement{{TreasureID: "river_stone", X: 150, Y: -3, Size: 2, Rotation: -90}}

	// Proposed state invents a token out of thin air.
	err = eng.SaveDecorations(ctx, "p", game.EntityNest, "p", place, map[string]int{"river_stone": 2})
	if !errors.Is(err, game.ErrStickerMismatch) {
		t.Fatalf("err = %v, want ErrStickerMismatch", err)
	}

	if err := eng.SaveDecorations(ctx, "p", game.EntityNest, "p", place, map[string]int{"river_stone": 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := eng.Decorations(ctx, "p", game.EntityNest, "p")
	if err != nil {
		t.Fatalf("decorations: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("placements = %d, want 1", len(got))
	}
	p := got[0]
	if p.X != 100 || p.Y != 0 || p.Size != 5 || p.Rotation != 270 {
		t.Fatalf("clamp: %+v", p)
	}
}

func TestMemoirOncePerDay(t *testing.T) {
	eng, _ := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	if err := eng.WriteMemoir(ctx, "p", "a fine day of brooding"); err != nil {
		t.Fatalf("memoir: %v", err)
	}
	if err := eng.WriteMemoir(ctx, "p", "another entry"); !errors.Is(err, game.ErrStateViolation) {
		t.Fatalf("err = %v, want ErrStateViolation", err)
	}
}

func TestExploreAdvancesRealmCounter(t *testing.T) {
	eng, _ := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	res, err := eng.Explore(ctx, "p", "forest", 2)
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("total = %d, want 2", res.Total)
	}
	if _, err := eng.Explore(ctx, "p", "the moon", 1); !errors.Is(err, game.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestGraduateBirdBumpsTally(t *testing.T) {
	eng, db := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx game.Tx) error {
		_, err := tx.AddBird("p", "Superb Fairywren", "Malurus cyaneus")
		return err
	})
	if err != nil {
		t.Fatalf("seed bird: %v", err)
	}

	bird, tally, err := eng.GraduateBird(ctx, "p", "Superb Fairywren")
	if err != nil {
		t.Fatalf("graduate: %v", err)
	}
	if bird.ScientificName != "Malurus cyaneus" || tally != 1 {
		t.Fatalf("bird = %+v tally = %d", bird, tally)
	}
}

func TestEntrustChecksReceiverCapacity(t *testing.T) {
	eng, db := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx game.Tx) error {
		if _, err := tx.AddBird("giver", "Gang-gang Cockatoo", "Callocephalon fimbriatum"); err != nil {
			return err
		}
		for i := 0; i < game.MaxBirdsPerNest; i++ {
			if _, err := tx.AddBird("full", "Noisy Miner", "Manorina melanocephala"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed birds: %v", err)
	}

	_, err = eng.Entrust(ctx, "giver", "full", "Gang-gang Cockatoo")
	if !errors.Is(err, game.ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}

	bird, err := eng.Entrust(ctx, "giver", "roomy", "Gang-gang Cockatoo")
	if err != nil {
		t.Fatalf("entrust: %v", err)
	}
	if bird.CommonName != "Gang-gang Cockatoo" {
		t.Fatalf("bird = %+v", bird)
	}
}

func TestStudyAwardsDoubleForCorrectAuthor(t *testing.T) {
	eng, _ := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	quote, err := eng.StartStudy(ctx, "p", 2)
	if err != nil {
		t.Fatalf("study: %v", err)
	}
	res, err := eng.AnswerStudy(ctx, "p", quote.Author)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !res.Correct || res.PointsAwarded != 4 {
		t.Fatalf("correct = %v points = %d, want true/4", res.Correct, res.PointsAwarded)
	}
	if _, err := eng.AnswerStudy(ctx, "p", quote.Author); !errors.Is(err, game.ErrStateViolation) {
		t.Fatalf("err = %v, want ErrStateViolation", err)
	}
}

func TestCommonSeedBonusRespectsTwigCeiling(t *testing.T) {
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	cat.Species = append(cat.Species, catalog.Species{
		CommonName:     "Granary Finch",
		ScientificName: "Fringilla horrearia",
		Rarity:         "common",
		Weight:         1,
		EffectText:     "All your first seed actions are +100% more effective",
	})
	cat.Reindex()
	clock := game.FixedClock(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC), time.UTC)
	eng := game.New(db, clock, &stubRand{}, cat)
	ctx := context.Background()

	err = db.WithTx(ctx, func(tx game.Tx) error {
		_, err := tx.AddBird("p", "Granary Finch", "Fringilla horrearia")
		return err
	})
	if err != nil {
		t.Fatalf("seed bird: %v", err)
	}
	if err := eng.GrantBonus(ctx, "p", 10); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := eng.BuildCommon(ctx, "p", 3); err != nil {
		t.Fatalf("build common: %v", err)
	}

	// 2 deposited + effectiveness extra of 2, but only 1 seed of room
	// remains under the 3 shared twigs.
	res, err := eng.AddSeedCommon(ctx, "p", 2)
	if err != nil {
		t.Fatalf("add seed common: %v", err)
	}
	if res.Deposited != 3 {
		t.Fatalf("deposited = %d, want 3", res.Deposited)
	}
	nest, err := eng.Nest(ctx, "p")
	if err != nil {
		t.Fatalf("nest: %v", err)
	}
	if nest.Shared.Seeds != 3 || nest.Shared.Twigs != 3 {
		t.Fatalf("shared = %d seeds / %d twigs, want 3/3", nest.Shared.Seeds, nest.Shared.Twigs)
	}
	if _, err := eng.AddSeedCommon(ctx, "p", 1); !errors.Is(err, game.ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
}

func TestBlessedEggCarriesPrayersForward(t *testing.T) {
	// The scripted draw lands on the pool head, not the prayed-for
	// species, so the blessing must roll the multipliers into a fresh
	// egg.
	eng, db := newTestEngine(t, &stubRand{floats: []float64{0}})
	ctx := context.Background()

	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	drawn, prayed := cat.Species[0], cat.Species[1]

	err = db.WithTx(ctx, func(tx game.Tx) error {
		if _, err := tx.Player("owner"); err != nil {
			return err
		}
		return tx.UpsertEgg(&game.Egg{
			OwnerID:          "owner",
			Progress:         game.BroodTarget - 1,
			BroodDay:         "2026-09-01",
			Multipliers:      map[string]int{prayed.ScientificName: 4},
			ProtectedPrayers: true,
		})
	})
	if err != nil {
		t.Fatalf("seed egg: %v", err)
	}

	res, err := eng.Brood(ctx, "b", "owner")
	if err != nil {
		t.Fatalf("brood: %v", err)
	}
	if res.Hatched == nil || !res.Hatched.PrayersPreserved {
		t.Fatalf("hatch = %+v, want preserved prayers", res.Hatched)
	}
	if len(res.Hatched.Birds) != 1 || res.Hatched.Birds[0].CommonName != drawn.CommonName {
		t.Fatalf("birds = %+v, want one %s", res.Hatched.Birds, drawn.CommonName)
	}

	nest, err := eng.Nest(ctx, "owner")
	if err != nil {
		t.Fatalf("nest: %v", err)
	}
	egg := nest.Egg
	if egg == nil {
		t.Fatalf("no replacement egg")
	}
	if egg.Progress != 0 {
		t.Fatalf("replacement progress = %d, want 0", egg.Progress)
	}
	if egg.Multipliers[prayed.ScientificName] != 4 {
		t.Fatalf("multipliers = %v, want %s:4", egg.Multipliers, prayed.ScientificName)
	}
	if egg.ProtectedPrayers {
		t.Fatalf("blessing should be consumed by the hatch")
	}
}

func TestSpendDrainsBonusBeforeDailyBudget(t *testing.T) {
	eng, db := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	if err := eng.GrantBonus(ctx, "p", 5); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := eng.Build(ctx, "p", 7); err != nil {
		t.Fatalf("build: %v", err)
	}

	err := db.WithTx(ctx, func(tx game.Tx) error {
		p, err := tx.Player("p")
		if err != nil {
			return err
		}
		if p.BonusActions != 0 {
			t.Errorf("bonus actions = %d, want 0", p.BonusActions)
		}
		rec, err := tx.DailyActions("p", eng.Clock().Today())
		if err != nil {
			return err
		}
		if rec.Used != 2 {
			t.Errorf("used = %d, want 2", rec.Used)
		}
		if len(rec.History) != 7 {
			t.Errorf("history = %d entries, want 7", len(rec.History))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
}

func TestGrantBoonClampsNegativeAmounts(t *testing.T) {
	eng, db := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	if err := eng.GrantBoon(ctx, "p", game.BoonTwigs, 10); err != nil {
		t.Fatalf("twigs: %v", err)
	}
	if err := eng.GrantBoon(ctx, "p", game.BoonSeeds, 4); err != nil {
		t.Fatalf("seeds: %v", err)
	}

	// Taking more seeds than held stops at zero.
	if err := eng.GrantBoon(ctx, "p", game.BoonSeeds, -9); err != nil {
		t.Fatalf("take seeds: %v", err)
	}
	if err := eng.GrantBoon(ctx, "p", game.BoonSeeds, -1); !errors.Is(err, game.ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}

	// Twigs stop at the seeds they shelter.
	if err := eng.GrantBoon(ctx, "p", game.BoonSeeds, 6); err != nil {
		t.Fatalf("seeds back: %v", err)
	}
	if err := eng.GrantBoon(ctx, "p", game.BoonTwigs, -20); err != nil {
		t.Fatalf("take twigs: %v", err)
	}

	if err := eng.GrantBoon(ctx, "p", game.BoonGardenSize, 3); err != nil {
		t.Fatalf("garden: %v", err)
	}
	if err := eng.GrantBoon(ctx, "p", game.BoonGardenSize, -5); err != nil {
		t.Fatalf("take garden: %v", err)
	}

	err := db.WithTx(ctx, func(tx game.Tx) error {
		p, err := tx.Player("p")
		if err != nil {
			return err
		}
		if p.Seeds != 6 || p.Twigs != 6 {
			t.Errorf("seeds/twigs = %d/%d, want 6/6", p.Seeds, p.Twigs)
		}
		if p.GardenSize != 0 {
			t.Errorf("garden = %d, want 0", p.GardenSize)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
}

func TestBonusActionsDrainFirstAndStayNegative(t *testing.T) {
	eng, _ := newTestEngine(t, &stubRand{})
	ctx := context.Background()

	if err := eng.GrantBonus(ctx, "p", -5); err != nil {
		t.Fatalf("grant: %v", err)
	}
	// A negative balance never reduces the base allotment.
	rem, err := eng.Remaining(ctx, "p")
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if rem != game.BaseDailyActions {
		t.Fatalf("remaining = %d, want %d", rem, game.BaseDailyActions)
	}
}
