package game

import "context"

// Store is the persistence surface the engine depends on. Every engine
// operation runs inside a single transaction obtained from WithTx, so a
// failing step rolls back everything the operation wrote.
type Store interface {
	WithTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the narrow data-access surface available inside a transaction.
// Implementations must create player rows on first reference.
type Tx interface {
	// Players.
	Player(id string) (*Player, error)
	IncrPlayer(id, field string, delta int) error
	SetNestName(id, name string) error
	SetFeaturedBird(id, common, scientific string) error
	LastSungTargets(id string) ([]string, error)
	SetLastSungTargets(id string, targets []string) error
	AllPlayerIDs() ([]string, error)

	// Shared ledger.
	CommonLedger() (*CommonLedger, error)
	IncrCommonLedger(field string, delta int) error

	// Birds.
	PlayerBirds(owner string) ([]Bird, error)
	AddBird(owner, common, scientific string) (string, error)
	RemoveBird(birdID string) error
	TransferBird(birdID, newOwner string) error

	// Plants.
	PlayerPlants(owner string) ([]Plant, error)
	AddPlant(owner, common, scientific, date string) (string, error)
	RemovePlant(plantID string) error

	// Eggs.
	Egg(owner string) (*Egg, error) // nil when absent
	UpsertEgg(egg *Egg) error
	DeleteEgg(owner string) error

	// Daily budget.
	DailyActions(player, day string) (*DailyActions, error)
	SetDailyActions(rec *DailyActions) error
	PurgeDailyBefore(day string) (int64, error)

	// Cooperative interaction log.
	AddDailySong(day, singer, target string) error
	HasDailySong(day, singer, target string) (bool, error)
	AddDailyBrood(day, brooder, target string) error
	HasDailyBrood(day, brooder, target string) (bool, error)

	// Manifestation.
	ManifestedAll() ([]ManifestedSpecies, error)
	ManifestedBySci(scientific string) (*ManifestedSpecies, error) // nil when absent
	UpsertManifested(row *ManifestedSpecies) error

	// Adversary.
	AdversaryState() (*Adversary, error) // nil when none yet
	SetAdversary(a *Adversary) error
	AppendDefeated(row *DefeatedAdversary) error
	DefeatedLog(limit int) ([]DefeatedAdversary, error)

	// Research.
	ResearchPoints(author string) (int, error)
	SetResearchPoints(author string, points int) error
	AllResearch() (map[string]int, error)

	// Exploration.
	Exploration(region string) (int, error)
	IncrExploration(region string, delta int) (int, error)

	// Memoirs and realm log.
	HasMemoir(player, day string) (bool, error)
	AddMemoir(m *Memoir) error
	Memoirs(player string, limit int) ([]Memoir, error)
	AppendRealmMessage(day, text string) error
	RealmMessages(limit int) ([]RealmMessage, error)

	// Decorations.
	TreasureInventory(player string) (map[string]int, error)
	AddTreasure(player, treasureID string, delta int) error
	SetTreasureInventory(player string, inv map[string]int) error
	Placements(entityType, entityID string) ([]Placement, error)
	ReplacePlacements(entityType, entityID string, ps []Placement) error

	// Module-wide metadata (released-birds tally and friends).
	Meta(key string) (string, error) // "" when absent
	SetMeta(key, value string) error
}
