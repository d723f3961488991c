package game

// Action type tags recorded in the daily action history. The history is
// an ordered list rather than per-tag counters so that "first action of
// this type today" is a cheap membership check and the full day is
// auditable when debugging budget complaints.
const (
	ActionBuild    = "build"
	ActionSeed     = "seed"
	ActionSing     = "sing"
	ActionBrood    = "brood"
	ActionForage   = "forage"
	ActionSwoop    = "swoop"
	ActionManifest = "manifest"
	ActionStudy    = "study"
	ActionExplore  = "explore"
	ActionPray     = "pray"
)

// Tunable game constants.
const (
	BaseDailyActions = 3
	EggCost          = 20 // seeds
	BroodTarget      = 10
	BlessEggSeeds    = 30
	BlessEggInspo    = 1
	SingBaseGrant    = 3
	MaxGardenSize    = 10
	MaxBirdsPerNest  = 15
	CompostRefundPct = 80
)

// Player is a per-user record, created on first reference and never
// deleted. BonusActions may go negative through admin grants; it is
// clamped to zero only when computing availability.
type Player struct {
	ID                 string `db:"id"`
	NestName           string `db:"nest_name"`
	Twigs              int    `db:"twigs"`
	Seeds              int    `db:"seeds"`
	Inspiration        int    `db:"inspiration"`
	GardenSize         int    `db:"garden_size"`
	BonusActions       int    `db:"bonus_actions"`
	FeaturedCommon     string `db:"featured_common"`
	FeaturedScientific string `db:"featured_scientific"`
}

// CommonLedger is the singleton shared resource record. It obeys the
// same seeds <= twigs invariant as a player ledger.
type CommonLedger struct {
	Twigs int `db:"twigs"`
	Seeds int `db:"seeds"`
}

// Bird is an owned avatar hatched from an egg.
type Bird struct {
	ID             string `db:"id"`
	OwnerID        string `db:"owner_id"`
	CommonName     string `db:"common_name"`
	ScientificName string `db:"scientific_name"`
}

// Plant occupies one unit of garden space.
type Plant struct {
	ID             string `db:"id"`
	OwnerID        string `db:"owner_id"`
	CommonName     string `db:"common_name"`
	ScientificName string `db:"scientific_name"`
	PlantedDate    string `db:"planted_date"`
}

// Egg is the per-player incubation record. BroodedBy lists today's
// brooders only; the per-day per-pair dedup lives in the daily brood
// table. Multipliers are the prayer weights applied at hatch.
type Egg struct {
	OwnerID          string
	Progress         int
	BroodedBy        []string
	BroodDay         string
	Multipliers      map[string]int
	ProtectedPrayers bool
}

// DailyActions tracks one player's spend for one local day.
type DailyActions struct {
	PlayerID string
	Day      string
	Used     int
	History  []string
}

// Rarity buckets species for draw weights and manifestation thresholds.
type Rarity string

const (
	RarityCommon   Rarity = "common"
	RarityUncommon Rarity = "uncommon"
	RarityRare     Rarity = "rare"
	RarityMythical Rarity = "mythical"
)

// ManifestThreshold returns the points needed to fully manifest a
// species of the given rarity.
func ManifestThreshold(r Rarity) int {
	switch r {
	case RarityCommon:
		return 40
	case RarityUncommon:
		return 70
	case RarityRare:
		return 110
	case RarityMythical:
		return 160
	}
	return 160
}

// RarityFromObservations assigns rarity from a taxonomy observation
// count.
func RarityFromObservations(n int) Rarity {
	switch {
	case n > 4000:
		return RarityCommon
	case n > 1000:
		return RarityUncommon
	case n > 50:
		return RarityRare
	default:
		return RarityMythical
	}
}

// ManifestedSpecies is a community-manifested species row. Once fully
// manifested it joins the hatch draw pool.
type ManifestedSpecies struct {
	ScientificName  string `db:"scientific_name"`
	CommonName      string `db:"common_name"`
	Rarity          Rarity `db:"rarity"`
	Points          int    `db:"points"`
	FullyManifested bool   `db:"fully_manifested"`
	IconicTaxon     string `db:"iconic_taxon"`
	PhotoURL        string `db:"photo_url"`
}

// Adversary is the singleton shared opponent.
type Adversary struct {
	Name          string `db:"name"`
	Resilience    int    `db:"resilience"`
	MaxResilience int    `db:"max_resilience"`
	Tier          int    `db:"tier"`
	SpawnedOn     string `db:"spawned_on"`
}

// DefeatedAdversary is one row of the defeat log.
type DefeatedAdversary struct {
	Name          string `db:"name"`
	MaxResilience int    `db:"max_resilience"`
	Date          string `db:"date"`
	Blessing      string `db:"blessing"`
	Amount        int    `db:"amount"`
}

// Placement is one decoration token placed on an entity. Coordinates
// are percentages of the render surface.
type Placement struct {
	TreasureID string  `db:"treasure_id"`
	X          float64 `db:"x"`
	Y          float64 `db:"y"`
	Rotation   float64 `db:"rotation"`
	Size       float64 `db:"size"`
	ZIndex     int     `db:"z_index"`
}

// Entity types a decoration can be placed on.
const (
	EntityNest  = "nest"
	EntityBird  = "bird"
	EntityPlant = "plant"
)

// Memoir is a short daily diary entry, at most one per player per day.
type Memoir struct {
	PlayerID string `db:"player_id"`
	Day      string `db:"day"`
	Text     string `db:"text"`
}

// RealmMessage is a fleet-wide announcement line kept for the realm log.
type RealmMessage struct {
	Day  string `db:"day"`
	Text string `db:"text"`
}
