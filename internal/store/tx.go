package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/talgya/rookery/internal/game"
)

// Tx implements game.Tx over one sqlx transaction.
type Tx struct {
	tx *sqlx.Tx
}

// Column whitelists for the increment helpers. Field names arriving
// from admin grants must never reach the SQL text unchecked.
var playerFields = map[string]string{
	"twigs":         "twigs",
	"seeds":         "seeds",
	"inspiration":   "inspiration",
	"garden_size":   "garden_size",
	"bonus_actions": "bonus_actions",
}

var ledgerFields = map[string]string{
	"twigs": "twigs",
	"seeds": "seeds",
}

// Player loads a player row, creating it on first reference.
func (t *Tx) Player(id string) (*game.Player, error) {
	if _, err := t.tx.Exec(`INSERT OR IGNORE INTO players (id) VALUES (?)`, id); err != nil {
		return nil, fmt.Errorf("ensure player %s: %w", id, err)
	}
	var p game.Player
	err := t.tx.Get(&p, `SELECT id, nest_name, twigs, seeds, inspiration, garden_size,
		bonus_actions, featured_common, featured_scientific
		FROM players WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", id, err)
	}
	return &p, nil
}

func (t *Tx) IncrPlayer(id, field string, delta int) error {
	col, ok := playerFields[field]
	if !ok {
		return fmt.Errorf("unknown player field %q", field)
	}
	if _, err := t.Player(id); err != nil {
		return err
	}
	_, err := t.tx.Exec(fmt.Sprintf(`UPDATE players SET %s = %s + ? WHERE id = ?`, col, col), delta, id)
	return err
}

func (t *Tx) SetNestName(id, name string) error {
	if _, err := t.Player(id); err != nil {
		return err
	}
	_, err := t.tx.Exec(`UPDATE players SET nest_name = ? WHERE id = ?`, name, id)
	return err
}

func (t *Tx) SetFeaturedBird(id, common, scientific string) error {
	if _, err := t.Player(id); err != nil {
		return err
	}
	_, err := t.tx.Exec(`UPDATE players SET featured_common = ?, featured_scientific = ? WHERE id = ?`,
		common, scientific, id)
	return err
}

func (t *Tx) LastSungTargets(id string) ([]string, error) {
	if _, err := t.Player(id); err != nil {
		return nil, err
	}
	var raw string
	if err := t.tx.Get(&raw, `SELECT last_sung_json FROM players WHERE id = ?`, id); err != nil {
		return nil, err
	}
	var targets []string
	if err := json.Unmarshal([]byte(raw), &targets); err != nil {
		return nil, fmt.Errorf("last sung targets for %s: %w", id, err)
	}
	return targets, nil
}

func (t *Tx) SetLastSungTargets(id string, targets []string) error {
	if _, err := t.Player(id); err != nil {
		return err
	}
	raw, err := json.Marshal(targets)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(`UPDATE players SET last_sung_json = ? WHERE id = ?`, string(raw), id)
	return err
}

func (t *Tx) AllPlayerIDs() ([]string, error) {
	var ids []string
	err := t.tx.Select(&ids, `SELECT id FROM players ORDER BY id`)
	return ids, err
}

func (t *Tx) CommonLedger() (*game.CommonLedger, error) {
	var l game.CommonLedger
	err := t.tx.Get(&l, `SELECT twigs, seeds FROM common_ledger WHERE id = 1`)
	if err != nil {
		return nil, fmt.Errorf("load common ledger: %w", err)
	}
	return &l, nil
}

func (t *Tx) IncrCommonLedger(field string, delta int) error {
	col, ok := ledgerFields[field]
	if !ok {
		return fmt.Errorf("unknown ledger field %q", field)
	}
	_, err := t.tx.Exec(fmt.Sprintf(`UPDATE common_ledger SET %s = %s + ? WHERE id = 1`, col, col), delta)
	return err
}

func (t *Tx) PlayerBirds(owner string) ([]game.Bird, error) {
	var birds []game.Bird
	err := t.tx.Select(&birds, `SELECT id, owner_id, common_name, scientific_name
		FROM birds WHERE owner_id = ? ORDER BY rowid`, owner)
	return birds, err
}

func (t *Tx) AddBird(owner, common, scientific string) (string, error) {
	id := uuid.NewString()
	_, err := t.tx.Exec(`INSERT INTO birds (id, owner_id, common_name, scientific_name) VALUES (?, ?, ?, ?)`,
		id, owner, common, scientific)
	if err != nil {
		return "", fmt.Errorf("add bird: %w", err)
	}
	return id, nil
}

func (t *Tx) RemoveBird(birdID string) error {
	res, err := t.tx.Exec(`DELETE FROM birds WHERE id = ?`, birdID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bird %s not found", birdID)
	}
	return nil
}

func (t *Tx) TransferBird(birdID, newOwner string) error {
	res, err := t.tx.Exec(`UPDATE birds SET owner_id = ? WHERE id = ?`, newOwner, birdID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bird %s not found", birdID)
	}
	return nil
}

func (t *Tx) PlayerPlants(owner string) ([]game.Plant, error) {
	var plants []game.Plant
	err := t.tx.Select(&plants, `SELECT id, owner_id, common_name, scientific_name, planted_date
		FROM plants WHERE owner_id = ? ORDER BY rowid`, owner)
	return plants, err
}

func (t *Tx) AddPlant(owner, common, scientific, date string) (string, error) {
	id := uuid.NewString()
	_, err := t.tx.Exec(`INSERT INTO plants (id, owner_id, common_name, scientific_name, planted_date)
		VALUES (?, ?, ?, ?, ?)`, id, owner, common, scientific, date)
	if err != nil {
		return "", fmt.Errorf("add plant: %w", err)
	}
	return id, nil
}

func (t *Tx) RemovePlant(plantID string) error {
	res, err := t.tx.Exec(`DELETE FROM plants WHERE id = ?`, plantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("plant %s not found", plantID)
	}
	return nil
}

type eggRow struct {
	OwnerID         string `db:"owner_id"`
	Progress        int    `db:"progress"`
	BroodedByJSON   string `db:"brooded_by_json"`
	BroodDay        string `db:"brood_day"`
	MultipliersJSON string `db:"multipliers_json"`
	Protected       int    `db:"protected"`
}

func (t *Tx) Egg(owner string) (*game.Egg, error) {
	var row eggRow
	err := t.tx.Get(&row, `SELECT owner_id, progress, brooded_by_json, brood_day, multipliers_json, protected
		FROM eggs WHERE owner_id = ?`, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load egg for %s: %w", owner, err)
	}
	egg := &game.Egg{
		OwnerID:          row.OwnerID,
		Progress:         row.Progress,
		BroodDay:         row.BroodDay,
		ProtectedPrayers: row.Protected != 0,
	}
	if err := json.Unmarshal([]byte(row.BroodedByJSON), &egg.BroodedBy); err != nil {
		return nil, fmt.Errorf("egg brooders for %s: %w", owner, err)
	}
	if err := json.Unmarshal([]byte(row.MultipliersJSON), &egg.Multipliers); err != nil {
		return nil, fmt.Errorf("egg multipliers for %s: %w", owner, err)
	}
	if egg.Multipliers == nil {
		egg.Multipliers = map[string]int{}
	}
	return egg, nil
}

func (t *Tx) UpsertEgg(egg *game.Egg) error {
	brooders, err := json.Marshal(egg.BroodedBy)
	if err != nil {
		return err
	}
	mults, err := json.Marshal(egg.Multipliers)
	if err != nil {
		return err
	}
	protected := 0
	if egg.ProtectedPrayers {
		protected = 1
	}
	_, err = t.tx.Exec(`INSERT INTO eggs (owner_id, progress, brooded_by_json, brood_day, multipliers_json, protected)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			progress = excluded.progress,
			brooded_by_json = excluded.brooded_by_json,
			brood_day = excluded.brood_day,
			multipliers_json = excluded.multipliers_json,
			protected = excluded.protected`,
		egg.OwnerID, egg.Progress, string(brooders), egg.BroodDay, string(mults), protected)
	return err
}

func (t *Tx) DeleteEgg(owner string) error {
	_, err := t.tx.Exec(`DELETE FROM eggs WHERE owner_id = ?`, owner)
	return err
}

type dailyRow struct {
	PlayerID    string `db:"player_id"`
	Day         string `db:"day"`
	Used        int    `db:"used"`
	HistoryJSON string `db:"history_json"`
}

func (t *Tx) DailyActions(player, day string) (*game.DailyActions, error) {
	var row dailyRow
	err := t.tx.Get(&row, `SELECT player_id, day, used, history_json
		FROM daily_actions WHERE player_id = ? AND day = ?`, player, day)
	if errors.Is(err, sql.ErrNoRows) {
		return &game.DailyActions{PlayerID: player, Day: day}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("daily actions %s/%s: %w", player, day, err)
	}
	rec := &game.DailyActions{PlayerID: row.PlayerID, Day: row.Day, Used: row.Used}
	if err := json.Unmarshal([]byte(row.HistoryJSON), &rec.History); err != nil {
		return nil, fmt.Errorf("action history %s/%s: %w", player, day, err)
	}
	return rec, nil
}

func (t *Tx) SetDailyActions(rec *game.DailyActions) error {
	history, err := json.Marshal(rec.History)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(`INSERT INTO daily_actions (player_id, day, used, history_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(player_id, day) DO UPDATE SET used = excluded.used, history_json = excluded.history_json`,
		rec.PlayerID, rec.Day, rec.Used, string(history))
	return err
}

func (t *Tx) PurgeDailyBefore(day string) (int64, error) {
	total := int64(0)
	for _, table := range []string{"daily_actions", "daily_songs", "daily_broods"} {
		res, err := t.tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE day < ?`, table), day)
		if err != nil {
			return total, err
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func (t *Tx) AddDailySong(day, singer, target string) error {
	_, err := t.tx.Exec(`INSERT INTO daily_songs (day, singer, target) VALUES (?, ?, ?)`, day, singer, target)
	return err
}

func (t *Tx) HasDailySong(day, singer, target string) (bool, error) {
	var n int
	err := t.tx.Get(&n, `SELECT COUNT(*) FROM daily_songs WHERE day = ? AND singer = ? AND target = ?`,
		day, singer, target)
	return n > 0, err
}

func (t *Tx) AddDailyBrood(day, brooder, target string) error {
	_, err := t.tx.Exec(`INSERT INTO daily_broods (day, brooder, target) VALUES (?, ?, ?)`, day, brooder, target)
	return err
}

func (t *Tx) HasDailyBrood(day, brooder, target string) (bool, error) {
	var n int
	err := t.tx.Get(&n, `SELECT COUNT(*) FROM daily_broods WHERE day = ? AND brooder = ? AND target = ?`,
		day, brooder, target)
	return n > 0, err
}

func (t *Tx) ManifestedAll() ([]game.ManifestedSpecies, error) {
	var rows []game.ManifestedSpecies
	err := t.tx.Select(&rows, `SELECT scientific_name, common_name, rarity, points, fully_manifested,
		iconic_taxon, photo_url FROM manifested_species ORDER BY scientific_name`)
	return rows, err
}

func (t *Tx) ManifestedBySci(scientific string) (*game.ManifestedSpecies, error) {
	var row game.ManifestedSpecies
	err := t.tx.Get(&row, `SELECT scientific_name, common_name, rarity, points, fully_manifested,
		iconic_taxon, photo_url FROM manifested_species WHERE scientific_name = ?`, scientific)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (t *Tx) UpsertManifested(row *game.ManifestedSpecies) error {
	_, err := t.tx.Exec(`INSERT INTO manifested_species
		(scientific_name, common_name, rarity, points, fully_manifested, iconic_taxon, photo_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scientific_name) DO UPDATE SET
			common_name = excluded.common_name,
			rarity = excluded.rarity,
			points = excluded.points,
			fully_manifested = excluded.fully_manifested,
			iconic_taxon = excluded.iconic_taxon,
			photo_url = excluded.photo_url`,
		row.ScientificName, row.CommonName, row.Rarity, row.Points,
		row.FullyManifested, row.IconicTaxon, row.PhotoURL)
	return err
}

func (t *Tx) AdversaryState() (*game.Adversary, error) {
	var a game.Adversary
	err := t.tx.Get(&a, `SELECT name, resilience, max_resilience, tier, spawned_on FROM adversary WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (t *Tx) SetAdversary(a *game.Adversary) error {
	_, err := t.tx.Exec(`INSERT INTO adversary (id, name, resilience, max_resilience, tier, spawned_on)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			resilience = excluded.resilience,
			max_resilience = excluded.max_resilience,
			tier = excluded.tier,
			spawned_on = excluded.spawned_on`,
		a.Name, a.Resilience, a.MaxResilience, a.Tier, a.SpawnedOn)
	return err
}

func (t *Tx) AppendDefeated(row *game.DefeatedAdversary) error {
	_, err := t.tx.Exec(`INSERT INTO defeated_adversaries (name, max_resilience, date, blessing, amount)
		VALUES (?, ?, ?, ?, ?)`, row.Name, row.MaxResilience, row.Date, row.Blessing, row.Amount)
	return err
}

func (t *Tx) DefeatedLog(limit int) ([]game.DefeatedAdversary, error) {
	var rows []game.DefeatedAdversary
	err := t.tx.Select(&rows, `SELECT name, max_resilience, date, blessing, amount
		FROM defeated_adversaries ORDER BY id DESC LIMIT ?`, limit)
	return rows, err
}

func (t *Tx) ResearchPoints(author string) (int, error) {
	var n int
	err := t.tx.Get(&n, `SELECT points FROM research WHERE author = ?`, author)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

func (t *Tx) SetResearchPoints(author string, points int) error {
	_, err := t.tx.Exec(`INSERT INTO research (author, points) VALUES (?, ?)
		ON CONFLICT(author) DO UPDATE SET points = excluded.points`, author, points)
	return err
}

func (t *Tx) AllResearch() (map[string]int, error) {
	rows, err := t.tx.Queryx(`SELECT author, points FROM research`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var author string
		var points int
		if err := rows.Scan(&author, &points); err != nil {
			return nil, err
		}
		out[author] = points
	}
	return out, rows.Err()
}

func (t *Tx) Exploration(region string) (int, error) {
	var n int
	err := t.tx.Get(&n, `SELECT count FROM exploration WHERE region = ?`, region)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

func (t *Tx) IncrExploration(region string, delta int) (int, error) {
	_, err := t.tx.Exec(`INSERT INTO exploration (region, count) VALUES (?, ?)
		ON CONFLICT(region) DO UPDATE SET count = count + ?`, region, delta, delta)
	if err != nil {
		return 0, err
	}
	return t.Exploration(region)
}

func (t *Tx) HasMemoir(player, day string) (bool, error) {
	var n int
	err := t.tx.Get(&n, `SELECT COUNT(*) FROM memoirs WHERE player_id = ? AND day = ?`, player, day)
	return n > 0, err
}

func (t *Tx) AddMemoir(m *game.Memoir) error {
	_, err := t.tx.Exec(`INSERT INTO memoirs (player_id, day, text) VALUES (?, ?, ?)`,
		m.PlayerID, m.Day, m.Text)
	return err
}

func (t *Tx) Memoirs(player string, limit int) ([]game.Memoir, error) {
	var rows []game.Memoir
	err := t.tx.Select(&rows, `SELECT player_id, day, text FROM memoirs
		WHERE player_id = ? ORDER BY day DESC LIMIT ?`, player, limit)
	return rows, err
}

func (t *Tx) AppendRealmMessage(day, text string) error {
	_, err := t.tx.Exec(`INSERT INTO realm_messages (day, text) VALUES (?, ?)`, day, text)
	return err
}

func (t *Tx) RealmMessages(limit int) ([]game.RealmMessage, error) {
	var rows []game.RealmMessage
	err := t.tx.Select(&rows, `SELECT day, text FROM realm_messages ORDER BY id DESC LIMIT ?`, limit)
	return rows, err
}

func (t *Tx) TreasureInventory(player string) (map[string]int, error) {
	rows, err := t.tx.Queryx(`SELECT treasure_id, count FROM player_treasures WHERE player_id = ? AND count > 0`, player)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	inv := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		inv[id] = n
	}
	return inv, rows.Err()
}

func (t *Tx) AddTreasure(player, treasureID string, delta int) error {
	_, err := t.tx.Exec(`INSERT INTO player_treasures (player_id, treasure_id, count) VALUES (?, ?, ?)
		ON CONFLICT(player_id, treasure_id) DO UPDATE SET count = count + ?`,
		player, treasureID, delta, delta)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(`DELETE FROM player_treasures WHERE player_id = ? AND treasure_id = ? AND count <= 0`,
		player, treasureID)
	return err
}

func (t *Tx) SetTreasureInventory(player string, inv map[string]int) error {
	if _, err := t.tx.Exec(`DELETE FROM player_treasures WHERE player_id = ?`, player); err != nil {
		return err
	}
	for id, n := range inv {
		if n <= 0 {
			continue
		}
		if _, err := t.tx.Exec(`INSERT INTO player_treasures (player_id, treasure_id, count) VALUES (?, ?, ?)`,
			player, id, n); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) Placements(entityType, entityID string) ([]game.Placement, error) {
	var rows []game.Placement
	err := t.tx.Select(&rows, `SELECT treasure_id, x, y, rotation, size, z_index
		FROM placements WHERE entity_type = ? AND entity_id = ? ORDER BY z_index, rowid`,
		entityType, entityID)
	return rows, err
}

func (t *Tx) ReplacePlacements(entityType, entityID string, ps []game.Placement) error {
	if _, err := t.tx.Exec(`DELETE FROM placements WHERE entity_type = ? AND entity_id = ?`,
		entityType, entityID); err != nil {
		return err
	}
	for _, p := range ps {
		if _, err := t.tx.Exec(`INSERT INTO placements
			(id, entity_type, entity_id, treasure_id, x, y, rotation, size, z_index)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), entityType, entityID, p.TreasureID, p.X, p.Y, p.Rotation, p.Size, p.ZIndex); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) Meta(key string) (string, error) {
	var value string
	err := t.tx.Get(&value, `SELECT value FROM meta WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (t *Tx) SetMeta(key, value string) error {
	_, err := t.tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value)
	return err
}
