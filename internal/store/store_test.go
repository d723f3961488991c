package store

import (
	"context"
	"errors"
	"testing"

	"github.com/talgya/rookery/internal/game"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPlayerAutoCreate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx game.Tx) error {
		p, err := tx.Player("newcomer")
		if err != nil {
			return err
		}
		if p.ID != "newcomer" || p.Twigs != 0 || p.GardenSize != 0 {
			t.Errorf("fresh player = %+v", p)
		}
		if err := tx.IncrPlayer("newcomer", "twigs", 7); err != nil {
			return err
		}
		p, err = tx.Player("newcomer")
		if err != nil {
			return err
		}
		if p.Twigs != 7 {
			t.Errorf("twigs = %d, want 7", p.Twigs)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
}

func TestRollbackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sentinel := errors.New("abort")
	err := db.WithTx(ctx, func(tx game.Tx) error {
		if err := tx.IncrPlayer("p", "twigs", 5); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}

	err = db.WithTx(ctx, func(tx game.Tx) error {
		p, err := tx.Player("p")
		if err != nil {
			return err
		}
		if p.Twigs != 0 {
			t.Errorf("twigs = %d after rollback, want 0", p.Twigs)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
}

func TestEggRoundtrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx game.Tx) error {
		if egg, err := tx.Egg("p"); err != nil || egg != nil {
			t.Errorf("missing egg = %v, %v; want nil, nil", egg, err)
		}
		in := &game.Egg{
			OwnerID:          "p",
			Progress:         4,
			BroodedBy:        []string{"a", "b"},
			BroodDay:         "2026-09-01",
			Multipliers:      map[string]int{"Dacelo novaeguineae": 3},
			ProtectedPrayers: true,
		}
		if err := tx.UpsertEgg(in); err != nil {
			return err
		}
		out, err := tx.Egg("p")
		if err != nil {
			return err
		}
		if out.Progress != 4 || len(out.BroodedBy) != 2 || out.BroodDay != "2026-09-01" {
			t.Errorf("egg roundtrip = %+v", out)
		}
		if out.Multipliers["Dacelo novaeguineae"] != 3 || !out.ProtectedPrayers {
			t.Errorf("egg roundtrip = %+v", out)
		}
		if err := tx.DeleteEgg("p"); err != nil {
			return err
		}
		out, err = tx.Egg("p")
		if err != nil {
			return err
		}
		if out != nil {
			t.Errorf("egg after delete = %+v", out)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
}

func TestDailyActionsAndPurge(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx game.Tx) error {
		rec, err := tx.DailyActions("p", "2026-08-01")
		if err != nil {
			return err
		}
		if rec.Used != 0 || len(rec.History) != 0 {
			t.Errorf("fresh daily record = %+v", rec)
		}
		rec.Used = 3
		rec.History = []string{"build", "build", "sing"}
		if err := tx.SetDailyActions(rec); err != nil {
			return err
		}
		if err := tx.AddDailySong("2026-08-01", "p", "q"); err != nil {
			return err
		}

		late, err := tx.DailyActions("p", "2026-09-01")
		if err != nil {
			return err
		}
		late.Used = 1
		late.History = []string{"swoop"}
		if err := tx.SetDailyActions(late); err != nil {
			return err
		}

		n, err := tx.PurgeDailyBefore("2026-09-01")
		if err != nil {
			return err
		}
		if n != 2 {
			t.Errorf("purged %d rows, want 2", n)
		}

		kept, err := tx.DailyActions("p", "2026-09-01")
		if err != nil {
			return err
		}
		if kept.Used != 1 {
			t.Errorf("recent record lost: %+v", kept)
		}
		gone, err := tx.DailyActions("p", "2026-08-01")
		if err != nil {
			return err
		}
		if gone.Used != 0 {
			t.Errorf("old record survived purge: %+v", gone)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
}

func TestBirdLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx game.Tx) error {
		id, err := tx.AddBird("a", "Laughing Kookaburra", "Dacelo novaeguineae")
		if err != nil {
			return err
		}
		if err := tx.TransferBird(id, "b"); err != nil {
			return err
		}
		was, err := tx.PlayerBirds("a")
		if err != nil {
			return err
		}
		now, err := tx.PlayerBirds("b")
		if err != nil {
			return err
		}
		if len(was) != 0 || len(now) != 1 {
			t.Errorf("after transfer: a=%d b=%d", len(was), len(now))
		}
		if err := tx.RemoveBird(id); err != nil {
			return err
		}
		if err := tx.RemoveBird(id); err == nil {
			t.Error("removing a removed bird should fail")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
}

func TestMetaDefaultsEmpty(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx game.Tx) error {
		v, err := tx.Meta("never-set")
		if err != nil {
			return err
		}
		if v != "" {
			t.Errorf("Meta = %q, want empty", v)
		}
		if err := tx.SetMeta("k", "42"); err != nil {
			return err
		}
		v, err = tx.Meta("k")
		if err != nil {
			return err
		}
		if v != "42" {
			t.Errorf("Meta = %q, want 42", v)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
}
