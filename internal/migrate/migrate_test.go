package migrate

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/guardpost/fieldsync/internal/db"
)

func testConn(t *testing.T) *db.DB {
	t.Helper()
	conn, err := db.Open(db.DefaultConfig(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRun_AppliesInAscendingOrder(t *testing.T) {
	conn := testConn(t)

	var applied []float64
	record := func(v float64) func(*db.DB) error {
		return func(*db.DB) error {
			applied = append(applied, v)
			return nil
		}
	}

	// Registered deliberately out of order.
	mgr := NewManager([]Migration{
		{Version: 1.2, Name: "third", Apply: record(1.2)},
		{Version: 1.0, Name: "first", Apply: record(1.0)},
		{Version: 1.1, Name: "second", Apply: record(1.1)},
	})

	current, err := conn.CurrentSchemaVersion()
	if err != nil {
		t.Fatalf("CurrentSchemaVersion() error = %v", err)
	}
	if current != 0 {
		t.Fatalf("fresh db version = %v, want 0", current)
	}

	final, err := mgr.Run(conn, current)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if final != 1.2 {
		t.Errorf("final version = %v, want 1.2", final)
	}

	want := []float64{1.0, 1.1, 1.2}
	if len(applied) != len(want) {
		t.Fatalf("applied %v, want %v", applied, want)
	}
	for i := range want {
		if applied[i] != want[i] {
			t.Fatalf("applied %v, want %v", applied, want)
		}
	}

	history, err := conn.SchemaHistory()
	if err != nil {
		t.Fatalf("SchemaHistory() error = %v", err)
	}
	if len(history) != 3 {
		t.Errorf("history rows = %d, want 3", len(history))
	}
}

func TestRun_SkipsVersionsAtOrBelowCurrent(t *testing.T) {
	conn := testConn(t)

	var applied []float64
	mgr := NewManager([]Migration{
		{Version: 1.0, Name: "old", Apply: func(*db.DB) error {
			applied = append(applied, 1.0)
			return nil
		}},
		{Version: 1.5, Name: "also old", Apply: func(*db.DB) error {
			applied = append(applied, 1.5)
			return nil
		}},
	})

	if _, err := conn.CurrentSchemaVersion(); err != nil {
		t.Fatal(err)
	}

	final, err := mgr.Run(conn, 2.0)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if final != 2.0 {
		t.Errorf("final version = %v, want unchanged 2.0", final)
	}
	if len(applied) != 0 {
		t.Errorf("applied %v, want none", applied)
	}
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	conn := testConn(t)

	boom := errors.New("disk full")
	var applied []float64
	mgr := NewManager([]Migration{
		{Version: 1.0, Name: "ok", Apply: func(*db.DB) error {
			applied = append(applied, 1.0)
			return nil
		}},
		{Version: 1.1, Name: "fails", Apply: func(*db.DB) error {
			return boom
		}},
		{Version: 1.2, Name: "never runs", Apply: func(*db.DB) error {
			applied = append(applied, 1.2)
			return nil
		}},
	})

	if _, err := conn.CurrentSchemaVersion(); err != nil {
		t.Fatal(err)
	}

	final, err := mgr.Run(conn, 0)
	if err == nil {
		t.Fatal("Run() succeeded despite failing migration")
	}
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
	if final != 1.0 {
		t.Errorf("final version = %v, want 1.0 (last success)", final)
	}
	if len(applied) != 1 || applied[0] != 1.0 {
		t.Errorf("applied %v, want only 1.0", applied)
	}

	// The version bookkeeping must reflect only the applied step.
	current, err := conn.CurrentSchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if current != 1.0 {
		t.Errorf("recorded version = %v, want 1.0", current)
	}
}

func TestUp_FreshDatabaseReachesLatest(t *testing.T) {
	conn := testConn(t)

	version, err := Up(conn)
	if err != nil {
		t.Fatalf("Up() error = %v", err)
	}

	latest := All()[0].Version
	for _, m := range All() {
		if m.Version > latest {
			latest = m.Version
		}
	}
	if version != latest {
		t.Errorf("Up() = %v, want %v", version, latest)
	}

	// Running again is a no-op.
	again, err := Up(conn)
	if err != nil {
		t.Fatalf("second Up() error = %v", err)
	}
	if again != version {
		t.Errorf("second Up() = %v, want %v", again, version)
	}
}
