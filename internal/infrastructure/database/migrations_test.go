package database

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20261001_120000_first.up.sql": {Data: []byte(
			"CREATE TABLE first (id INTEGER PRIMARY KEY);")},
		"20261001_120000_first.down.sql": {Data: []byte(
			"DROP TABLE first;")},
		"20261002_090000_second.up.sql": {Data: []byte(
			"CREATE TABLE second (id INTEGER PRIMARY KEY, note TEXT DEFAULT '');")},
		"README.md": {Data: []byte("ignored")},
		"nested":    {Mode: fs.ModeDir | 0o755},
	}
}

// TestMigrate verifies migrations apply in order and only once.
func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx, testMigrations()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	for _, table := range []string{"first", "second"} {
		if _, err := db.ExecContext(ctx, "INSERT INTO "+table+" (id) VALUES (1)"); err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	// Second run is a no-op.
	if err := db.Migrate(ctx, testMigrations()); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	applied, pending, err := db.MigrationStatus(ctx, testMigrations())
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Fatalf("applied = %d, pending = %d, want 2 and 0", len(applied), len(pending))
	}
	if applied[0].Version != "20261001_120000" || applied[1].Version != "20261002_090000" {
		t.Errorf("applied versions = %v, %v", applied[0].Version, applied[1].Version)
	}
	if applied[0].AppliedAt.IsZero() {
		t.Error("AppliedAt not recorded")
	}
}

// TestMigrateFailureKeepsEarlier verifies per-migration atomicity.
func TestMigrateFailureKeepsEarlier(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	fsys := testMigrations()
	fsys["20261003_000000_broken.up.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE broken (")}

	if err := db.Migrate(ctx, fsys); err == nil {
		t.Fatal("Migrate() with broken SQL should fail")
	}

	applied, pending, err := db.MigrationStatus(ctx, fsys)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 1 || pending[0].Name != "broken" {
		t.Errorf("applied = %d, pending = %v", len(applied), pending)
	}
}

// TestMigrateNoMigrations verifies nil and empty filesystems.
func TestMigrateNoMigrations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx, nil); err != nil {
		t.Errorf("Migrate(nil) error = %v", err)
	}
	if err := db.Migrate(ctx, fstest.MapFS{}); err != nil {
		t.Errorf("Migrate(empty) error = %v", err)
	}
}

// TestLoadMigrations verifies down SQL pairing.
func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations(testMigrations())
	if err != nil {
		t.Fatalf("loadMigrations() error = %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}
	if migrations[0].Name != "first" || migrations[0].DownSQL != "DROP TABLE first;" {
		t.Errorf("first migration = %+v", migrations[0])
	}
	if migrations[1].DownSQL != "" {
		t.Errorf("second migration has unexpected down SQL %q", migrations[1].DownSQL)
	}
}

// TestParseMigrationFilename verifies filename parsing.
func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		wantVersion string
		wantIsUp    bool
		wantOK      bool
	}{
		{"20261001_120000_waypoint_sets.up.sql", "20261001_120000", true, true},
		{"20261001_120000_waypoint_sets.down.sql", "20261001_120000", false, true},
		{"20261001_120000.up.sql", "20261001_120000", true, true},
		{"20261001_120000_waypoint_sets.sql", "", false, false},
		{"20261001.up.sql", "", false, false},
		{"README.md", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.name)
			if version != tt.wantVersion || isUp != tt.wantIsUp || ok != tt.wantOK {
				t.Errorf("parseMigrationFilename(%q) = (%q, %v, %v), want (%q, %v, %v)",
					tt.name, version, isUp, ok, tt.wantVersion, tt.wantIsUp, tt.wantOK)
			}
		})
	}
}

// TestExtractMigrationName verifies name extraction.
func TestExtractMigrationName(t *testing.T) {
	tests := map[string]string{
		"20261001_120000_waypoint_sets.up.sql": "waypoint_sets",
		"20261001_120000_waypoints.down.sql":   "waypoints",
		"20261001_120000.up.sql":               "20261001_120000",
	}
	for in, want := range tests {
		if got := extractMigrationName(in); got != want {
			t.Errorf("extractMigrationName(%q) = %q, want %q", in, got, want)
		}
	}
}
