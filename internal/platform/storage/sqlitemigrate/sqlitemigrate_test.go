package sqlitemigrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func TestApplyRunsPendingMigrationsInOrder(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"002_index.sql":  {Data: []byte("-- +migrate Up\nCREATE INDEX items_name ON items(name);")},
		"001_create.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY, name TEXT);\n-- +migrate Down\nDROP TABLE items;")},
		"README.md":      {Data: []byte("ignored")},
	}

	applied, err := Apply(context.Background(), db, fsys, "")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if want := []string{"001_create.sql", "002_index.sql"}; !reflect.DeepEqual(applied, want) {
		t.Fatalf("applied = %v, want %v", applied, want)
	}
	if got := version(t, db); got != 2 {
		t.Fatalf("version = %d, want 2", got)
	}
	if !tableExists(t, db, "items") {
		t.Fatal("expected items table")
	}
}

func TestApplySkipsAppliedVersions(t *testing.T) {
	db := openTestDB(t)
	first := fstest.MapFS{
		"001_create.sql": {Data: []byte("CREATE TABLE items(id TEXT PRIMARY KEY);")},
	}
	if _, err := Apply(context.Background(), db, first, ""); err != nil {
		t.Fatalf("apply first: %v", err)
	}

	second := fstest.MapFS{
		"001_create.sql": {Data: []byte("CREATE TABLE items(id TEXT PRIMARY KEY);")},
		"002_more.sql":   {Data: []byte("CREATE TABLE more(id TEXT PRIMARY KEY);")},
	}
	applied, err := Apply(context.Background(), db, second, "")
	if err != nil {
		t.Fatalf("apply second: %v", err)
	}
	if want := []string{"002_more.sql"}; !reflect.DeepEqual(applied, want) {
		t.Fatalf("applied = %v, want %v", applied, want)
	}
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"001_create.sql": {Data: []byte("CREATE TABLE items(id TEXT PRIMARY KEY);")},
		"002_broken.sql": {Data: []byte("CREATE TABLE partial(id TEXT); CREATE TABLE oops(")},
	}

	applied, err := Apply(context.Background(), db, fsys, "")
	if err == nil {
		t.Fatal("expected error for broken migration")
	}
	if !strings.Contains(err.Error(), "002_broken.sql") {
		t.Fatalf("err = %v, want migration name", err)
	}
	if want := []string{"001_create.sql"}; !reflect.DeepEqual(applied, want) {
		t.Fatalf("applied = %v, want %v", applied, want)
	}
	if got := version(t, db); got != 1 {
		t.Fatalf("version = %d, want 1", got)
	}
	if tableExists(t, db, "partial") {
		t.Fatal("expected partial table to be rolled back")
	}
}

func TestApplyReadsFromRoot(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"sql/001_create.sql": {Data: []byte("CREATE TABLE items(id TEXT PRIMARY KEY);")},
	}
	if _, err := Apply(context.Background(), db, fsys, "sql"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !tableExists(t, db, "items") {
		t.Fatal("expected items table")
	}
}

func TestLoadRejectsBadNames(t *testing.T) {
	tests := map[string]fstest.MapFS{
		"unnumbered": {"create.sql": {Data: []byte("SELECT 1;")}},
		"zero":       {"000_create.sql": {Data: []byte("SELECT 1;")}},
		"duplicate": {
			"001_a.sql": {Data: []byte("SELECT 1;")},
			"1_b.sql":   {Data: []byte("SELECT 1;")},
		},
	}
	for name, fsys := range tests {
		if _, err := Load(fsys, ""); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestUpSection(t *testing.T) {
	content := "-- header\n-- +migrate Up\nCREATE TABLE a(id INT);\n-- +migrate Down\nDROP TABLE a;"
	if got := strings.TrimSpace(UpSection(content)); got != "CREATE TABLE a(id INT);" {
		t.Fatalf("UpSection = %q", got)
	}
	if got := UpSection("SELECT 1;"); got != "SELECT 1;" {
		t.Fatalf("UpSection without markers = %q", got)
	}
}

func TestApplyRejectsNilDB(t *testing.T) {
	if _, err := Apply(context.Background(), nil, fstest.MapFS{}, ""); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func version(t *testing.T, db *sql.DB) int {
	t.Helper()
	v, err := Version(context.Background(), db)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	return v
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count); err != nil {
		t.Fatalf("check table %s: %v", name, err)
	}
	return count > 0
}
