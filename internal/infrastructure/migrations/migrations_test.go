package migrations

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/require"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// TestRunMigrations_FreshDB verifies all migrations apply to an empty :memory: database.
func TestRunMigrations_FreshDB(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err, "ncruces driver should open :memory: database")
	defer db.Close()

	err = RunMigrations(db)
	require.NoError(t, err, "RunMigrations should succeed on fresh database")

	var tableName string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='operations'`).Scan(&tableName)
	require.NoError(t, err, "operations table should exist")
	require.Equal(t, "operations", tableName)
}

// TestRunMigrations_Idempotent verifies calling RunMigrations twice doesn't error.
func TestRunMigrations_Idempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	defer db.Close()

	err = RunMigrations(db)
	require.NoError(t, err, "first migration run should succeed")

	// Second run should not error (ErrNoChange handled internally)
	err = RunMigrations(db)
	require.NoError(t, err, "second migration run should not error")

	var tableName string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='operations'`).Scan(&tableName)
	require.NoError(t, err)
	require.Equal(t, "operations", tableName)
}

// TestMigrations_Schema verifies operations table exists with correct columns and indexes.
func TestMigrations_Schema(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	defer db.Close()

	err = RunMigrations(db)
	require.NoError(t, err)

	rows, err := db.Query(`PRAGMA table_info(operations)`)
	require.NoError(t, err)
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, typ string
		var notnull, pk int
		var dflt interface{}
		err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk)
		require.NoError(t, err)
		columns[name] = true
	}
	require.NoError(t, rows.Err())

	expectedColumns := []string{"id", "guid", "repo_path", "op_type", "action", "description", "inverse_argv", "recorded_at"}
	for _, col := range expectedColumns {
		require.True(t, columns[col], "column %s should exist", col)
	}

	indexRows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='index' AND tbl_name='operations'`)
	require.NoError(t, err)
	defer indexRows.Close()

	indexes := make(map[string]bool)
	for indexRows.Next() {
		var name string
		require.NoError(t, indexRows.Scan(&name))
		indexes[name] = true
	}
	require.NoError(t, indexRows.Err())

	expectedIndexes := []string{
		"idx_operations_repo_path",
		"idx_operations_recorded_at",
	}
	for _, idx := range expectedIndexes {
		require.True(t, indexes[idx], "index %s should exist", idx)
	}
}

// TestMigrations_Down verifies down migration rolls back schema correctly.
func TestMigrations_Down(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	defer db.Close()

	driver, err := WithInstance(db, &Config{})
	require.NoError(t, err)

	source, err := iofs.New(MigrationsFS(), ".")
	require.NoError(t, err)

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	require.NoError(t, err)

	err = m.Up()
	require.NoError(t, err, "migrations should apply")

	var tableExists bool
	err = db.QueryRow(`SELECT COUNT(*) > 0 FROM sqlite_master WHERE type='table' AND name='operations'`).Scan(&tableExists)
	require.NoError(t, err)
	require.True(t, tableExists, "operations table should exist before down migration")

	err = m.Down()
	require.NoError(t, err, "down migrations should succeed")

	err = db.QueryRow(`SELECT COUNT(*) > 0 FROM sqlite_master WHERE type='table' AND name='operations'`).Scan(&tableExists)
	require.NoError(t, err)
	require.False(t, tableExists, "operations table should be dropped after down migration")

	var indexCount int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND tbl_name='operations'`).Scan(&indexCount)
	require.NoError(t, err)
	require.Equal(t, 0, indexCount, "all indexes should be dropped")
}

// TestMigrationsFS_Embedded verifies SQL files load from embedded FS at build time.
func TestMigrationsFS_Embedded(t *testing.T) {
	fs := MigrationsFS()
	require.NotNil(t, fs, "MigrationsFS should return non-nil filesystem")

	entries, err := embeddedMigrationsFS.ReadDir(".")
	require.NoError(t, err, "should read embedded directory")

	fileNames := make(map[string]bool)
	for _, entry := range entries {
		fileNames[entry.Name()] = true
	}

	require.True(t, fileNames["000001_create_operations.up.sql"], "up migration should be embedded")
	require.True(t, fileNames["000001_create_operations.down.sql"], "down migration should be embedded")

	upContent, err := embeddedMigrationsFS.ReadFile("000001_create_operations.up.sql")
	require.NoError(t, err)
	require.Contains(t, string(upContent), "CREATE TABLE")

	downContent, err := embeddedMigrationsFS.ReadFile("000001_create_operations.down.sql")
	require.NoError(t, err)
	require.Contains(t, string(downContent), "DROP TABLE")
}

// TestNCrucesDriverWithGolangMigrate validates that our custom NCrucesSqlite driver
// works with golang-migrate's migration framework using ncruces/go-sqlite3.
func TestNCrucesDriverWithGolangMigrate(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err, "ncruces driver should open :memory: database")
	defer db.Close()

	err = db.Ping()
	require.NoError(t, err, "database should respond to ping")

	driver, err := WithInstance(db, &Config{})
	require.NoError(t, err, "WithInstance should accept ncruces *sql.DB")
	require.NotNil(t, driver, "driver should not be nil")
}

// TestMigrateIdempotent verifies that running migrations twice handles ErrNoChange.
func TestMigrateIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	defer db.Close()

	driver1, err := WithInstance(db, &Config{})
	require.NoError(t, err)

	source1, err := iofs.New(MigrationsFS(), ".")
	require.NoError(t, err)

	m1, err := migrate.NewWithInstance("iofs", source1, "sqlite3", driver1)
	require.NoError(t, err)

	err = m1.Up()
	require.NoError(t, err, "first migration run should succeed")

	// Close and recreate migrator (simulates app restart)
	driver2, err := WithInstance(db, &Config{})
	require.NoError(t, err)

	source2, err := iofs.New(MigrationsFS(), ".")
	require.NoError(t, err)

	m2, err := migrate.NewWithInstance("iofs", source2, "sqlite3", driver2)
	require.NoError(t, err)

	err = m2.Up()
	if err != nil {
		require.True(t, errors.Is(err, migrate.ErrNoChange),
			"second migration run should return ErrNoChange, got: %v", err)
	}
}

// TestInsertAndQueryWithMigration verifies the migrated schema works for CRUD.
func TestInsertAndQueryWithMigration(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	defer db.Close()

	err = RunMigrations(db)
	require.NoError(t, err)

	result, err := db.Exec(`
		INSERT INTO operations (guid, repo_path, op_type, action, description, inverse_argv, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, "op-guid-123", "/home/dev/project", "stage", "record", "stage main.go", `["restore","--staged","--","main.go"]`, 1706000000)
	require.NoError(t, err, "insert should succeed")

	id, err := result.LastInsertId()
	require.NoError(t, err)
	require.Equal(t, int64(1), id, "first insert should have ID 1")

	var guid, repoPath, opType, action string
	var recordedAt int64
	err = db.QueryRow(`
		SELECT guid, repo_path, op_type, action, recorded_at
		FROM operations WHERE id = ?
	`, id).Scan(&guid, &repoPath, &opType, &action, &recordedAt)
	require.NoError(t, err)
	require.Equal(t, "op-guid-123", guid)
	require.Equal(t, "/home/dev/project", repoPath)
	require.Equal(t, "stage", opType)
	require.Equal(t, "record", action)
}
