package database

import (
	"context"
	"testing"
	"testing/fstest"

	"famefeed/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool_SQLiteUsesSingleConnection(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{DBMaxOpenConns: 10, DBMaxIdleConns: 5, DBConnMaxLifetimeMinutes: 15}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestConnectWithOptions_SQLiteAutoSchema(t *testing.T) {
	cfg := &config.Config{
		Env:          "test",
		DBDriver:     "sqlite",
		SQLitePath:   ":memory:",
		DBSchemaMode: SchemaModeAuto,
	}

	db, err := Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, Ping(context.Background(), db))

	for _, table := range []string{"users", "fame", "fame_levels", "posts", "post_classifications", "follows", "community_memberships", "user_ratings"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantSQL bool
		wantAut bool
		wantErr bool
	}{
		{name: "hybrid dev postgres", cfg: config.Config{Env: "development", DBSchemaMode: "hybrid"}, wantSQL: true, wantAut: true},
		{name: "hybrid prod postgres", cfg: config.Config{Env: "production", DBSchemaMode: "hybrid"}, wantSQL: true},
		{name: "auto prod refused", cfg: config.Config{Env: "production", DBSchemaMode: "auto"}, wantErr: true},
		{name: "sqlite never runs sql", cfg: config.Config{Env: "development", DBDriver: "sqlite", DBSchemaMode: "hybrid"}, wantAut: true},
		{name: "unknown mode", cfg: config.Config{DBSchemaMode: "yolo"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAut, runAuto)
		})
	}
}

func TestRegisteredMigrations(t *testing.T) {
	all := GetMigrations()
	require.NotEmpty(t, all)
	assert.Equal(t, 1, all[0].Version)
	assert.Contains(t, all[0].UpScript, "CREATE TABLE IF NOT EXISTS fame")
	assert.NotNil(t, GetMigrationByVersion(1))
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/000002_add_index.up.sql":          {Data: []byte("CREATE INDEX a ON posts (submitted);")},
		"migrations/000002_add_index.down.sql":        {Data: []byte("DROP INDEX a;")},
		"migrations/000001_init_feed_schema.up.sql":   {Data: []byte("CREATE TABLE users ();")},
		"migrations/000001_init_feed_schema.down.sql": {Data: []byte("DROP TABLE users;")},
		"migrations/notes.up.sql":                     {Data: []byte("-- ignored")},
		"migrations/README.md":                        {Data: []byte("ignored")},
	}

	loaded, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "000001_init_feed_schema", loaded[0].String())
	assert.Equal(t, 2, loaded[1].Version)
	assert.Equal(t, "DROP INDEX a;", loaded[1].DownScript)
}

func TestLoadMigrations_Errors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"missing down script", fstest.MapFS{
			"migrations/000001_init.up.sql": {Data: []byte("SELECT 1;")},
		}},
		{"duplicate version", fstest.MapFS{
			"migrations/000001_a.up.sql":   {Data: []byte("SELECT 1;")},
			"migrations/000001_a.down.sql": {Data: []byte("SELECT 1;")},
			"migrations/000001_b.up.sql":   {Data: []byte("SELECT 1;")},
			"migrations/000001_b.down.sql": {Data: []byte("SELECT 1;")},
		}},
		{"no directory", fstest.MapFS{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMigrations(tt.fsys)
			assert.Error(t, err)
		})
	}
}

func TestGetSchemaStatus_ReportsFeedTables(t *testing.T) {
	cfg := &config.Config{Env: "test", DBDriver: "sqlite", SQLitePath: ":memory:", DBSchemaMode: SchemaModeHybrid}
	db, err := ConnectWithOptions(cfg, ConnectOptions{ApplySchema: false})
	require.NoError(t, err)

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.False(t, status.WillRunSQL)
	assert.True(t, status.WillRunAutoMigrate)
	require.Len(t, status.Tables, len(PersistentModels()))
	assert.Contains(t, status.Missing(), "posts")

	require.NoError(t, ApplySchema(context.Background(), db, cfg))
	require.NoError(t, db.Exec("INSERT INTO expertise_areas (label) VALUES ('science')").Error)

	status, err = GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.Empty(t, status.Missing())
	for _, table := range status.Tables {
		if table.Name == "expertise_areas" {
			assert.Equal(t, int64(1), table.Rows)
		}
	}
}
