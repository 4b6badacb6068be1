package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mch-analysis/pkg/config"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.DatabaseConfig
		want    string
		wantErr bool
	}{
		{"sqlite", config.DatabaseConfig{Type: "sqlite", Path: ":memory:"}, "sqlite", false},
		{"empty type is sqlite", config.DatabaseConfig{Path: ":memory:"}, "sqlite", false},
		{"postgres", config.DatabaseConfig{Type: "postgres", Host: "localhost", Port: 5432}, "postgres", false},
		{"postgresql", config.DatabaseConfig{Type: "postgresql", Host: "localhost", Port: 5432}, "postgres", false},
		{"mysql", config.DatabaseConfig{Type: "mysql", Host: "localhost", Port: 3306}, "mysql", false},
		{"unknown", config.DatabaseConfig{Type: "oracle"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Dialector(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}
}

func TestNewGormDB_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	db, err := NewGormDB(&config.DatabaseConfig{Type: "sqlite", Path: path}, Options{Tracing: true})
	require.NoError(t, err)

	repos := NewRepositories(db)
	defer repos.Close()

	require.NoError(t, repos.Migrate(context.Background()))
	assert.NoError(t, repos.HealthCheck(context.Background()))
	assert.True(t, db.Migrator().HasTable(&ProfileRun{}))
	assert.True(t, db.Migrator().HasTable(&ProfileEntry{}))
	assert.Equal(t, 1, repos.DB().Stats().MaxOpenConnections)
}

func TestNewRepositories(t *testing.T) {
	db := setupTestDB(t)

	repos := NewRepositories(db)
	require.NotNil(t, repos)
	assert.NotNil(t, repos.Profiles)
	assert.Equal(t, db, repos.GormDB())
	assert.NotNil(t, repos.DB())
}

func TestRepositories_Close(t *testing.T) {
	db, err := NewGormDB(&config.DatabaseConfig{Type: "sqlite", Path: ":memory:"}, Options{})
	require.NoError(t, err)

	repos := NewRepositories(db)
	assert.NoError(t, repos.Close())
	assert.Error(t, repos.HealthCheck(context.Background()))
}
