package catalog_test

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/plain-stack/stackctl/catalog"
)

// Helper to set up an in-memory SQLite catalog
func setupTestCatalog(t *testing.T) *catalog.Catalog {
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	require.NoError(t, err)

	err = gormDB.AutoMigrate(&catalog.Record{})
	require.NoError(t, err)

	return &catalog.Catalog{
		Cli:    gormDB,
		Logger: zerolog.Nop(),
	}
}

func TestCatalog_RecordAndGet(t *testing.T) {
	c := setupTestCatalog(t)
	ctx := context.Background()

	rec := catalog.Record{
		Timestamp:          "20240301_120000",
		DatabaseDumpPath:   "/backups/database_20240301_120000.sql.gz",
		FileArchivePath:    "/backups/files_20240301_120000.tar.gz",
		ConfigSnapshotPath: "/backups/env_20240301_120000",
		DatabaseDumpSize:   1024,
		FileArchiveSize:    4096,
		Complete:           true,
	}
	require.NoError(t, c.Record(ctx, rec))

	got, err := c.Get(ctx, rec.Timestamp)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.DatabaseDumpPath, got.DatabaseDumpPath)
	assert.True(t, got.Complete)
}

func TestCatalog_GetUnknown(t *testing.T) {
	c := setupTestCatalog(t)

	got, err := c.Get(context.Background(), "20240301_120000")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCatalog_RecordUpsert(t *testing.T) {
	c := setupTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Record(ctx, catalog.Record{
		Timestamp:  "20240301_120000",
		Complete:   false,
		FailedStep: "database dump",
	}))

	// Same timestamp recorded again, now complete.
	require.NoError(t, c.Record(ctx, catalog.Record{
		Timestamp:        "20240301_120000",
		Complete:         true,
		DatabaseDumpSize: 512,
	}))

	got, err := c.Get(ctx, "20240301_120000")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Complete)
	assert.Empty(t, got.FailedStep)

	recs, err := c.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestCatalog_ListRecords(t *testing.T) {
	c := setupTestCatalog(t)
	ctx := context.Background()

	for _, ts := range []string{"20240301_120000", "20240303_120000", "20240302_120000"} {
		require.NoError(t, c.Record(ctx, catalog.Record{Timestamp: ts, Complete: true}))
	}

	recs, err := c.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "20240303_120000", recs[0].Timestamp)
	assert.Equal(t, "20240302_120000", recs[1].Timestamp)
	assert.Equal(t, "20240301_120000", recs[2].Timestamp)
}

func TestCatalog_DryRun(t *testing.T) {
	c := setupTestCatalog(t)
	c.DryRun = true
	ctx := context.Background()

	require.NoError(t, c.Record(ctx, catalog.Record{Timestamp: "20240301_120000"}))

	got, err := c.Get(ctx, "20240301_120000")
	require.NoError(t, err)
	assert.Nil(t, got, "dry run must not write")
}
