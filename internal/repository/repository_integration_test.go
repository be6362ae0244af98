package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/cadastre/internal/config"
	"github.com/stwalsh4118/cadastre/internal/database"
	"github.com/stwalsh4118/cadastre/internal/logger"
	"github.com/stwalsh4118/cadastre/internal/models"
)

// getTestConfig returns database configuration for integration tests.
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "cadastral_db"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:  1,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupTestDatabase connects and migrates the test database.
func setupTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, getTestConfig())
	if err != nil {
		t.Fatalf("Failed to create database connection: %v", err)
	}
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx, logger.Nop()))
	return db
}

// uniqueID keeps test rows apart across runs.
func uniqueID(prefix string) *string {
	s := prefix + "-" + uuid.NewString()
	return &s
}

func beginTx(t *testing.T, db *database.Database) (IngestSession, IngestTx) {
	t.Helper()
	ctx := context.Background()

	session, err := NewIngestStore(db).Open(ctx)
	require.NoError(t, err)
	t.Cleanup(session.Close)

	tx, err := session.Begin(ctx)
	require.NoError(t, err)
	return session, tx
}

func TestIngestTx_InsertSkipsExisting(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	issued := time.Date(2019, 8, 20, 9, 30, 0, 0, time.UTC)
	certs := []models.Certificate{
		{ID: uniqueID("GCN"), RegistryNumber: strPtr("CS 01"), IssuedAt: &issued},
		{ID: uniqueID("GCN")},
	}

	_, tx := beginTx(t, db)
	n, err := tx.InsertCertificates(ctx, certs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, tx.Commit(ctx))

	_, tx = beginTx(t, db)
	n, err = tx.InsertCertificates(ctx, certs)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "second insert skips every existing id")
	require.NoError(t, tx.Commit(ctx))

	got, err := NewCadastreRepository(db).FindCertificate(ctx, *certs[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "CS 01", *got.RegistryNumber)
	require.NotNil(t, got.IssuedAt)
	assert.True(t, issued.Equal(*got.IssuedAt))
}

func TestIngestTx_InsertParcelsAcrossPages(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	area := uuid.NewString()[:8]
	parcels := make([]models.Parcel, batchPageSize+5)
	for i := range parcels {
		parcels[i] = models.Parcel{ID: uniqueID("TD"), AreaCode: &area, Area: strPtr("10.5"), Version: strPtr("1")}
	}

	_, tx := beginTx(t, db)
	n, err := tx.InsertParcels(ctx, parcels)
	require.NoError(t, err)
	assert.Equal(t, len(parcels), n)
	require.NoError(t, tx.Commit(ctx))

	found, err := NewCadastreRepository(db).SearchParcels(ctx, ParcelQuery{AreaCode: area})
	require.NoError(t, err)
	assert.Len(t, found, MaxSearchResults)
	assert.Equal(t, "10.50", *found[0].Area)
}

func TestIngestTx_MalformedAreaFailsBeforeSending(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	_, tx := beginTx(t, db)
	defer tx.Rollback(ctx)

	_, err := tx.InsertParcels(ctx, []models.Parcel{{ID: uniqueID("TD"), Area: strPtr("abc")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid area")
}

func TestIngestTx_ExistingCertificateIDs(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	known := uniqueID("GCN")
	missing := uniqueID("GCN")

	_, tx := beginTx(t, db)
	defer tx.Rollback(ctx)

	_, err := tx.InsertCertificates(ctx, []models.Certificate{{ID: known}})
	require.NoError(t, err)

	existing, err := tx.ExistingCertificateIDs(ctx, []string{*known, *missing})
	require.NoError(t, err)
	assert.Contains(t, existing, *known)
	assert.NotContains(t, existing, *missing)

	// the transaction is still usable after the savepoint is released
	n, err := tx.InsertDocumentComponents(ctx, []models.DocumentComponent{{ID: uniqueID("TP"), CertificateID: known}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCadastreRepository_NotFound(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()
	repo := NewCadastreRepository(db)

	parcel, err := repo.FindParcel(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, parcel)

	person, err := repo.FindPerson(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, person)

	components, err := repo.FindComponentsByCertificate(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Empty(t, components)
}
