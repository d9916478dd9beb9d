package migrations

import (
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"realty-system/internal/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations_Annotated(t *testing.T) {
	names, err := fs.Glob(embedMigrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for i, name := range names {
		assert.True(t, strings.HasPrefix(name, fmt.Sprintf("%05d_", i+1)), "нумерация без пропусков: %s", name)
		body, err := fs.ReadFile(embedMigrations, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}

func TestEmbeddedMigrations_ListingTables(t *testing.T) {
	var schema strings.Builder
	names, _ := fs.Glob(embedMigrations, "*.sql")
	for _, name := range names {
		body, err := fs.ReadFile(embedMigrations, name)
		require.NoError(t, err)
		schema.Write(body)
	}

	tables := map[entities.ListingKind]string{
		entities.KindApartment: "apartments",
		entities.KindCommerce:  "commerce",
		entities.KindHouse:     "houses",
		entities.KindLand:      "land",
	}
	for _, kind := range entities.ListingKinds {
		assert.Contains(t, schema.String(), "CREATE TABLE "+tables[kind]+" (", string(kind))
	}
	assert.Contains(t, schema.String(), "CREATE TABLE history_snapshots (")
}
