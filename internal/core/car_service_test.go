package core

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fleetPath(t *testing.T) string {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "configs", "fleet.yaml")
}

func TestCarService_EmptyByDefault(t *testing.T) {
	svc := NewCarService(newTestStore(t).Cars(), nopLogger())
	cars, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cars)
	assert.Empty(t, cars)
}

func TestCarService_SeedFromFleetFile(t *testing.T) {
	ctx := context.Background()
	svc := NewCarService(newTestStore(t).Cars(), nopLogger())

	n, err := svc.SeedFromFile(ctx, fleetPath(t))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	cars, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, cars, 6)
	assert.Equal(t, "Mercedes S-Class", cars[0].Name)
	assert.Equal(t, "BMW X7", cars[1].Name)
	assert.Equal(t, 349.0, cars[1].Price)
	assert.Equal(t, 7, cars[1].Seats)
	assert.Equal(t, "Lamborghini Huracán", cars[5].Name)

	again, err := svc.SeedFromFile(ctx, fleetPath(t))
	require.NoError(t, err)
	assert.Zero(t, again, "an existing catalog is left alone")
}

func TestLoadCatalog_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("cars: [oops"), 0o644))
	_, err = LoadCatalog(bad)
	assert.Error(t, err)

	noPrice := filepath.Join(dir, "noprice.yaml")
	require.NoError(t, os.WriteFile(noPrice, []byte("cars:\n  - name: Fiat 500\n"), 0o644))
	_, err = LoadCatalog(noPrice)
	assert.ErrorIs(t, err, ErrValidation)
}
