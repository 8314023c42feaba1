package bootstrap

import (
	"context"
	"testing"
	"time"

	"famefeed/internal/config"
	"famefeed/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceConfig(t *testing.T) {
	cfg := &config.Config{ConfuserLevel: "Oops", SuperProLevel: "Elite", SimilarityTolerance: 40, ReportCacheTTLSeconds: 5}
	sc := ServiceConfig(cfg)
	assert.Equal(t, "Oops", sc.Ledger.ConfuserLevel)
	assert.Equal(t, "Elite", sc.Ledger.SuperProLevel)
	assert.Equal(t, 40, sc.SimilarityTolerance)
	assert.Equal(t, 5*time.Second, sc.ReportTTL)
}

func TestNewRuntime_SeedsAndWires(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := &config.Config{ConfuserLevel: "Confuser", SuperProLevel: "Super Pro", SimilarityTolerance: 100, FeatureFlags: "community_feed=on"}

	rt, err := NewRuntime(context.Background(), cfg, db, nil, Options{SeedCatalog: true})
	require.NoError(t, err)
	require.NotNil(t, rt.Services)

	levels, err := rt.Store.Catalog.Levels(context.Background())
	require.NoError(t, err)
	assert.Len(t, levels, len(rt.Catalog.FameLevels))
	assert.True(t, rt.Flags.Enabled("community_feed", 1))
}

func TestNewRuntime_BadCatalogPath(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := &config.Config{CatalogPath: "/does/not/exist.yml", ConfuserLevel: "Confuser", SuperProLevel: "Super Pro"}

	_, err := NewRuntime(context.Background(), cfg, db, nil, Options{})
	assert.Error(t, err)
}
