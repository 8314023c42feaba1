package classifier

import (
	"context"
	"testing"

	"famefeed/internal/repository"
	"famefeed/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases", "Flat EARTH", []string{"flat", "earth"}},
		{"strips punctuation", "hoax!!! really?", []string{"hoax", "really"}},
		{"folds diacritics", "Café crème", []string{"cafe", "creme"}},
		{"empty", "   ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func newClassifier(t *testing.T) (*KeywordClassifier, *testutil.Fixture) {
	t.Helper()
	f := testutil.NewFixture(t)
	k, err := NewKeywordClassifier(context.Background(), f.Catalog, repository.NewCatalogRepository(f.DB))
	require.NoError(t, err)
	return k, f
}

func TestKeywordClassifier_AreasInCatalogOrder(t *testing.T) {
	k, f := newClassifier(t)

	res, err := k.Classify(context.Background(), "The election debate was about climate policy.")
	require.NoError(t, err)

	require.Len(t, res.Classifications, 2)
	assert.Equal(t, f.Areas["science"].ID, res.Classifications[0].ExpertiseArea.ID)
	assert.Equal(t, f.Areas["politics"].ID, res.Classifications[1].ExpertiseArea.ID)
	assert.Nil(t, res.Classifications[0].TruthRating)
	assert.False(t, res.ContainsFalseClaim)
}

func TestKeywordClassifier_LowestMarkerWins(t *testing.T) {
	k, f := newClassifier(t)

	res, err := k.Classify(context.Background(), "Wake up: the flat earth physics they hide")
	require.NoError(t, err)

	require.Len(t, res.Classifications, 1)
	rating := res.Classifications[0].TruthRating
	require.NotNil(t, rating)
	assert.Equal(t, f.Ratings["Bullshit"].ID, rating.ID)
	assert.True(t, res.ContainsFalseClaim)
}

func TestKeywordClassifier_PositiveRating(t *testing.T) {
	k, _ := newClassifier(t)

	res, err := k.Classify(context.Background(), "A peer reviewed biology paper")
	require.NoError(t, err)

	require.Len(t, res.Classifications, 1)
	require.NotNil(t, res.Classifications[0].TruthRating)
	assert.Equal(t, "Correct", res.Classifications[0].TruthRating.Name)
	assert.False(t, res.ContainsFalseClaim)
}

func TestKeywordClassifier_NoArea(t *testing.T) {
	k, _ := newClassifier(t)

	res, err := k.Classify(context.Background(), "What a hoax that lunch was")
	require.NoError(t, err)
	assert.Empty(t, res.Classifications)
	assert.False(t, res.ContainsFalseClaim)
}

func TestFunc(t *testing.T) {
	var c Classifier = Func(func(_ context.Context, content string) (Result, error) {
		return Result{ContainsFalseClaim: content == "lie"}, nil
	})
	res, err := c.Classify(context.Background(), "lie")
	require.NoError(t, err)
	assert.True(t, res.ContainsFalseClaim)
}
