// Package classifier assigns posts to expertise areas with a truth rating.
package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"famefeed/internal/catalog"
	"famefeed/internal/models"
	"famefeed/internal/repository"
)

// Classification is one (area, rating) pair. A nil TruthRating means the
// content was placed in the area without a truthfulness judgement.
type Classification struct {
	ExpertiseArea models.ExpertiseArea
	TruthRating   *models.TruthRating
}

// Result is what the post pipeline consumes. Classifications keep the order
// in which the ledger must apply them.
type Result struct {
	ContainsFalseClaim bool
	Classifications    []Classification
}

// Classifier labels post content.
type Classifier interface {
	Classify(ctx context.Context, content string) (Result, error)
}

// Func adapts a plain function to the Classifier interface.
type Func func(ctx context.Context, content string) (Result, error)

// Classify calls f.
func (f Func) Classify(ctx context.Context, content string) (Result, error) {
	return f(ctx, content)
}

type areaRule struct {
	area     models.ExpertiseArea
	keywords [][]string
}

type ratingRule struct {
	rating  models.TruthRating
	markers [][]string
}

// KeywordClassifier is a deterministic phrase matcher driven by the catalog.
type KeywordClassifier struct {
	areas   []areaRule
	ratings []ratingRule
}

// NewKeywordClassifier resolves the catalog entries against the database so
// that results carry persisted IDs. Catalog entries without a matching row
// are skipped with a warning.
func NewKeywordClassifier(ctx context.Context, cat *catalog.Catalog, repo repository.CatalogRepository) (*KeywordClassifier, error) {
	areas, err := repo.Areas(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expertise areas: %w", err)
	}
	ratings, err := repo.TruthRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load truth ratings: %w", err)
	}

	byLabel := make(map[string]models.ExpertiseArea, len(areas))
	for _, a := range areas {
		byLabel[a.Label] = a
	}
	byName := make(map[string]models.TruthRating, len(ratings))
	for _, r := range ratings {
		byName[r.Name] = r
	}

	k := &KeywordClassifier{}
	for _, a := range cat.ExpertiseAreas {
		area, ok := byLabel[a.Label]
		if !ok {
			slog.Warn("classifier: expertise area not seeded", slog.String("label", a.Label))
			continue
		}
		k.areas = append(k.areas, areaRule{area: area, keywords: phrases(a.Keywords)})
	}
	for _, r := range cat.TruthRatings {
		rating, ok := byName[r.Name]
		if !ok {
			slog.Warn("classifier: truth rating not seeded", slog.String("name", r.Name))
			continue
		}
		k.ratings = append(k.ratings, ratingRule{rating: rating, markers: phrases(r.Markers)})
	}
	return k, nil
}

func phrases(raw []string) [][]string {
	out := make([][]string, 0, len(raw))
	for _, p := range raw {
		if toks := Tokenize(p); len(toks) > 0 {
			out = append(out, toks)
		}
	}
	return out
}

// Classify places the content in every area whose keywords it mentions. The
// rating is the lowest-valued truth rating whose markers appear, applied to
// all matched areas.
func (k *KeywordClassifier) Classify(_ context.Context, content string) (Result, error) {
	tokens := Tokenize(content)

	var rating *models.TruthRating
	for i := range k.ratings {
		r := &k.ratings[i]
		if !containsAny(tokens, r.markers) {
			continue
		}
		if rating == nil || r.rating.NumericValue < rating.NumericValue {
			matched := r.rating
			rating = &matched
		}
	}

	res := Result{Classifications: []Classification{}}
	for _, a := range k.areas {
		if containsAny(tokens, a.keywords) {
			res.Classifications = append(res.Classifications, Classification{ExpertiseArea: a.area, TruthRating: rating})
		}
	}
	res.ContainsFalseClaim = len(res.Classifications) > 0 && rating.Negative()
	return res, nil
}

func containsAny(tokens []string, phrases [][]string) bool {
	for _, p := range phrases {
		if containsPhrase(tokens, p) {
			return true
		}
	}
	return false
}

func containsPhrase(tokens, phrase []string) bool {
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		match := true
		for j, p := range phrase {
			if tokens[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
