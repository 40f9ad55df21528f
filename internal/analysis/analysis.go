// Package analysis turns the stored recipes into the ingredient frequency report and
// the calories over cook time scatter plot.
package analysis

import (
	"context"
	"fmt"
	"recipe-scraper/internal/components/assert"
	"recipe-scraper/internal/components/telemetry"
	"recipe-scraper/internal/db"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel"
)

const (
	report_points_calories = "points.calories"
)

const DefaultTopIngredients = 10

var tracer = otel.Tracer("analysis")

var (
	hoursPattern   = regexp.MustCompile(`(\d+)\s*час[а-я]*`)
	minutesPattern = regexp.MustCompile(`(\d+)\s*минут[а-я]*`)
)

// CookTimeMinutes converts the cook time text of a recipe ("1 час 30 минут") into minutes.
//
// Only the part before the first '+' counts, so "1 час + 20 минут" is 60. Missing
// hours or minutes count as 0.
func CookTimeMinutes(text string) int {
	text, _, _ = strings.Cut(text, "+")

	minutes := 0
	if match := hoursPattern.FindStringSubmatch(text); match != nil {
		hours, _ := strconv.Atoi(match[1])
		minutes += hours * 60
	}
	if match := minutesPattern.FindStringSubmatch(text); match != nil {
		n, _ := strconv.Atoi(match[1])
		minutes += n
	}
	return minutes
}

// Point is a single recipe on the scatter plot.
type Point struct {
	RecipeId int64
	Minutes  int
	Calories int
}

type Analyzer struct {
	q   *db.Queries
	tel telemetry.API
}

func NewAnalyzer(q *db.Queries, tel telemetry.API) Analyzer {
	assert.NotNil(q)
	assert.NotNil(tel)
	return Analyzer{
		q:   q,
		tel: telemetry.NewScopedAPI("analysis", tel),
	}
}

// TopIngredients returns the `n` ingredient names used by the most recipes, ties are
// ordered by name.
func (a Analyzer) TopIngredients(ctx context.Context, n int) ([]db.IngredientFrequency, error) {
	ctx, span := tracer.Start(ctx, "analyzer:TopIngredients")
	defer span.End()

	if n <= 0 {
		return []db.IngredientFrequency{}, nil
	}
	top, err := a.q.IngredientFrequencies(ctx, int64(n))
	if err != nil {
		return nil, fmt.Errorf("ingredient frequencies: %w", err)
	}
	return top, nil
}

// Points returns a point for every recipe, recipes whose calories are not an integer
// are reported and left out.
func (a Analyzer) Points(ctx context.Context) ([]Point, error) {
	ctx, span := tracer.Start(ctx, "analyzer:Points")
	defer span.End()

	recipes, err := a.q.ListRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	points := make([]Point, 0, len(recipes))
	for _, recipe := range recipes {
		calories, err := strconv.Atoi(strings.TrimSpace(recipe.Cal))
		if err != nil {
			a.tel.ReportWarning(report_points_calories, err, recipe.ID, recipe.Name)
			continue
		}
		points = append(points, Point{
			RecipeId: recipe.ID,
			Minutes:  CookTimeMinutes(recipe.Time),
			Calories: calories,
		})
	}
	return points, nil
}

// SimilarPair is two ingredient names that are probably the same ingredient.
type SimilarPair struct {
	Left       string
	Right      string
	Similarity float64
}

// SimilarNames returns every pair of distinct names whose case-insensitive Jaro-Winkler
// similarity is at least `threshold`, most similar first.
func SimilarNames(names []string, threshold float64) []SimilarPair {
	lowered := make([]string, len(names))
	for i, name := range names {
		lowered[i] = strings.ToLower(name)
	}

	pairs := []SimilarPair{}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if names[i] == names[j] {
				continue
			}
			similarity := matchr.JaroWinkler(lowered[i], lowered[j], false)
			if similarity < threshold {
				continue
			}
			pairs = append(pairs, SimilarPair{
				Left:       names[i],
				Right:      names[j],
				Similarity: similarity,
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Similarity != pairs[j].Similarity {
			return pairs[i].Similarity > pairs[j].Similarity
		}
		if pairs[i].Left != pairs[j].Left {
			return pairs[i].Left < pairs[j].Left
		}
		return pairs[i].Right < pairs[j].Right
	})
	return pairs
}

// SimilarIngredients reports stored ingredients that look like spelling variants of
// each other. Nothing is merged.
func (a Analyzer) SimilarIngredients(ctx context.Context, threshold float64) ([]SimilarPair, error) {
	ctx, span := tracer.Start(ctx, "analyzer:SimilarIngredients")
	defer span.End()

	ingredients, err := a.q.ListIngredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	names := make([]string, len(ingredients))
	for i, ingredient := range ingredients {
		names[i] = ingredient.Name
	}
	return SimilarNames(names, threshold), nil
}
