package analysis

import (
	"context"
	"os"
	"path/filepath"
	"recipe-scraper/internal/components/telemetry"
	"recipe-scraper/internal/db"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCookTimeMinutes(t *testing.T) {
	cases := []struct {
		text     string
		expected int
	}{
		{text: "1 час 30 минут", expected: 90},
		{text: "45 минут", expected: 45},
		{text: "2 часа", expected: 120},
		{text: "5 часов 1 минута", expected: 301},
		{text: "1 час 30 минут + 20 минут", expected: 90},
		{text: "1 час + 20 минут", expected: 60},
		{text: "10минут", expected: 10},
		{text: "", expected: 0},
		{text: "по вкусу", expected: 0},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, CookTimeMinutes(c.text), c.text)
	}
}

type recipeFixture struct {
	name        string
	cal         string
	time        string
	ingredients []string
}

func setupAnalyzer(t testing.TB, fixtures []recipeFixture) (Analyzer, *telemetry.Recorder) {
	ctx := context.Background()
	database, err := db.Open(ctx, "sqlite://")
	require.NoError(t, err)
	t.Cleanup(func() {
		database.Close()
	})

	q := database.Queries()
	ingredientIds := map[string]int64{}
	for _, fixture := range fixtures {
		recipeId, err := q.CreateRecipe(ctx, db.CreateRecipeParams{
			Name: fixture.name,
			Cal:  fixture.cal,
			Time: fixture.time,
		})
		require.NoError(t, err)

		for _, name := range fixture.ingredients {
			id, ok := ingredientIds[name]
			if !ok {
				id, err = q.CreateIngredient(ctx, name)
				require.NoError(t, err)
				ingredientIds[name] = id
			}
			require.NoError(t, q.CreateLink(ctx, db.CreateLinkParams{
				RecipeID:     recipeId,
				IngredientID: id,
			}))
		}
	}

	tel := telemetry.NewRecorder()
	return NewAnalyzer(q, tel), tel
}

var fixtures = []recipeFixture{
	{name: "Борщ", cal: "450", time: "1 час 30 минут", ingredients: []string{"Свекла", "Картофель", "Соль"}},
	{name: "Драники", cal: " 320 ", time: "40 минут", ingredients: []string{"Картофель", "Соль", "Яйцо"}},
	{name: "Омлет", cal: "250 ккал", time: "15 минут", ingredients: []string{"Яйцо", "Соль"}},
	{name: "Чай", cal: "5", time: "по вкусу", ingredients: []string{}},
}

func TestTopIngredients(t *testing.T) {
	analyzer, _ := setupAnalyzer(t, fixtures)

	top, err := analyzer.TopIngredients(context.Background(), DefaultTopIngredients)
	require.NoError(t, err)

	expected := []db.IngredientFrequency{
		{Name: "Соль", Count: 3},
		{Name: "Картофель", Count: 2},
		{Name: "Яйцо", Count: 2},
		{Name: "Свекла", Count: 1},
	}
	if diff := cmp.Diff(expected, top); diff != "" {
		t.Fatalf("unexpected top ingredients (-want +got):\n%s", diff)
	}

	top, err = analyzer.TopIngredients(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, []db.IngredientFrequency{{Name: "Соль", Count: 3}}, top)

	top, err = analyzer.TopIngredients(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, top)
}

func TestPointsSkipMalformedCalories(t *testing.T) {
	analyzer, tel := setupAnalyzer(t, fixtures)

	points, err := analyzer.Points(context.Background())
	require.NoError(t, err)

	expected := []Point{
		{RecipeId: 1, Minutes: 90, Calories: 450},
		{RecipeId: 2, Minutes: 40, Calories: 320},
		{RecipeId: 4, Minutes: 0, Calories: 5},
	}
	if diff := cmp.Diff(expected, points); diff != "" {
		t.Fatalf("unexpected points (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"analysis: " + report_points_calories}, tel.Ids(telemetry.REPORT_WARNING))
}

func TestSimilarNames(t *testing.T) {
	pairs := SimilarNames([]string{"Tomato", "salt", "tomato", "sugar", "tomatoes", "salt"}, 0.9)

	var got [][2]string
	for _, pair := range pairs {
		require.GreaterOrEqual(t, pair.Similarity, 0.9)
		got = append(got, [2]string{pair.Left, pair.Right})
	}
	require.Equal(t, [][2]string{
		{"Tomato", "tomato"},
		{"Tomato", "tomatoes"},
		{"tomato", "tomatoes"},
	}, got)

	require.Empty(t, SimilarNames(nil, 0.9))
	require.Empty(t, SimilarNames([]string{"salt"}, 0))
}

func TestSimilarIngredients(t *testing.T) {
	analyzer, _ := setupAnalyzer(t, []recipeFixture{
		{name: "Salad", cal: "100", time: "5 минут", ingredients: []string{"tomato", "tomatoes", "salt"}},
	})

	pairs, err := analyzer.SimilarIngredients(context.Background(), 0.9)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.Equal(t, "tomato", pairs[0].Left)
	require.Equal(t, "tomatoes", pairs[0].Right)
}

func TestRenderScatter(t *testing.T) {
	analyzer, _ := setupAnalyzer(t, fixtures)
	points, err := analyzer.Points(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "charts", "chart.png")
	require.NoError(t, RenderScatter(points, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	require.Equal(t, []byte("\x89PNG\r\n\x1a\n"), data[:8])
}

func TestRenderScatterWithoutPoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.svg")
	require.NoError(t, RenderScatter(nil, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestNewScatterLabels(t *testing.T) {
	p, err := NewScatter([]Point{{Minutes: 10, Calories: 100}})
	require.NoError(t, err)
	require.Equal(t, chartTitle, p.Title.Text)
	require.Equal(t, chartXLabel, p.X.Label.Text)
	require.Equal(t, chartYLabel, p.Y.Label.Text)
}
