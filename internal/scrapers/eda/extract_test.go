package eda

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func parseHtml(t testing.TB, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractRecipe(t *testing.T) {
	page := detailPage{
		Name:     "Борщ с пампушками",
		Calories: "450",
		CookTime: "1 час 30 минут",
		Ingredients: []string{
			"Свекла",
			"Сметана 20%",
			"Чеснок",
		},
	}

	recipe, err := ExtractRecipe(parseHtml(t, page.html()))
	require.NoError(t, err)

	expected := Recipe{
		Name:        "Борщ с пампушками",
		Calories:    "450",
		CookTime:    "1 час 30 минут",
		Ingredients: []string{"Свекла", "Сметана 20%", "Чеснок"},
	}
	if diff := cmp.Diff(expected, recipe); diff != "" {
		t.Fatalf("unexpected recipe (-want +got):\n%s", diff)
	}
}

func TestExtractRecipeReplacesNbsp(t *testing.T) {
	page := detailPage{
		Name:        "Борщ&nbsp;домашний",
		Calories:    "300",
		CookTime:    "2&nbsp;часа",
		Ingredients: []string{"Соль&nbsp;морская", "Лавровый\u00a0лист"},
	}

	recipe, err := ExtractRecipe(parseHtml(t, page.html()))
	require.NoError(t, err)
	require.Equal(t, "Борщ домашний", recipe.Name)
	require.Equal(t, []string{"Соль морская", "Лавровый лист"}, recipe.Ingredients)
	// the cook time is stored as found
	require.Equal(t, "2\u00a0часа", recipe.CookTime)
}

func TestExtractRecipeKeepsTextAsIs(t *testing.T) {
	page := detailPage{
		Name:        "Салат",
		Calories:    " 120 ккал ",
		CookTime:    "15 минут",
		Ingredients: []string{"Огурец"},
	}

	recipe, err := ExtractRecipe(parseHtml(t, page.html()))
	require.NoError(t, err)
	require.Equal(t, " 120 ккал ", recipe.Calories)
	require.Equal(t, "15 минут", recipe.CookTime)
}

func TestExtractRecipeWithoutIngredients(t *testing.T) {
	page := detailPage{Name: "Вода", Calories: "0", CookTime: "1 минута"}

	recipe, err := ExtractRecipe(parseHtml(t, page.html()))
	require.NoError(t, err)
	require.Empty(t, recipe.Ingredients)
}

func TestExtractRecipeMissingFields(t *testing.T) {
	cases := []struct {
		name  string
		html  string
		field string
	}{
		{
			name:  "calories",
			html:  detailPage{Name: "Суп", CookTime: "1 час", OmitCalories: true}.html(),
			field: "calories",
		},
		{
			name:  "name",
			html:  `<html><body><span itemprop="calories">10</span><span itemprop="cookTime">1 час</span></body></html>`,
			field: "name",
		},
		{
			name:  "cook time",
			html:  `<html><body><h1 class="emotion-gl52ge">Суп</h1><span itemprop="calories">10</span></body></html>`,
			field: "cook_time",
		},
		{
			name: "ingredient span",
			html: `<html><body>
				<h1 class="emotion-gl52ge">Суп</h1>
				<span itemprop="calories">10</span>
				<span itemprop="cookTime">1 час</span>
				<div class="emotion-1oyy8lz"><span itemprop="recipeIngredient">Вода</span></div>
				<div class="emotion-1oyy8lz"><span>Соль</span></div>
			</body></html>`,
			field: "ingredient",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ExtractRecipe(parseHtml(t, c.html))
			require.ErrorIs(t, err, ErrMissingField)

			var missing *MissingFieldError
			require.True(t, errors.As(err, &missing))
			require.Equal(t, c.field, missing.Field)
		})
	}
}
