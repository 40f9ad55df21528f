package eda

import (
	"errors"
	"fmt"
	"recipe-scraper/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	nameSelector            = "h1.emotion-gl52ge"
	caloriesSelector        = "span[itemprop=calories]"
	cookTimeSelector        = "span[itemprop=cookTime]"
	ingredientBlockSelector = "div.emotion-1oyy8lz"
	ingredientNameSelector  = "span[itemprop=recipeIngredient]"
	listingBlockSelector    = "div.emotion-1j5xcrd"
	listingAnchorSelector   = "a[href]"
)

// ErrMissingField matches every *MissingFieldError with errors.Is.
var ErrMissingField = errors.New("missing field")

// MissingFieldError is returned when a detail page lacks a required element.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field: %s", e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// Recipe is everything scraped from a single detail page, the text is kept as found
// on the page except for non-breaking spaces in the name and ingredients.
type Recipe struct {
	Name        string
	Calories    string
	CookTime    string
	Ingredients []string
}

func requiredText(doc *goquery.Selection, field, selector string) (string, error) {
	text, ok := htmlutil.SelectionText(doc.Find(selector))
	if !ok {
		return "", &MissingFieldError{Field: field}
	}
	return text, nil
}

// ExtractRecipe parses a detail page.
func ExtractRecipe(doc *goquery.Document) (Recipe, error) {
	root := doc.Selection

	name, err := requiredText(root, "name", nameSelector)
	if err != nil {
		return Recipe{}, err
	}
	calories, err := requiredText(root, "calories", caloriesSelector)
	if err != nil {
		return Recipe{}, err
	}
	cookTime, err := requiredText(root, "cook_time", cookTimeSelector)
	if err != nil {
		return Recipe{}, err
	}

	ingredients := []string{}
	blocks := root.Find(ingredientBlockSelector)
	for i := range blocks.Nodes {
		text, err := requiredText(blocks.Eq(i), "ingredient", ingredientNameSelector)
		if err != nil {
			return Recipe{}, err
		}
		ingredients = append(ingredients, htmlutil.ReplaceNbsp(text))
	}

	return Recipe{
		Name:        htmlutil.ReplaceNbsp(name),
		Calories:    calories,
		CookTime:    cookTime,
		Ingredients: ingredients,
	}, nil
}
