package db

type Recipe struct {
	ID   int64
	Name string
	Cal  string
	Time string
}

type Ingredient struct {
	ID   int64
	Name string
}

type Link struct {
	RecipeID     int64
	IngredientID int64
}

type IngredientFrequency struct {
	Name  string
	Count int64
}

type Counts struct {
	Recipes     int64
	Ingredients int64
	Links       int64
}
