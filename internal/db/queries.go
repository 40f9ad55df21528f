package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Dialect int

const (
	DIALECT_SQLITE Dialect = iota
	DIALECT_POSTGRES
)

func (d Dialect) String() string {
	switch d {
	case DIALECT_POSTGRES:
		return "postgres"
	default:
		return "sqlite"
	}
}

// rebind turns the `?` placeholders of a query into the placeholders of the dialect.
func (d Dialect) rebind(query string) string {
	if d != DIALECT_POSTGRES {
		return query
	}

	var out strings.Builder
	n := 0
	for _, c := range query {
		if c != '?' {
			out.WriteRune(c)
			continue
		}
		n++
		out.WriteByte('$')
		out.WriteString(strconv.Itoa(n))
	}
	return out.String()
}

func New(db DBTX, dialect Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

type Queries struct {
	db      DBTX
	dialect Dialect
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, dialect: q.dialect}
}

const createRecipe = `INSERT INTO recipes (name, cal, "time") VALUES (?, ?, ?) RETURNING id`

type CreateRecipeParams struct {
	Name string
	Cal  string
	Time string
}

func (q *Queries) CreateRecipe(ctx context.Context, arg CreateRecipeParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, q.dialect.rebind(createRecipe), arg.Name, arg.Cal, arg.Time)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getIngredientByName = `SELECT id, name FROM ingredients WHERE name = ? ORDER BY id LIMIT 1`

// GetIngredientByName returns sql.ErrNoRows if no ingredient has exactly `name`.
func (q *Queries) GetIngredientByName(ctx context.Context, name string) (Ingredient, error) {
	row := q.db.QueryRowContext(ctx, q.dialect.rebind(getIngredientByName), name)
	var i Ingredient
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}

const createIngredient = `INSERT INTO ingredients (name) VALUES (?) RETURNING id`

func (q *Queries) CreateIngredient(ctx context.Context, name string) (int64, error) {
	row := q.db.QueryRowContext(ctx, q.dialect.rebind(createIngredient), name)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createLink = `INSERT INTO connection_table (recipe_id, ingredient_id) VALUES (?, ?)`

type CreateLinkParams struct {
	RecipeID     int64
	IngredientID int64
}

func (q *Queries) CreateLink(ctx context.Context, arg CreateLinkParams) error {
	_, err := q.db.ExecContext(ctx, q.dialect.rebind(createLink), arg.RecipeID, arg.IngredientID)
	return err
}

const listRecipes = `SELECT id, name, cal, "time" FROM recipes ORDER BY id`

func (q *Queries) ListRecipes(ctx context.Context) ([]Recipe, error) {
	rows, err := q.db.QueryContext(ctx, listRecipes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Recipe
	for rows.Next() {
		var i Recipe
		if err := rows.Scan(&i.ID, &i.Name, &i.Cal, &i.Time); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listIngredients = `SELECT id, name FROM ingredients ORDER BY id`

func (q *Queries) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := q.db.QueryContext(ctx, listIngredients)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Ingredient
	for rows.Next() {
		var i Ingredient
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listLinks = `SELECT recipe_id, ingredient_id FROM connection_table ORDER BY recipe_id, ingredient_id`

func (q *Queries) ListLinks(ctx context.Context) ([]Link, error) {
	rows, err := q.db.QueryContext(ctx, listLinks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Link
	for rows.Next() {
		var i Link
		if err := rows.Scan(&i.RecipeID, &i.IngredientID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const ingredientFrequencies = `SELECT i.name, COUNT(*) AS n
FROM connection_table c
JOIN ingredients i ON i.id = c.ingredient_id
GROUP BY i.name
ORDER BY n DESC, i.name
LIMIT ?`

// IngredientFrequencies counts link rows per ingredient name, most frequent first.
func (q *Queries) IngredientFrequencies(ctx context.Context, limit int64) ([]IngredientFrequency, error) {
	rows, err := q.db.QueryContext(ctx, q.dialect.rebind(ingredientFrequencies), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []IngredientFrequency
	for rows.Next() {
		var i IngredientFrequency
		if err := rows.Scan(&i.Name, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countRows = `SELECT
	(SELECT COUNT(*) FROM recipes),
	(SELECT COUNT(*) FROM ingredients),
	(SELECT COUNT(*) FROM connection_table)`

func (q *Queries) CountRows(ctx context.Context) (Counts, error) {
	row := q.db.QueryRowContext(ctx, countRows)
	var c Counts
	err := row.Scan(&c.Recipes, &c.Ingredients, &c.Links)
	return c, err
}
