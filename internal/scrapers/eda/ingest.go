package eda

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"recipe-scraper/internal/db"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_ingest_fetch     = "ingest.fetch"
	report_ingest_parse     = "ingest.parse"
	report_ingest_integrity = "ingest.integrity"
	report_ingest_store     = "ingest.store"
	report_ingest_counts    = "ingest.counts"
)

type Status int

const (
	STATUS_STORED Status = iota
	STATUS_SKIPPED_FETCH
	STATUS_SKIPPED_PARSE
	STATUS_SKIPPED_INTEGRITY
	STATUS_SKIPPED_ERROR
)

func (s Status) String() string {
	switch s {
	case STATUS_STORED:
		return "stored"
	case STATUS_SKIPPED_FETCH:
		return "skipped_fetch"
	case STATUS_SKIPPED_PARSE:
		return "skipped_parse"
	case STATUS_SKIPPED_INTEGRITY:
		return "skipped_integrity"
	case STATUS_SKIPPED_ERROR:
		return "skipped_error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of ingesting a single detail page.
//
// A skipped outcome can still have a RecipeId, writes that were committed before
// the failing step are kept.
type Outcome struct {
	Url         string
	Status      Status
	RecipeId    int64
	Name        string
	Ingredients int
	Err         error
}

type Summary struct {
	Links    int
	Outcomes []Outcome
}

func (s Summary) Count(status Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

func (s Summary) Skipped() int {
	return len(s.Outcomes) - s.Count(STATUS_STORED)
}

// Run ingests every link in order, a failing link never stops the links after it.
func (s Scraper) Run(ctx context.Context, links []string) Summary {
	summary := Summary{Links: len(links)}
	for _, link := range links {
		if ctx.Err() != nil {
			s.tel.ReportBroken(report_ingest_fetch, ctx.Err(), "remaining", len(links)-len(summary.Outcomes))
			break
		}
		summary.Outcomes = append(summary.Outcomes, s.Ingest(ctx, link))
	}

	for _, status := range []Status{
		STATUS_STORED,
		STATUS_SKIPPED_FETCH,
		STATUS_SKIPPED_PARSE,
		STATUS_SKIPPED_INTEGRITY,
		STATUS_SKIPPED_ERROR,
	} {
		s.tel.ReportCount(fmt.Sprintf("%s.%s", report_ingest_counts, status), int64(summary.Count(status)))
	}
	return summary
}

// Ingest fetches, parses and stores a single detail page.
func (s Scraper) Ingest(ctx context.Context, link string) Outcome {
	ctx, span := tracer.Start(ctx, "scraper:Ingest")
	defer span.End()
	span.SetAttributes(attribute.String("url", link))

	outcome := s.ingest(ctx, link)
	span.SetAttributes(attribute.String("status", outcome.Status.String()))
	if s.outcomes != nil {
		s.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("status", outcome.Status.String())))
	}
	return outcome
}

func (s Scraper) ingest(ctx context.Context, link string) Outcome {
	doc, err := s.client.Document(ctx, link)
	if err != nil {
		s.tel.ReportBroken(report_ingest_fetch, err, link)
		return Outcome{Url: link, Status: STATUS_SKIPPED_FETCH, Err: err}
	}

	recipe, err := ExtractRecipe(doc)
	if err != nil {
		s.tel.ReportBroken(report_ingest_parse, err, link)
		return Outcome{Url: link, Status: STATUS_SKIPPED_PARSE, Err: err}
	}

	return s.Store(ctx, link, recipe)
}

// fail turns a storage error into a skipped outcome, integrity violations are only
// warnings since they are expected from the data, anything else means something broke.
func (s Scraper) fail(outcome Outcome, err error) Outcome {
	outcome.Err = err
	if db.IsIntegrityError(err) {
		s.tel.ReportWarning(report_ingest_integrity, err, outcome.Url)
		outcome.Status = STATUS_SKIPPED_INTEGRITY
		return outcome
	}
	s.tel.ReportBroken(report_ingest_store, err, outcome.Url)
	outcome.Status = STATUS_SKIPPED_ERROR
	return outcome
}

// Store writes a recipe, its new ingredients and its links.
//
// The recipe and every new ingredient are committed on their own before the links
// are written in a single transaction, so a failure while linking leaves the recipe
// (and any ingredients created for it) in place.
func (s Scraper) Store(ctx context.Context, link string, recipe Recipe) Outcome {
	outcome := Outcome{Url: link, Name: recipe.Name}

	recipeId, err := s.createRecipe(ctx, recipe)
	if err != nil {
		return s.fail(outcome, fmt.Errorf("create recipe: %w", err))
	}
	outcome.RecipeId = recipeId
	s.tel.ReportInfo("recipe added to the database", "name", recipe.Name, "id", recipeId)

	ingredientIds := make([]int64, 0, len(recipe.Ingredients))
	seen := map[int64]struct{}{}
	for _, name := range recipe.Ingredients {
		id, err := s.ingredientId(ctx, name)
		if err != nil {
			return s.fail(outcome, fmt.Errorf("ingredient '%s': %w", name, err))
		}
		if _, duplicate := seen[id]; duplicate {
			s.tel.ReportDebug("duplicate ingredient in recipe", "name", name, "url", link)
			continue
		}
		seen[id] = struct{}{}
		ingredientIds = append(ingredientIds, id)
	}

	err = s.createLinks(ctx, recipeId, ingredientIds)
	if err != nil {
		return s.fail(outcome, fmt.Errorf("link ingredients: %w", err))
	}

	outcome.Status = STATUS_STORED
	outcome.Ingredients = len(ingredientIds)
	return outcome
}

func (s Scraper) createRecipe(ctx context.Context, recipe Recipe) (int64, error) {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("make tx: %w", err)
	}
	defer discard()

	id, err := tx.CreateRecipe(ctx, db.CreateRecipeParams{
		Name: recipe.Name,
		Cal:  recipe.Calories,
		Time: recipe.CookTime,
	})
	if err != nil {
		return 0, err
	}
	return id, commit()
}

// ingredientId returns the id of the ingredient called exactly `name`, creating it if
// it doesn't exist yet. The lookup and insert are not atomic across writers.
func (s Scraper) ingredientId(ctx context.Context, name string) (int64, error) {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("make tx: %w", err)
	}
	defer discard()

	existing, err := tx.GetIngredientByName(ctx, name)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	id, err := tx.CreateIngredient(ctx, name)
	if err != nil {
		return 0, err
	}
	return id, commit()
}

func (s Scraper) createLinks(ctx context.Context, recipeId int64, ingredientIds []int64) error {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return fmt.Errorf("make tx: %w", err)
	}
	defer discard()

	for _, ingredientId := range ingredientIds {
		err := tx.CreateLink(ctx, db.CreateLinkParams{
			RecipeID:     recipeId,
			IngredientID: ingredientId,
		})
		if err != nil {
			return err
		}
	}
	return commit()
}
