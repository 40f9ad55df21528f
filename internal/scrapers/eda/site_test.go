package eda

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"recipe-scraper/internal/components/telemetry"
	"recipe-scraper/internal/db"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

var fastRetry = RetryPolicy{
	MaxAttempts: 5,
	Multiplier:  time.Millisecond,
	MinWait:     time.Millisecond,
	MaxWait:     5 * time.Millisecond,
}

type detailPage struct {
	Name        string
	Calories    string
	CookTime    string
	Ingredients []string

	// leaves the calories span out of the markup
	OmitCalories bool
}

func (d detailPage) html() string {
	var b strings.Builder
	b.WriteString(`<html><body><main>`)
	b.WriteString(fmt.Sprintf(`<h1 class="emotion-gl52ge">%s</h1>`, d.Name))
	b.WriteString(`<div class="emotion-nutrition">`)
	if !d.OmitCalories {
		b.WriteString(fmt.Sprintf(`<span itemprop="calories">%s</span>`, d.Calories))
	}
	b.WriteString(fmt.Sprintf(`<span itemprop="cookTime">%s</span>`, d.CookTime))
	b.WriteString(`</div><section>`)
	for _, ingredient := range d.Ingredients {
		b.WriteString(fmt.Sprintf(
			`<div class="emotion-1oyy8lz"><span itemprop="recipeIngredient">%s</span><span class="amount">1 шт.</span></div>`,
			ingredient,
		))
	}
	b.WriteString(`</section></main></body></html>`)
	return b.String()
}

// fakeSite imitates the listing and detail pages of eda.ru.
type fakeSite struct {
	// linksPerPage links are laid out over listing blocks of blockSize anchors
	linksPerPage int
	blockSize    int
	// pages after lastPage have no listing blocks, 0 means every page has links
	lastPage int
	// failingPages always respond with a 500
	failingPages map[int]bool
	details      map[string]detailPage
	robots       string
	// every listing page links to the recipes of page 1
	samePaths bool

	mutex sync.Mutex
	hits  map[string]int
}

func (f *fakeSite) hit(path string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.hits == nil {
		f.hits = map[string]int{}
	}
	f.hits[path]++
}

func (f *fakeSite) Hits(path string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.hits[path]
}

func recipePath(page, i int) string {
	return fmt.Sprintf("/recepty/supy/recipe-%d-%d", page, i)
}

func (f *fakeSite) listing(page int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="emotion-header"><a href="/about">about</a></div>`)
	if f.lastPage == 0 || page <= f.lastPage {
		blockSize := f.blockSize
		if blockSize <= 0 {
			blockSize = f.linksPerPage
		}
		for i := 0; i < f.linksPerPage; i++ {
			if i%blockSize == 0 {
				if i > 0 {
					b.WriteString(`</div>`)
				}
				b.WriteString(`<div class="emotion-1j5xcrd">`)
			}
			linkPage := page
			if f.samePaths {
				linkPage = 1
			}
			b.WriteString(fmt.Sprintf(`<a href="%s">Рецепт %d</a>`, recipePath(linkPage, i), i))
		}
		if f.linksPerPage > 0 {
			b.WriteString(`</div>`)
		}
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func (f *fakeSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/recepty" {
		f.hit(r.URL.RequestURI())
	} else {
		f.hit(r.URL.Path)
	}

	switch {
	case r.URL.Path == "/robots.txt":
		if f.robots == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(f.robots))
	case r.URL.Path == "/recepty":
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if f.failingPages[page] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write([]byte(f.listing(page)))
	default:
		detail, ok := f.details[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write([]byte(detail.html()))
	}
}

type testEnv struct {
	site    *fakeSite
	server  *httptest.Server
	db      *db.DB
	tel     *telemetry.Recorder
	client  *Client
	scraper Scraper
}

func setupTestEnv(t testing.TB, site *fakeSite) testEnv {
	server := httptest.NewServer(site)
	t.Cleanup(server.Close)

	tel := telemetry.NewRecorder()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	client, err := NewClient(ctx, ClientOptions{
		BaseUrl: server.URL,
		Timeout: time.Second,
		Retry:   fastRetry,
	}, tel)
	if err != nil {
		t.Fatal(err)
	}

	database, err := db.Open(ctx, "sqlite://")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		database.Close()
	})

	return testEnv{
		site:    site,
		server:  server,
		db:      database,
		tel:     tel,
		client:  client,
		scraper: NewScraper(client, database, tel),
	}
}
