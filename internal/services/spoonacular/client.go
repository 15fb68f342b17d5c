package spoonacular

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pantrychef/recipegen/internal/cache"
	"github.com/pantrychef/recipegen/internal/httpclient"
	"github.com/pantrychef/recipegen/internal/metrics"
	"github.com/pantrychef/recipegen/internal/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultBaseURL is the public Spoonacular API root.
const DefaultBaseURL = "https://api.spoonacular.com"

// LookupRecipe is one result of findByIngredients.
type LookupRecipe struct {
	ID                    int    `json:"id"`
	Title                 string `json:"title"`
	Image                 string `json:"image"`
	UsedIngredientCount   int    `json:"usedIngredientCount"`
	MissedIngredientCount int    `json:"missedIngredientCount"`
	Likes                 int    `json:"likes"`
}

// Client looks up existing recipes by the ingredients they use.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	cache   cache.Cache[[]LookupRecipe]
	retry   utils.RetryConfig
}

// NewClient creates a new Spoonacular client. lookups may be nil to disable caching.
func NewClient(apiKey, baseURL string, lookups cache.Cache[[]LookupRecipe]) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpclient.InstrumentedClient,
		cache:   lookups,
		retry:   utils.LookupRetryConfig(),
	}
}

// statusError marks a non-200 answer; it is retried on 5xx and otherwise
// reported as an empty result.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("spoonacular: unexpected status %d: %s", e.code, e.body)
}

// CacheKey returns the cache key of a lookup. Ingredient order and case do
// not matter.
func CacheKey(ingredients []string, number int) string {
	normalized := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing = strings.ToLower(strings.TrimSpace(ing)); ing != "" {
			normalized = append(normalized, ing)
		}
	}
	sort.Strings(normalized)
	return cache.HashKey(strings.Join(normalized, ","), strconv.Itoa(number))
}

// FindByIngredients returns up to number recipes that use the ingredients.
// A non-200 answer yields an empty list rather than an error; only transport
// failures that survive the retries are returned.
func (c *Client) FindByIngredients(ctx context.Context, ingredients []string, number int) ([]LookupRecipe, error) {
	if len(ingredients) == 0 {
		return []LookupRecipe{}, nil
	}

	key := CacheKey(ingredients, number)
	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, key); ok {
			slog.DebugContext(ctx, "Recipe lookup served from cache", "results", len(cached))
			return cached, nil
		}
	}

	recipes, err := utils.WithRetry(ctx, func(ctx context.Context) ([]LookupRecipe, error) {
		return c.fetch(ctx, ingredients, number)
	}, c.retry)

	var se *statusError
	if errors.As(err, &se) {
		slog.WarnContext(ctx, "Recipe lookup returned non-200 status", "status", se.code)
		return []LookupRecipe{}, nil
	}
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, key, recipes)
	}
	return recipes, nil
}

func (c *Client) fetch(ctx context.Context, ingredients []string, number int) ([]LookupRecipe, error) {
	startTime := time.Now()
	defer func() {
		duration := time.Since(startTime).Seconds()
		attrs := []attribute.KeyValue{attribute.String("provider", "spoonacular")}
		metrics.ExternalAPIDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
		metrics.ExternalAPICallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}()

	q := url.Values{}
	q.Set("ingredients", strings.Join(ingredients, ","))
	q.Set("number", strconv.Itoa(number))
	q.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, "Spoonacular"), http.MethodGet, c.baseURL+"/recipes/findByIngredients?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, body: truncate(string(body), 200)}
	}

	recipes := []LookupRecipe{}
	if err := json.Unmarshal(body, &recipes); err != nil {
		return nil, fmt.Errorf("spoonacular: failed to decode response: %w", err)
	}
	return recipes, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
