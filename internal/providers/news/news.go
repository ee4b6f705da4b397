// Package news is the news-search provider client from §4.2, grounded on the
// GNews.io API contract recovered from original_source/test_gnews_direct.py
// (query params q/lang/country/max/apikey; {totalArticles, articles[]}
// response body), wrapped with the same timeout+classify+minimal-retry shape
// the teacher uses for its own external HTTP calls (internal/ingest/url.go's
// http.Client{Timeout: ...} idiom).
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/brightfeed/newsbrief/internal/errs"
	"github.com/brightfeed/newsbrief/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("newsbrief-news")

const callTimeout = 30 * time.Second

// TimePeriod is the coarse bucket news search is quantized to.
type TimePeriod string

const (
	PeriodHour TimePeriod = "hour"
	PeriodDay  TimePeriod = "day"
	PeriodWeek TimePeriod = "week"
)

// QuantizeFromDate maps an arbitrary lookback duration to the smallest
// bucket greater than or equal to it, per §4.2's "quantized to the smallest
// bucket ≥ (now − from_date)".
func QuantizeFromDate(d time.Duration) TimePeriod {
	switch {
	case d <= time.Hour:
		return PeriodHour
	case d <= 24*time.Hour:
		return PeriodDay
	default:
		return PeriodWeek
	}
}

// SearchResult is the normalized response shape from §4.2.
type SearchResult struct {
	Success     bool
	Total       int
	Articles    []model.Article
	UsedFallback bool
}

type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: callTimeout},
		apiKey:     apiKey,
		baseURL:    "https://gnews.io/api/v4/search",
	}
}

// gnewsResponse mirrors GNews.io's JSON body.
type gnewsResponse struct {
	TotalArticles int `json:"totalArticles"`
	Articles      []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		Image       string `json:"image"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"source"`
	} `json:"articles"`
	Errors []string `json:"errors"`
}

// Search issues one news search, optionally bucketed to timePeriod. When
// timePeriod yields zero results it retries once without the bucket and sets
// UsedFallback, per §4.2.
func (c *Client) Search(ctx context.Context, query, language, country string, max int, timePeriod TimePeriod) (SearchResult, error) {
	ctx, span := tracer.Start(ctx, "news.Search")
	span.SetAttributes(attribute.String("query", query), attribute.String("time_period", string(timePeriod)))
	defer span.End()

	result, err := c.search(ctx, query, language, country, max, timePeriod)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "news search failed")
		return SearchResult{}, err
	}
	if result.Total == 0 && timePeriod != "" {
		fallback, err := c.search(ctx, query, language, country, max, "")
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "news search fallback failed")
			return SearchResult{}, err
		}
		fallback.UsedFallback = true
		return fallback, nil
	}
	return result, nil
}

func (c *Client) search(ctx context.Context, query, language, country string, max int, timePeriod TimePeriod) (SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	if language != "" {
		q.Set("lang", language)
	}
	if country != "" {
		q.Set("country", country)
	}
	if max > 0 {
		q.Set("max", strconv.Itoa(max))
	}
	if timePeriod != "" {
		q.Set("from", quantizedFromParam(timePeriod))
	}
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return SearchResult{}, errs.New(errs.InvalidInput, "build news request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SearchResult{}, errs.New(errs.ProviderTransient, "news request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return SearchResult{}, errs.New(errs.ProviderTransient, "read news response", err)
	}

	if kind := classifyStatus(resp.StatusCode, string(body)); kind != "" {
		return SearchResult{}, errs.New(kind, fmt.Sprintf("news provider returned %d", resp.StatusCode), nil)
	}

	var parsed gnewsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return SearchResult{}, errs.New(errs.ProviderTransient, "parse news response", err)
	}

	articles := make([]model.Article, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		articles = append(articles, model.Article{
			Title:       a.Title,
			URL:         a.URL,
			SourceName:  a.Source.Name,
			PublishedAt: published,
			Snippet:     a.Description,
			ImageURL:    a.Image,
			Content:     a.Content,
		})
	}

	return SearchResult{Success: true, Total: parsed.TotalArticles, Articles: articles}, nil
}

func quantizedFromParam(period TimePeriod) string {
	var d time.Duration
	switch period {
	case PeriodHour:
		d = time.Hour
	case PeriodDay:
		d = 24 * time.Hour
	case PeriodWeek:
		d = 7 * 24 * time.Hour
	}
	return time.Now().Add(-d).UTC().Format(time.RFC3339)
}

func classifyStatus(status int, body string) errs.Kind {
	lower := strings.ToLower(body)
	switch {
	case status == 429 || strings.Contains(lower, "rate limit"):
		return errs.ProviderRateLimit
	case status == 403 && strings.Contains(lower, "quota"):
		return errs.ProviderQuota
	case status == 403 || status == 401:
		return errs.ProviderAuth
	case status >= 500:
		return errs.ProviderTransient
	case status >= 400:
		return errs.ProviderTransient
	default:
		return ""
	}
}
