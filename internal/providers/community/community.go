// Package community is the community-forum client from §4.2, grounded on a
// Reddit-shaped JSON API (the "subreddits" vocabulary in §3's data model)
// with the teacher's timeout+user-agent discipline (internal/ingest/url.go).
package community

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brightfeed/newsbrief/internal/errs"
	"github.com/brightfeed/newsbrief/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("newsbrief-community")

const callTimeout = 10 * time.Second
const userAgent = "newsbrief-fetcher/1.0 (+https://brightfeed.example)"

// removalSentinels are comment bodies that indicate the comment was deleted
// or removed and must be dropped at fetch time per §3.
var removalSentinels = map[string]bool{
	"[deleted]": true,
	"[removed]": true,
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string) *Client {
	return &Client{httpClient: &http.Client{Timeout: callTimeout}, baseURL: baseURL}
}

type listing struct {
	Data struct {
		Children []struct {
			Data postData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type postData struct {
	Title       string  `json:"title"`
	Score       int     `json:"score"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
	CreatedUTC  float64 `json:"created_utc"`
	NumComments int     `json:"num_comments"`
	Author      string  `json:"author"`
	Selftext    string  `json:"selftext"`
}

// Hot fetches top-of-window posts for one community, keeping only posts
// newer than 24h and at most limit entries, per §4.3.
func (c *Client) Hot(ctx context.Context, communityName string, window string, limit int) ([]model.CommunityPost, error) {
	ctx, span := tracer.Start(ctx, "community.Hot")
	span.SetAttributes(attribute.String("community", communityName))
	defer span.End()

	if window == "" {
		window = "day"
	}
	u := fmt.Sprintf("%s/r/%s/top.json?t=%s&limit=%d", c.baseURL, communityName, window, limit*3)
	body, err := c.get(ctx, u)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "community request failed")
		return nil, err
	}

	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		err = errs.New(errs.ProviderTransient, "parse community listing", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse community listing failed")
		return nil, err
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	posts := make([]model.CommunityPost, 0, limit)
	for _, child := range l.Data.Children {
		d := child.Data
		createdAt := time.Unix(int64(d.CreatedUTC), 0).UTC()
		if createdAt.Before(cutoff) {
			continue
		}
		posts = append(posts, model.CommunityPost{
			Title:       d.Title,
			Score:       d.Score,
			Permalink:   d.Permalink,
			Community:   d.Subreddit,
			CreatedAt:   createdAt,
			NumComments: d.NumComments,
			Author:      d.Author,
			Selftext:    d.Selftext,
		})
		if len(posts) >= limit {
			break
		}
	}
	return posts, nil
}

type commentListing []struct {
	Data struct {
		Children []struct {
			Data commentData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type commentData struct {
	Body          string  `json:"body"`
	Author        string  `json:"author"`
	Score         int     `json:"score"`
	CreatedUTC    float64 `json:"created_utc"`
	Replies       any     `json:"replies"`
	IsSubmitter   bool    `json:"is_submitter"`
	Distinguished string  `json:"distinguished"`
	Stickied      bool    `json:"stickied"`
}

// TopComments fetches up to limit top comments for a post, dropping
// deleted/removed bodies per §3.
func (c *Client) TopComments(ctx context.Context, permalink string, limit int) ([]model.CommunityComment, error) {
	ctx, span := tracer.Start(ctx, "community.TopComments")
	span.SetAttributes(attribute.String("permalink", permalink))
	defer span.End()

	u := fmt.Sprintf("%s%s.json?limit=%d&depth=1", c.baseURL, strings.TrimSuffix(permalink, "/"), limit*2)
	body, err := c.get(ctx, u)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "community request failed")
		return nil, err
	}

	var l commentListing
	if err := json.Unmarshal(body, &l); err != nil {
		err = errs.New(errs.ProviderTransient, "parse comment listing", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse comment listing failed")
		return nil, err
	}
	if len(l) < 2 {
		return nil, nil
	}

	comments := make([]model.CommunityComment, 0, limit)
	for _, child := range l[1].Data.Children {
		d := child.Data
		if removalSentinels[strings.TrimSpace(d.Body)] {
			continue
		}
		repliesCount := 0
		if m, ok := d.Replies.(map[string]any); ok {
			if data, ok := m["data"].(map[string]any); ok {
				if children, ok := data["children"].([]any); ok {
					repliesCount = len(children)
				}
			}
		}
		comments = append(comments, model.CommunityComment{
			Body:          d.Body,
			Author:        d.Author,
			Score:         d.Score,
			CreatedAt:     time.Unix(int64(d.CreatedUTC), 0).UTC(),
			RepliesCount:  repliesCount,
			IsSubmitter:   d.IsSubmitter,
			Distinguished: d.Distinguished,
			Stickied:      d.Stickied,
		})
		if len(comments) >= limit {
			break
		}
	}
	return comments, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errs.New(errs.InvalidInput, "build community request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.New(errs.ProviderTransient, "community request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errs.New(errs.ProviderRateLimit, "community rate limited", nil)
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return nil, errs.New(errs.ProviderAuth, "community auth error", nil)
	}
	if resp.StatusCode >= 500 {
		return nil, errs.New(errs.ProviderTransient, "community server error", nil)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}
