package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brightfeed/newsbrief/internal/discovery"
	"github.com/brightfeed/newsbrief/internal/model"
	"github.com/brightfeed/newsbrief/internal/prefs"
	"github.com/brightfeed/newsbrief/internal/providers/llm"
)

type fakeDocStore struct {
	doc map[string]types.AttributeValue
}

func (f *fakeDocStore) GetPreferences(ctx context.Context, userID string) (map[string]types.AttributeValue, bool, error) {
	if f.doc == nil {
		return nil, false, nil
	}
	return f.doc, true, nil
}

func (f *fakeDocStore) PutPreferences(ctx context.Context, p model.UserPreferences) error {
	av, err := attributevalue.MarshalMap(p)
	if err != nil {
		return err
	}
	f.doc = av
	return nil
}

type fakeStore struct {
	articles   *model.UserArticlesBundle
	reports    *model.UserReportBundle
	playCounts map[string]int
}

func (f *fakeStore) GetArticlesBundle(ctx context.Context, userID string) (*model.UserArticlesBundle, bool, error) {
	if f.articles == nil {
		return nil, false, nil
	}
	return f.articles, true, nil
}
func (f *fakeStore) PutArticlesBundle(ctx context.Context, bundle model.UserArticlesBundle) error {
	f.articles = &bundle
	return nil
}
func (f *fakeStore) GetReportBundle(ctx context.Context, userID string) (*model.UserReportBundle, bool, error) {
	if f.reports == nil {
		return nil, false, nil
	}
	return f.reports, true, nil
}
func (f *fakeStore) PutReportBundle(ctx context.Context, bundle model.UserReportBundle) error {
	f.reports = &bundle
	return nil
}
func (f *fakeStore) PutPodcastRun(ctx context.Context, artifact model.PodcastArtifact) error {
	return nil
}
func (f *fakeStore) IncrementPlayCount(ctx context.Context, userID string) error {
	if f.playCounts == nil {
		f.playCounts = map[string]int{}
	}
	f.playCounts[userID]++
	return nil
}

type stubLLM struct{}

func (stubLLM) Complete(ctx context.Context, params llm.CompleteParams) (llm.CompleteResult, error) {
	return llm.CompleteResult{Text: "Tell me more about your interests."}, nil
}

func newTestServer() (*server, *fakeStore) {
	docStore := &fakeDocStore{}
	store := &fakeStore{}
	prefsStore := prefs.New(docStore)
	return &server{
		deps: Deps{
			Prefs:     prefsStore,
			Discovery: discovery.New(stubLLM{}, prefsStore),
			Store:     store,
			Log:       nil,
		},
		now: func() time.Time { return time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC) },
	}, store
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response body: %v (body=%s)", err, rr.Body.String())
	}
	return body
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	NewRouter(s).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["status"] != "healthy" {
		t.Errorf("expected status=healthy, got %v", body["status"])
	}
}

func TestGetUserPreferencesReturnsEmptySkeletonWhenNone(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/get_user_preferences", bytes.NewBufferString(`{"user_id":"u1"}`))
	rr := httptest.NewRecorder()
	NewRouter(s).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["success"] != true {
		t.Errorf("expected success=true, got %v", body)
	}
}

func TestSaveInitialPreferencesRejectsMissingUserID(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/save_initial_preferences", bytes.NewBufferString(`{"preferences":{}}`))
	rr := httptest.NewRecorder()
	NewRouter(s).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["success"] != false {
		t.Errorf("expected success=false, got %v", body)
	}
	if _, ok := body["error"]; !ok {
		t.Error("expected an error field")
	}
}

func TestSaveInitialPreferencesThenGetRoundTrips(t *testing.T) {
	s, _ := newTestServer()
	payload := `{"user_id":"u1","preferences":{"technology":{"ai":{"subreddits":["MachineLearning"],"queries":["AI"]}}},"detail_level":"Medium","language":"en"}`
	req := httptest.NewRequest(http.MethodPost, "/save_initial_preferences", bytes.NewBufferString(payload))
	rr := httptest.NewRecorder()
	NewRouter(s).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["topics_count"].(float64) != 1 {
		t.Errorf("expected topics_count=1, got %v", body["topics_count"])
	}

	getReq := httptest.NewRequest(http.MethodPost, "/get_user_preferences", bytes.NewBufferString(`{"user_id":"u1"}`))
	getRR := httptest.NewRecorder()
	NewRouter(s).ServeHTTP(getRR, getReq)
	getBody := decodeBody(t, getRR)
	prefsMap := getBody["preferences"].(map[string]any)
	if prefsMap["format_version"] != "3.0" {
		t.Errorf("expected format_version=3.0, got %v", prefsMap["format_version"])
	}
}

func TestGetUserArticlesReturns404WhenAbsent(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/get_user_articles_endpoint", bytes.NewBufferString(`{"user_id":"u1"}`))
	rr := httptest.NewRecorder()
	NewRouter(s).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAnswerRejectsEmptyUserMessage(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/answer", bytes.NewBufferString(`{"user_id":"u1","conversation_history":[],"user_message":""}`))
	rr := httptest.NewRecorder()
	NewRouter(s).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestTrackPodcastPlayIncrementsCount(t *testing.T) {
	s, store := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/track_podcast_play", bytes.NewBufferString(`{"user_id":"u1"}`))
	rr := httptest.NewRecorder()
	NewRouter(s).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if store.playCounts["u1"] != 1 {
		t.Errorf("expected play count 1, got %d", store.playCounts["u1"])
	}
}

func TestCORSPreflightIsHandledGlobally(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest(http.MethodOptions, "/get_user_preferences", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	NewRouter(s).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent && rr.Code != http.StatusOK {
		t.Fatalf("expected preflight to succeed, got %d", rr.Code)
	}
}
