package httpapi

import (
	"net/http"

	"github.com/brightfeed/newsbrief/internal/model"
	"github.com/brightfeed/newsbrief/internal/prefs"
)

type savePreferencesRequest struct {
	UserID      string                                    `json:"user_id"`
	Preferences map[string]map[string]model.SubtopicPrefs `json:"preferences"`
	DetailLevel string                                    `json:"detail_level"`
	Language    string                                    `json:"language"`
}

// handleSaveInitialPreferences implements save_initial_preferences.
func (s *server) handleSaveInitialPreferences(w http.ResponseWriter, r *http.Request) {
	var req savePreferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, s.now(), "malformed JSON body")
		return
	}

	detailLevel := model.DetailLevel(req.DetailLevel)
	if detailLevel == "" {
		detailLevel = model.DetailMedium
	}
	language := req.Language
	if language == "" {
		language = "en"
	}

	userPrefs := model.UserPreferences{
		UserID:      req.UserID,
		Preferences: req.Preferences,
		DetailLevel: detailLevel,
		Language:    language,
	}
	if err := s.deps.Prefs.Save(r.Context(), userPrefs); err != nil {
		writeErr(w, s.now(), err)
		return
	}

	topicsCount := len(userPrefs.Preferences)
	subtopicsCount := 0
	for _, subtopics := range userPrefs.Preferences {
		subtopicsCount += len(subtopics)
	}
	writeOK(w, s.now(), map[string]any{
		"format_version":  prefs.CurrentFormatVersion,
		"topics_count":    topicsCount,
		"subtopics_count": subtopicsCount,
	})
}

type userIDRequest struct {
	UserID string `json:"user_id"`
}

// handleGetUserPreferences implements get_user_preferences.
func (s *server) handleGetUserPreferences(w http.ResponseWriter, r *http.Request) {
	var req userIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, s.now(), "malformed JSON body")
		return
	}
	if req.UserID == "" {
		writeBadRequest(w, s.now(), "user_id is required")
		return
	}

	p, err := s.deps.Prefs.Get(r.Context(), req.UserID)
	if err != nil {
		writeErr(w, s.now(), err)
		return
	}
	writeOK(w, s.now(), map[string]any{"preferences": p})
}

type updateSpecificSubjectsRequest struct {
	UserID              string          `json:"user_id"`
	Action              string          `json:"action"`
	ConversationHistory []discoveryTurn `json:"conversation_history,omitempty"`
	UserMessage         string          `json:"user_message,omitempty"`
	Language            string          `json:"language,omitempty"`
}

type discoveryTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// handleUpdateSpecificSubjects implements update_specific_subjects, §4.10's
// analyze/get action pair.
func (s *server) handleUpdateSpecificSubjects(w http.ResponseWriter, r *http.Request) {
	var req updateSpecificSubjectsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, s.now(), "malformed JSON body")
		return
	}
	if req.UserID == "" {
		writeBadRequest(w, s.now(), "user_id is required")
		return
	}

	switch req.Action {
	case "get":
		subjects, err := s.deps.Discovery.GetSpecificSubjects(r.Context(), req.UserID)
		if err != nil {
			writeErr(w, s.now(), err)
			return
		}
		writeOK(w, s.now(), map[string]any{"specific_subjects": subjects})
	case "analyze", "":
		subjects, err := s.deps.Discovery.AnalyzeSpecificSubjects(
			r.Context(), req.UserID, toDiscoveryTurns(req.ConversationHistory), req.UserMessage, req.Language)
		if err != nil {
			writeErr(w, s.now(), err)
			return
		}
		writeOK(w, s.now(), map[string]any{"specific_subjects": subjects})
	default:
		writeBadRequest(w, s.now(), "action must be one of: analyze, get")
	}
}
