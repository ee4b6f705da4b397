package httpapi

import (
	"net/http"

	"github.com/brightfeed/newsbrief/internal/discovery"
)

func toDiscoveryTurns(turns []discoveryTurn) []discovery.Turn {
	out := make([]discovery.Turn, len(turns))
	for i, t := range turns {
		out[i] = discovery.Turn{Role: t.Role, Text: t.Text}
	}
	return out
}

type answerRequest struct {
	UserID              string          `json:"user_id,omitempty"`
	ConversationHistory []discoveryTurn `json:"conversation_history"`
	UserMessage         string          `json:"user_message"`
	Language            string          `json:"language,omitempty"`
}

// handleAnswer implements answer: one conversational-discovery turn plus the
// concurrent entity extraction from §4.10.
func (s *server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, s.now(), "malformed JSON body")
		return
	}
	if req.UserMessage == "" {
		writeBadRequest(w, s.now(), "user_message is required")
		return
	}

	resp, err := s.deps.Discovery.Converse(r.Context(), discovery.Request{
		UserID:              req.UserID,
		ConversationHistory: toDiscoveryTurns(req.ConversationHistory),
		UserMessage:         req.UserMessage,
		Language:            req.Language,
	})
	if err != nil {
		writeErr(w, s.now(), err)
		return
	}

	writeOK(w, s.now(), map[string]any{
		"ai_message":          resp.AIMessage,
		"conversation_ending": resp.ConversationEnding,
		"ready_for_news":      resp.ReadyForNews,
		"usage":               resp.Usage,
	})
}
