package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/troupekit/troupe/internal/engine"
	"github.com/troupekit/troupe/internal/store"
	"github.com/troupekit/troupe/internal/transcript"
)

func (s *Server) handleGetMemories(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")

	memories, err := s.db.ActiveMemories(ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner_id": ownerID,
		"memories": memories,
		"count":    len(memories),
	})
}

func (s *Server) handleGetRelationships(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")

	rels, err := s.db.ListRelationships(ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner_id":      ownerID,
		"relationships": rels,
		"count":         len(rels),
	})
}

func (s *Server) handleGetVitals(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")

	v, err := s.db.GetVitals(ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "unknown character")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleGetWants(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")

	wants, err := s.db.ActiveWants(ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner_id": ownerID,
		"wants":    wants,
		"count":    len(wants),
	})
}

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")

	events, err := s.db.RecentEvents(ownerID, 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner_id": ownerID,
		"events":   events,
		"count":    len(events),
	})
}

func (s *Server) handleRegisterCharacter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID string `json:"owner_id"`
		IsHuman bool   `json:"is_human"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OwnerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id required")
		return
	}

	v, err := s.db.EnsureVitals(req.OwnerID, req.IsHuman)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// handleRecordEvent is the write surface: chat and activity handlers post
// interaction events here. An optional affinity_delta adjusts the ledger row
// directly — the engine itself only ever consumes affinity.
func (s *Server) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceID      string  `json:"source_id"`
		TargetID      string  `json:"target_id"`
		EventType     string  `json:"event_type"`
		Intensity     float64 `json:"intensity"`
		Context       string  `json:"context"`
		AffinityDelta float64 `json:"affinity_delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SourceID == "" || req.TargetID == "" || req.EventType == "" {
		writeError(w, http.StatusBadRequest, "source_id, target_id, event_type required")
		return
	}

	ev := &store.RelationshipEvent{
		SourceID:  req.SourceID,
		TargetID:  req.TargetID,
		EventType: req.EventType,
		Intensity: req.Intensity,
		Context:   req.Context,
		Origin:    store.OriginInteraction,
	}
	if err := s.db.RecordEvent(ev); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.AffinityDelta != 0 {
		if err := s.db.AdjustAffinity(req.SourceID, req.TargetID, req.AffinityDelta); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status":      "recorded",
		"external_id": ev.ExternalID,
	})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")

	var req struct {
		Activity string `json:"activity"`
		BuddyID  string `json:"buddy_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := s.engine.PerformActivity(ownerID, req.Activity, req.BuddyID)
	if err != nil {
		var cooldown *engine.CooldownError
		if errors.As(err, &cooldown) {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":               "activity on cooldown",
				"retry_after_seconds": cooldown.Remaining.Seconds(),
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []transcript.Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	// Guard short-circuits come back as 200 payloads: a skipped cycle is not
	// a failure the heartbeat should back off from.
	result := s.engine.SweepConversation(r.Context(), req.Messages)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	result := s.engine.ReviewMemories(r.Context(), ownerID)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleConsequences(w http.ResponseWriter, r *http.Request) {
	result := s.engine.ProcessRelationshipEvents(r.Context())
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDailyReset(w http.ResponseWriter, r *http.Request) {
	result := s.engine.DailyReset(r.Context())
	writeJSON(w, http.StatusOK, result)
}
