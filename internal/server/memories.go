package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/memobloom/memobloom/internal/memory"
	"github.com/memobloom/memobloom/internal/store"
	"github.com/memobloom/memobloom/internal/timeline"
)

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	recs, err := s.memories.List(r.Context(), session(r).OwnerID())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []memory.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(recs),
		"memories": recs,
	})
}

func (s *Server) handleCreateMemory(w http.ResponseWriter, r *http.Request) {
	sess := session(r)

	var d memory.Draft
	if err := decode(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := memory.Validate(&d); err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.memories.Create(r.Context(), memory.Record{
		Record:    d.Record(),
		OwnerID:   sess.OwnerID(),
		CreatedBy: sess.UserID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.MemoriesSaved.WithLabelValues("create", string(rec.Type)).Inc()
	}
	s.recordActivity(sess, store.ActivityMemoryAdded, fmt.Sprintf("Added a new %s: %s", rec.Type, rec.Title))

	writeJSON(w, http.StatusCreated, rec)
}

// handleGetMemory returns the record and its rendered card.
func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	rec, err := s.memories.Get(r.Context(), session(r).OwnerID(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view := rec.Record
	if s.media != nil {
		view = s.media.ResolveRecords(r.Context(), []timeline.Record{view})[0]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"memory": rec,
		"card":   timeline.RenderCard(view),
	})
}

func (s *Server) handleUpdateMemory(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	existing, err := s.memories.Get(r.Context(), sess.OwnerID(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	d := memory.FromRecord(existing.Record)
	if err := decode(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := memory.Validate(&d); err != nil {
		s.writeError(w, r, err)
		return
	}

	next := existing
	next.Record = d.Record()
	next.ID = existing.ID
	rec, err := s.memories.Update(r.Context(), next)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.MemoriesSaved.WithLabelValues("update", string(rec.Type)).Inc()
	}
	s.recordActivity(sess, store.ActivityMemoryUpdated, "Updated "+rec.Title)

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	id := chi.URLParam(r, "id")

	existing, err := s.memories.Get(r.Context(), sess.OwnerID(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.memories.Delete(r.Context(), sess.OwnerID(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.recordActivity(sess, store.ActivityMemoryDeleted, "Removed "+existing.Title)

	w.WriteHeader(http.StatusNoContent)
}
