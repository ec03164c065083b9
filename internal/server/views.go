package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/memobloom/memobloom/internal/auth"
	"github.com/memobloom/memobloom/internal/dashboard"
	"github.com/memobloom/memobloom/internal/memory"
	"github.com/memobloom/memobloom/internal/store"
	"github.com/memobloom/memobloom/internal/timeline"
)

// feedLimit is how many activity entries the dashboard shows.
const feedLimit = 10

// snapshot loads the owner's memories with media references resolved.
func (s *Server) snapshot(ctx context.Context, ownerID string) ([]timeline.Record, error) {
	recs, err := s.memories.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	snap := memory.Snapshot(recs)
	if s.media != nil {
		snap = s.media.ResolveRecords(ctx, snap)
	}
	return snap, nil
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	mode, err := timeline.ParseViewMode(r.URL.Query().Get("view"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	snap, err := s.snapshot(r.Context(), session(r).OwnerID())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tl := timeline.Build(snap, mode)
	if s.metrics != nil {
		s.metrics.TimelineBuilds.WithLabelValues(string(tl.View)).Inc()
	}
	writeJSON(w, http.StatusOK, tl)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	patientID := sess.OwnerID()

	me, err := s.account(sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	profile := dashboard.Profile{
		Name:     me.Name,
		Role:     me.Role,
		Relation: me.Relation,
	}

	family, err := s.db.ListFamily(patientID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	profile.FamilyMembers = len(family)

	routines, err := s.db.CountActivities(patientID, store.ActivityRoutineCompleted)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	profile.RoutinesCompleted = routines

	if sess.Role == auth.RoleFamily {
		patient, err := s.db.GetAccount(patientID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if patient != nil {
			profile.PatientName = patient.Name
		}
		last, err := s.db.LastActive(patientID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if last > 0 {
			profile.LastActive = time.UnixMilli(last)
		}
	}

	snap, err := s.snapshot(r.Context(), patientID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows, err := s.db.GetRecentActivities(patientID, feedLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	acts := make([]dashboard.Activity, len(rows))
	for i, a := range rows {
		acts[i] = dashboard.Activity{Kind: a.Kind, Title: a.Title, At: time.UnixMilli(a.CreatedAt)}
	}

	writeJSON(w, http.StatusOK, dashboard.Build(s.now(), profile, snap, acts))
}

const defaultRoutine = "Completed breathing exercise"

// handleRoutine records that the patient finished a daily routine.
func (s *Server) handleRoutine(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	if sess.Role != auth.RolePatient {
		s.writeError(w, r, fmt.Errorf("%w: only the patient can complete routines", auth.ErrForbidden))
		return
	}

	var req struct {
		Title string `json:"title" validate:"max=120"`
	}
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if err := validateStruct(&req); err != nil {
		s.writeError(w, r, err)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultRoutine
	}

	s.recordActivity(sess, store.ActivityRoutineCompleted, title)
	writeJSON(w, http.StatusCreated, map[string]string{
		"kind":  store.ActivityRoutineCompleted,
		"title": title,
	})
}
