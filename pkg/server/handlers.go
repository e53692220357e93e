package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/socraticboard/pkg/annotation"
	"github.com/matzehuels/socraticboard/pkg/buildinfo"
	"github.com/matzehuels/socraticboard/pkg/canvas"
	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/geometry"
	"github.com/matzehuels/socraticboard/pkg/session"
	"github.com/matzehuels/socraticboard/pkg/tutor"
	"github.com/matzehuels/socraticboard/pkg/workspace"
)

// =============================================================================
// Request and response bodies
// =============================================================================

type problemRequest struct {
	Problem string       `json:"problem"`
	Image   *tutor.Image `json:"image,omitempty"`
}

func (p problemRequest) toProblem() workspace.Problem {
	return workspace.Problem{Text: p.Problem, Image: p.Image}
}

type workspaceResponse struct {
	ID        string          `json:"id"`
	ExpiresAt time.Time       `json:"expires_at"`
	State     workspace.State `json:"state"`
}

type viewportResponse struct {
	Placed      []string                      `json:"placed"`
	Annotations []workspace.PendingAnnotation `json:"annotations"`
}

type strokeRequest struct {
	Points []canvas.Point `json:"points"`
	Color  canvas.Color   `json:"color,omitempty"`
}

type proposeRequest struct {
	CallID string `json:"call_id,omitempty"`
	annotation.Proposal
}

type proposeResponse struct {
	Annotation workspace.PendingAnnotation `json:"annotation"`
	Created    bool                        `json:"created"`
}

type dismissResponse struct {
	Removed bool `json:"removed"`
}

type chatRequest struct {
	Message string `json:"message"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "engine": s.engine.Name()})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req problemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	ws, err := workspace.New(req.toProblem(), s.workspaceOptions()...)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	sess := session.New(ws, s.cfg.SessionTTL)
	if err := s.store.Set(r.Context(), sess); err != nil {
		writeError(w, s.logger, apperr.Wrap(apperr.ErrCodeInternal, err, "store workspace"))
		return
	}
	s.logger.Info("workspace created", "id", sess.ID)
	writeJSON(w, http.StatusCreated, workspaceResponse{ID: sess.ID, ExpiresAt: sess.ExpiresAt, State: ws.State()})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, workspaceResponse{ID: sess.ID, ExpiresAt: sess.ExpiresAt, State: sess.Workspace.State()})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), sess.ID); err != nil {
		writeError(w, s.logger, apperr.Wrap(apperr.ErrCodeInternal, err, "delete workspace"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var vp geometry.Viewport
	if err := decode(r, &vp); err != nil {
		writeError(w, s.logger, err)
		return
	}
	res, err := sess.Workspace.SetViewport(r.Context(), vp)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	placed := res.Placed
	if placed == nil {
		placed = []string{}
	}
	writeJSON(w, http.StatusOK, viewportResponse{Placed: placed, Annotations: sess.Workspace.Pending()})
}

func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var cam canvas.Camera
	if err := decode(r, &cam); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := sess.Workspace.SetCamera(cam); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cam)
}

func (s *Server) handleStroke(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req strokeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	shape, err := sess.Workspace.AddStroke(req.Points, req.Color)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, shape)
}

func (s *Server) handlePropose(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req proposeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	pa, created, err := sess.Workspace.Propose(r.Context(), req.CallID, req.Proposal)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	writeJSON(w, status, proposeResponse{Annotation: pa, Created: created})
}

// handleApprove answers 200 with resolved=false for ids that are not
// pending: approving twice is not an error.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	aid, ok := s.annotationID(w, r)
	if !ok {
		return
	}
	out, err := sess.Workspace.Approve(r.Context(), aid)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	aid, ok := s.annotationID(w, r)
	if !ok {
		return
	}
	removed := sess.Workspace.Dismiss(r.Context(), aid)
	writeJSON(w, http.StatusOK, dismissResponse{Removed: removed})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req problemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := sess.Workspace.Reset(r.Context(), req.toProblem()); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, workspaceResponse{ID: sess.ID, ExpiresAt: sess.ExpiresAt, State: sess.Workspace.State()})
}

func (s *Server) handleCanvasSVG(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	svg, ok := sess.Workspace.Screenshot(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) workspaceOptions() []workspace.Option {
	return append([]workspace.Option{workspace.WithLogger(s.logger)}, s.wsOpts...)
}

// session loads the workspace named by the {id} path parameter and writes
// the error response if that fails.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	if err := apperr.ValidateID(id); err != nil {
		writeError(w, s.logger, err)
		return nil, false
	}
	sess, err := s.store.Get(r.Context(), id)
	switch {
	case errors.Is(err, session.ErrExpired):
		writeError(w, s.logger, apperr.New(apperr.ErrCodeSessionNotFound, "workspace %s has expired", id))
		return nil, false
	case err != nil:
		writeError(w, s.logger, apperr.Wrap(apperr.ErrCodeInternal, err, "load workspace"))
		return nil, false
	case sess == nil:
		writeError(w, s.logger, apperr.New(apperr.ErrCodeSessionNotFound, "workspace %s not found", id))
		return nil, false
	}
	return sess, true
}

func (s *Server) annotationID(w http.ResponseWriter, r *http.Request) (string, bool) {
	aid := chi.URLParam(r, "aid")
	if err := apperr.ValidateID(aid); err != nil {
		writeError(w, s.logger, err)
		return "", false
	}
	return aid, true
}
