package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/declutter/pkg/buildinfo"
	"github.com/matzehuels/declutter/pkg/errors"
	"github.com/matzehuels/declutter/pkg/pipeline"
	"github.com/matzehuels/declutter/pkg/scene"
	"github.com/matzehuels/declutter/pkg/session"
	"github.com/matzehuels/declutter/pkg/state"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

type sessionResponse struct {
	ID        string `json:"id"`
	ExpiresAt string `json:"expires_at"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := session.New(s.cfg.SessionTTL)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "create session"))
		return
	}
	s.cfg.Logger.Debug("session created", "session", sess.ID)
	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:        sess.ID,
		ExpiresAt: sess.ExpiresAt.UTC().Format(http.TimeFormat),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.lookup(r, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// State keys are per scene name; clear the default one and let the
	// TTL collect named scenes.
	store := state.NewStore(s.cfg.Cache, sess.Keyer())
	if err := store.Clear(r.Context(), pipeline.DefaultName); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "clear session state"))
		return
	}
	if name := r.URL.Query().Get("name"); name != "" {
		if err := errors.ValidateName(name); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := store.Clear(r.Context(), name); err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "clear session state"))
			return
		}
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "delete session"))
		return
	}
	s.cfg.Logger.Debug("session deleted", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGeneralize(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := parseOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sc, err := scene.ReadScene(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.lookup(r, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts.Logger = s.cfg.Logger.With("session", id)
	runner := pipeline.NewRunner(state.NewStore(s.cfg.Cache, sess.Keyer()), opts.Logger)
	result, err := runner.Execute(r.Context(), sc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.sessions.Touch(r.Context(), sess, s.cfg.SessionTTL); err != nil {
		s.cfg.Logger.Warn("could not extend session", "session", id, "err", err)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) lookup(r *http.Request, id string) (*session.Session, error) {
	sess, err := s.sessions.Get(r.Context(), id)
	if stderrors.Is(err, session.ErrNotFound) {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load session")
	}
	return sess, nil
}

func sessionID(r *http.Request) (string, error) {
	id, err := session.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "bad session id")
	}
	return id, nil
}

func parseOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	var opts pipeline.Options
	var err error

	opts.Name = q.Get("name")
	if opts.PanX, err = intParam(q.Get("pan_x")); err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "pan_x")
	}
	if opts.PanY, err = intParam(q.Get("pan_y")); err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "pan_y")
	}
	if opts.HideUnplaced, err = boolParam(q.Get("hide_unplaced")); err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "hide_unplaced")
	}
	if opts.Refresh, err = boolParam(q.Get("refresh")); err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "refresh")
	}
	return opts, nil
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func boolParam(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code"`
}

// statusCode maps an error code to an HTTP status.
func statusCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidScene, errors.ErrCodeInvalidStyle,
		errors.ErrCodeInvalidBounds, errors.ErrCodeInvalidPath, errors.ErrCodeInvalidName:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound, errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large", Code: errors.ErrCodeInvalidInput})
		return
	}
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusCode(code)
	if status >= http.StatusInternalServerError {
		s.cfg.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
