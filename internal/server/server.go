// Package server exposes the interview service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/spigell/interview-agent/internal/interview"
)

// maxBodyBytes caps request bodies; answers are short spoken text.
const maxBodyBytes = 1 << 20

// Interviews is the application layer behind the HTTP handlers.
type Interviews interface {
	Start(ctx context.Context, role string, maxQuestions int) (*interview.Session, error)
	Answer(ctx context.Context, id, answer string) (interview.Reply, error)
	Feedback(ctx context.Context, id string) (*interview.Feedback, error)
	Session(ctx context.Context, id string) (*interview.Session, error)
}

type Handler struct {
	svc    Interviews
	logger *zap.Logger
}

// NewRouter builds the chi router. metrics may be nil.
func NewRouter(svc Interviews, metrics http.Handler, log *zap.Logger) *chi.Mux {
	if log == nil {
		log = zap.NewNop()
	}

	h := &Handler{svc: svc, logger: log}

	r := chi.NewRouter()
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recovery(log))

	r.Get("/", h.Root)
	r.Get("/healthz", h.Health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Post("/start", h.Start)
	r.Post("/answer", h.Answer)
	r.Post("/feedback", h.Feedback)
	r.Get("/sessions/{id}", h.Session)

	return r
}

type startRequest struct {
	Role         string `json:"role"`
	MaxQuestions *int   `json:"max_questions"`
}

type startResponse struct {
	SessionID     string `json:"session_id"`
	FirstQuestion string `json:"first_question"`
}

type answerRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

type answerResponse struct {
	NextMessage string `json:"next_message"`
	Finished    bool   `json:"finished"`
}

type feedbackRequest struct {
	SessionID string `json:"session_id"`
}

type feedbackResponse struct {
	Feedback *interview.Feedback `json:"feedback"`
}

type sessionResponse struct {
	SessionID       string          `json:"session_id"`
	Role            string          `json:"role"`
	State           interview.State `json:"state"`
	QuestionCount   int             `json:"question_count"`
	MaxQuestions    int             `json:"max_questions"`
	CurrentQuestion string          `json:"current_question,omitempty"`
	Questions       []string        `json:"questions"`
	Finished        bool            `json:"finished"`
	HasFeedback     bool            `json:"has_feedback"`
}

func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Interview Practice Agent API is running"})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	maxQuestions := 0
	if req.MaxQuestions != nil {
		if *req.MaxQuestions < 1 {
			writeError(w, http.StatusBadRequest, "max_questions must be at least 1")
			return
		}
		maxQuestions = *req.MaxQuestions
	}

	session, err := h.svc.Start(r.Context(), req.Role, maxQuestions)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, startResponse{
		SessionID:     session.ID,
		FirstQuestion: session.CurrentQuestion,
	})
}

func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	reply, err := h.svc.Answer(r.Context(), req.SessionID, req.Answer)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, answerResponse{NextMessage: reply.Message, Finished: reply.Finished})
}

func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	report, err := h.svc.Feedback(r.Context(), req.SessionID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, feedbackResponse{Feedback: report})
}

// Session reports the progress of an interview without its answers.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:       session.ID,
		Role:            session.Role,
		State:           session.State,
		QuestionCount:   session.QuestionCount,
		MaxQuestions:    session.MaxQuestions,
		CurrentQuestion: session.CurrentQuestion,
		Questions:       session.Questions(),
		Finished:        session.Finished(),
		HasFeedback:     session.Feedback != nil,
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()

	switch {
	case errors.Is(err, interview.ErrNotFound):
		message = "session not found"
	case status == http.StatusBadGateway:
		message = "the language model is unavailable, please try again"
	case status == http.StatusInternalServerError:
		message = "internal server error"
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	writeError(w, status, message)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, interview.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, interview.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, interview.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, interview.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON treats an empty body as an empty object.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
