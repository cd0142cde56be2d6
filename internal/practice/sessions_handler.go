package practice

import (
	"net/http"

	"github.com/exam-mentor/backend/internal/models"
	"github.com/gorilla/mux"
)

func (h *Handler) registerSessionRoutes(protected *mux.Router) {
	protected.HandleFunc("/sessions/start", h.StartSession).Methods("POST")
	protected.HandleFunc("/sessions/history", h.SessionHistory).Methods("GET")
	protected.HandleFunc("/sessions/{sessionID:[0-9]+}", h.GetSession).Methods("GET")
	protected.HandleFunc("/sessions/{sessionID:[0-9]+}/submit", h.SubmitSession).Methods("POST")

	protected.HandleFunc("/onboarding/profile", h.SetProfile).Methods("POST")
	protected.HandleFunc("/onboarding/diagnostic", h.DiagnosticQuestions).Methods("GET")
	protected.HandleFunc("/onboarding/diagnostic/submit", h.SubmitDiagnostic).Methods("POST")
}

// ── Study Sessions ──────────────────────────────────────

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	var req models.StartSessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.StartSession(r.Context(), userID, req)
	if err != nil {
		writeError(w, "StartSession", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	sessionID, ok := pathID(w, r, "sessionID")
	if !ok {
		return
	}

	sess, err := h.service.GetSession(r.Context(), userID, sessionID)
	if err != nil {
		writeError(w, "GetSession", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) SubmitSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	sessionID, ok := pathID(w, r, "sessionID")
	if !ok {
		return
	}
	var req models.SubmitSessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.SubmitSession(r.Context(), userID, sessionID, req.Answers)
	if err != nil {
		writeError(w, "SubmitSession", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SessionHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	sessions, err := h.service.SessionHistory(r.Context(), userID)
	if err != nil {
		writeError(w, "SessionHistory", err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// ── Onboarding ──────────────────────────────────────────

func (h *Handler) SetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	var req models.ProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.SetProfile(r.Context(), userID, req)
	if err != nil {
		writeError(w, "SetProfile", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) DiagnosticQuestions(w http.ResponseWriter, r *http.Request) {
	if _, ok := getUserID(r); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	resp, err := h.service.DiagnosticQuestions(r.Context())
	if err != nil {
		writeError(w, "DiagnosticQuestions", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SubmitDiagnostic(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	var req models.DiagnosticSubmitRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.SubmitDiagnostic(r.Context(), userID, req.Answers)
	if err != nil {
		writeError(w, "SubmitDiagnostic", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
