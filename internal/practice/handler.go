package practice

import (
	"net/http"

	"github.com/exam-mentor/backend/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// RegisterRoutes registers the study endpoints on the protected subrouter.
func (h *Handler) RegisterRoutes(protected *mux.Router) {
	protected.HandleFunc("/questions/next", h.NextQuestion).Methods("GET")
	protected.HandleFunc("/questions/batch", h.Batch).Methods("POST")
	protected.HandleFunc("/questions/{questionID:[0-9]+}", h.GetQuestion).Methods("GET")
	protected.HandleFunc("/questions/{questionID:[0-9]+}/hint", h.GetHint).Methods("GET")

	protected.HandleFunc("/attempts", h.SubmitAttempt).Methods("POST")
	protected.HandleFunc("/attempts/history", h.AttemptHistory).Methods("GET")
	protected.HandleFunc("/attempts/recent", h.RecentAttempts).Methods("GET")

	protected.HandleFunc("/review/queue", h.ReviewQueue).Methods("GET")
	protected.HandleFunc("/review/queue/count", h.ReviewCount).Methods("GET")
	protected.HandleFunc("/review/{attemptID:[0-9]+}/classify", h.ClassifyMistake).Methods("POST")
	protected.HandleFunc("/review/{attemptID:[0-9]+}/reviewed", h.MarkReviewed).Methods("POST")

	protected.HandleFunc("/plan/today", h.TodayPlan).Methods("GET")
	protected.HandleFunc("/plan/generate", h.RegeneratePlan).Methods("POST")
	protected.HandleFunc("/plan/settings", h.UpdatePlanSettings).Methods("PUT")
	protected.HandleFunc("/plan/items/{itemID:[0-9]+}/complete", h.CompletePlanItem).Methods("PUT")

	protected.HandleFunc("/streaks/current", h.CurrentStreak).Methods("GET")
	protected.HandleFunc("/streaks/checkin", h.CheckIn).Methods("POST")

	h.registerSessionRoutes(protected)
}

// ── Questions ───────────────────────────────────────────

func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	query := r.URL.Query()
	difficulty, ok := queryDifficulty(query)
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "difficulty must be between 1 and 5"})
		return
	}

	q, err := h.service.NextQuestion(r.Context(), userID,
		queryInt64Ptr(query, "topic_id"), queryInt64Ptr(query, "concept_id"), difficulty)
	if err != nil {
		writeError(w, "NextQuestion", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	if _, ok := getUserID(r); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	questionID, ok := pathID(w, r, "questionID")
	if !ok {
		return
	}

	q, err := h.service.GetQuestion(r.Context(), questionID)
	if err != nil {
		writeError(w, "GetQuestion", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) GetHint(w http.ResponseWriter, r *http.Request) {
	if _, ok := getUserID(r); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	questionID, ok := pathID(w, r, "questionID")
	if !ok {
		return
	}

	hint, err := h.service.GetHint(r.Context(), questionID)
	if err != nil {
		writeError(w, "GetHint", err)
		return
	}
	writeJSON(w, http.StatusOK, hint)
}

func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	if _, ok := getUserID(r); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	var req models.BatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Batch(r.Context(), req)
	if err != nil {
		writeError(w, "Batch", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ── Attempts ────────────────────────────────────────────

func (h *Handler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	var req models.AttemptRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.SubmitAttempt(r.Context(), userID, req)
	if err != nil {
		writeError(w, "SubmitAttempt", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) AttemptHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	query := r.URL.Query()
	resp, err := h.service.History(r.Context(), userID,
		queryInt64Ptr(query, "topic_id"),
		intQueryParam(query, "page", 1),
		intQueryParam(query, "per_page", defaultHistoryPerPage))
	if err != nil {
		writeError(w, "AttemptHistory", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) RecentAttempts(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	attempts, err := h.service.RecentAttempts(r.Context(), userID, intQueryParam(r.URL.Query(), "limit", 10))
	if err != nil {
		writeError(w, "RecentAttempts", err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

// ── Review Queue ────────────────────────────────────────

func (h *Handler) ReviewQueue(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	resp, err := h.service.ReviewQueue(r.Context(), userID, intQueryParam(r.URL.Query(), "limit", 0))
	if err != nil {
		writeError(w, "ReviewQueue", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ReviewCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	n, err := h.service.ReviewCount(r.Context(), userID)
	if err != nil {
		writeError(w, "ReviewCount", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *Handler) ClassifyMistake(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	attemptID, ok := pathID(w, r, "attemptID")
	if !ok {
		return
	}
	var req models.ClassifyMistakeRequest
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.service.ClassifyMistake(r.Context(), userID, attemptID, req.MistakeType)
	if err != nil {
		writeError(w, "ClassifyMistake", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"attempt_id": a.ID, "mistake_type": a.MistakeType})
}

func (h *Handler) MarkReviewed(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	attemptID, ok := pathID(w, r, "attemptID")
	if !ok {
		return
	}
	var req models.MarkReviewedRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.MarkReviewed(r.Context(), userID, attemptID, req)
	if err != nil {
		writeError(w, "MarkReviewed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ── Daily Plan ──────────────────────────────────────────

func (h *Handler) TodayPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	plan, err := h.service.TodayPlan(r.Context(), userID)
	if err != nil {
		writeError(w, "TodayPlan", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *Handler) RegeneratePlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	plan, err := h.service.RegeneratePlan(r.Context(), userID)
	if err != nil {
		writeError(w, "RegeneratePlan", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *Handler) UpdatePlanSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	var req models.ProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.UpdatePlanSettings(r.Context(), userID, req)
	if err != nil {
		writeError(w, "UpdatePlanSettings", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CompletePlanItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	resp, err := h.service.CompletePlanItem(r.Context(), userID, itemID)
	if err != nil {
		writeError(w, "CompletePlanItem", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ── Streaks ─────────────────────────────────────────────

func (h *Handler) CurrentStreak(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	resp, err := h.service.CurrentStreak(r.Context(), userID)
	if err != nil {
		writeError(w, "CurrentStreak", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	resp, err := h.service.CheckIn(r.Context(), userID)
	if err != nil {
		writeError(w, "CheckIn", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
