package stats

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/exam-mentor/backend/internal/middleware"
	"github.com/exam-mentor/backend/internal/models"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *mux.Router) {
	protected.HandleFunc("/stats/dashboard", h.Dashboard).Methods("GET")
	protected.HandleFunc("/stats/mastery", h.MasteryMap).Methods("GET")
	protected.HandleFunc("/stats/trends", h.Trends).Methods("GET")
	protected.HandleFunc("/stats/weakest", h.Weakest).Methods("GET")
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	resp, err := h.service.Dashboard(r.Context(), userID)
	if err != nil {
		log.Printf("[stats] dashboard for user %d: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load dashboard"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) MasteryMap(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	resp, err := h.service.MasteryMap(r.Context(), userID)
	if err != nil {
		log.Printf("[stats] mastery map for user %d: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load mastery"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	resp, err := h.service.Trends(r.Context(), userID, intQueryParam(r.URL.Query(), "days", defaultTrendDays))
	if err != nil {
		log.Printf("[stats] trends for user %d: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load trends"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Weakest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	resp, err := h.service.Weakest(r.Context(), userID)
	if err != nil {
		log.Printf("[stats] weakest for user %d: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load weakest concepts"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}
