package practice

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/exam-mentor/backend/internal/learning"
	"github.com/exam-mentor/backend/internal/middleware"
	"github.com/exam-mentor/backend/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	return middleware.UserID(r.Context())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps service errors onto status codes. Anything unrecognized is
// logged under op and reported as a 500.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, learning.ErrNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
	case errors.Is(err, learning.ErrForbidden):
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "Not authorized"})
	case errors.Is(err, ErrNoQuestions):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No questions available"})
	case errors.Is(err, ErrSessionCompleted):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "Session already submitted"})
	case errors.Is(err, errInvalidProfile):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	default:
		log.Printf("[handler] %s error: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
	}
}

// decode reads a JSON body into dst and validates it, writing a 400 on
// failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: validationMessage(err)})
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// pathID parses a numeric route variable, writing a 400 when it is not one.
func pathID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[key], 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid " + key})
		return 0, false
	}
	return id, true
}

// ── Query param helpers ──────────────────────────────────

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

// queryInt64Ptr returns nil when the parameter is absent or not a positive
// integer.
func queryInt64Ptr(query url.Values, key string) *int64 {
	v, err := strconv.ParseInt(query.Get(key), 10, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

func queryDifficulty(query url.Values) (*int, bool) {
	s := query.Get("difficulty")
	if s == "" {
		return nil, true
	}
	d, err := strconv.Atoi(s)
	if err != nil || d < 1 || d > 5 {
		return nil, false
	}
	return &d, true
}
