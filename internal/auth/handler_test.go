package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/exam-mentor/backend/internal/config"
	"github.com/exam-mentor/backend/internal/middleware"
	"github.com/exam-mentor/backend/internal/models"
	"github.com/exam-mentor/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	byID   map[int64]*models.User
	nextID int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[int64]*models.User{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, u *models.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetUser(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, u *models.User) error {
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func newTestHandler() (*Handler, *fakeUsers) {
	users := newFakeUsers()
	cfg := config.AuthConfig{JWTSecret: "auth-handler-test-secret", TokenTTL: time.Hour}
	return NewHandler(users, cfg, 45), users
}

func do(h http.HandlerFunc, method, body string, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if userID != 0 {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	h, users := newTestHandler()

	rec := do(h.Register, http.MethodPost, `{"email":" Ada@Example.com ","name":"Ada Lovelace","password":"hunter2hunter2"}`, 0)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, models.LevelAverage, resp.User.Level)
	assert.Equal(t, 45, resp.User.DailyMinutes)
	assert.NotContains(t, rec.Body.String(), "hunter2")

	stored := users.byID[resp.User.ID]
	assert.NotEqual(t, "hunter2hunter2", stored.Password)

	t.Run("duplicate email", func(t *testing.T) {
		rec := do(h.Register, http.MethodPost, `{"email":"ada@example.com","name":"Ada","password":"hunter2hunter2"}`, 0)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestRegisterValidation(t *testing.T) {
	h, _ := newTestHandler()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing name", `{"email":"a@b.co","password":"longenough"}`},
		{"bad email", `{"email":"nope","name":"A","password":"longenough"}`},
		{"short password", `{"email":"a@b.co","name":"A","password":"short"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h.Register, http.MethodPost, tt.body, 0)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	h, _ := newTestHandler()
	require.Equal(t, http.StatusCreated,
		do(h.Register, http.MethodPost, `{"email":"sam@example.com","name":"Sam","password":"correct-horse"}`, 0).Code)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"ok", `{"email":"SAM@example.com","password":"correct-horse"}`, http.StatusOK},
		{"wrong password", `{"email":"sam@example.com","password":"battery-staple"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"who@example.com","password":"correct-horse"}`, http.StatusUnauthorized},
		{"missing fields", `{"email":""}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h.Login, http.MethodPost, tt.body, 0)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestGeneratedTokenPassesMiddleware(t *testing.T) {
	secret := []byte("auth-handler-test-secret")
	token, err := GenerateToken(secret, 7, time.Hour)
	require.NoError(t, err)

	var seen int64
	h := middleware.AuthMiddleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.UserID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, int64(7), seen)
}

func TestUpdateProfile(t *testing.T) {
	h, users := newTestHandler()
	u := &models.User{Email: "kim@example.com", Name: "Kim", Level: models.LevelAverage, DailyMinutes: 45}
	require.NoError(t, users.CreateUser(context.Background(), u))

	rec := do(h.UpdateProfile, http.MethodPut,
		`{"level":"beginner","daily_minutes":60,"target_score":85,"exam_date":"2026-12-01","study_focus":"algebra"}`, u.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	got := users.byID[u.ID]
	assert.Equal(t, models.LevelBeginner, got.Level)
	assert.Equal(t, 60, got.DailyMinutes)
	require.NotNil(t, got.TargetScore)
	assert.Equal(t, 85, *got.TargetScore)
	require.NotNil(t, got.ExamDate)
	assert.Equal(t, "2026-12-01", got.ExamDate.Format("2006-01-02"))
	require.NotNil(t, got.StudyFocus)
	assert.Equal(t, "algebra", *got.StudyFocus)

	t.Run("rejects out of range minutes", func(t *testing.T) {
		rec := do(h.UpdateProfile, http.MethodPut, `{"daily_minutes":5}`, u.ID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("rejects unknown level", func(t *testing.T) {
		rec := do(h.UpdateProfile, http.MethodPut, `{"level":"expert"}`, u.ID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("rejects bad date", func(t *testing.T) {
		rec := do(h.UpdateProfile, http.MethodPut, `{"exam_date":"01/12/2026"}`, u.ID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("requires auth", func(t *testing.T) {
		rec := do(h.UpdateProfile, http.MethodPut, `{}`, 0)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
