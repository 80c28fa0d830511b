package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/canwegame/canwegame-api/internal/domain"
	"github.com/canwegame/canwegame-api/internal/services"
)

//
// Stub services shared across handler tests. Function fields keep each test
// free to script exactly the behavior it needs.
//

type stubAuthSvc struct {
	registerFn func(ctx context.Context, username, email, password string) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (string, *domain.User, error)
}

func (s *stubAuthSvc) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	return s.registerFn(ctx, username, email, password)
}

func (s *stubAuthSvc) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, username, password)
}

type stubUserSvc struct {
	listFn   func(ctx context.Context, page, pageSize int) ([]domain.User, int64, error)
	getFn    func(ctx context.Context, id uint) (*domain.User, error)
	deleteFn func(ctx context.Context, userID uint) error
}

func (s *stubUserSvc) ListPage(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	return s.listFn(ctx, page, pageSize)
}

func (s *stubUserSvc) Get(ctx context.Context, id uint) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserSvc) DeleteAccount(ctx context.Context, userID uint) error {
	return s.deleteFn(ctx, userID)
}

type stubFriendSvc struct {
	addFn    func(ctx context.Context, requesterID uint, identifier string) (*domain.User, error)
	removeFn func(ctx context.Context, requesterID uint, identifier string) error
	listFn   func(ctx context.Context, userID uint) ([]domain.User, error)
}

func (s *stubFriendSvc) AddFriend(ctx context.Context, requesterID uint, identifier string) (*domain.User, error) {
	return s.addFn(ctx, requesterID, identifier)
}

func (s *stubFriendSvc) RemoveFriend(ctx context.Context, requesterID uint, identifier string) error {
	return s.removeFn(ctx, requesterID, identifier)
}

func (s *stubFriendSvc) ListFriends(ctx context.Context, userID uint) ([]domain.User, error) {
	return s.listFn(ctx, userID)
}

type stubScheduleSvc struct {
	createFn      func(ctx context.Context, userID uint, in services.ScheduleInput) (*domain.Schedule, error)
	listMineFn    func(ctx context.Context, userID uint) ([]domain.Schedule, error)
	listForUserFn func(ctx context.Context, targetID uint) ([]domain.Schedule, error)
	getFn         func(ctx context.Context, userID, id uint) (*domain.Schedule, error)
	updateFn      func(ctx context.Context, userID, id uint, in services.ScheduleInput) (*domain.Schedule, error)
	deleteFn      func(ctx context.Context, userID, id uint) error
}

func (s *stubScheduleSvc) Create(ctx context.Context, userID uint, in services.ScheduleInput) (*domain.Schedule, error) {
	return s.createFn(ctx, userID, in)
}

func (s *stubScheduleSvc) ListMine(ctx context.Context, userID uint) ([]domain.Schedule, error) {
	return s.listMineFn(ctx, userID)
}

func (s *stubScheduleSvc) ListForUser(ctx context.Context, targetID uint) ([]domain.Schedule, error) {
	return s.listForUserFn(ctx, targetID)
}

func (s *stubScheduleSvc) Get(ctx context.Context, userID, id uint) (*domain.Schedule, error) {
	return s.getFn(ctx, userID, id)
}

func (s *stubScheduleSvc) Update(ctx context.Context, userID, id uint, in services.ScheduleInput) (*domain.Schedule, error) {
	return s.updateFn(ctx, userID, id, in)
}

func (s *stubScheduleSvc) Delete(ctx context.Context, userID, id uint) error {
	return s.deleteFn(ctx, userID, id)
}

// asUser sets the authenticated identity the way the auth middleware does.
func asUser(id uint, username string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", id)
		c.Set("username", username)
		c.Next()
	}
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

//
// Register
//

func TestRegister_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := New(&stubAuthSvc{
		registerFn: func(_ context.Context, username, email, _ string) (*domain.User, error) {
			if username != "gamer42" || email != "g@example.com" {
				t.Fatalf("unexpected args: %q %q", username, email)
			}
			return &domain.User{ID: 7, Username: username, Email: email}, nil
		},
	}, nil, nil, nil)
	r.POST("/auth/register", h.Register)

	w := postJSON(r, "/auth/register", `{"username":"gamer42","email":"g@example.com","password":"hunter2hunter2"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp RegisterResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.UserID != 7 || resp.Message != "registration successful" {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestRegister_BadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(&stubAuthSvc{}, nil, nil, nil)
	r.POST("/auth/register", h.Register)

	w := postJSON(r, "/auth/register", `{"username":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestRegister_ErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"username taken", services.ErrUsernameTaken, http.StatusConflict},
		{"email taken", services.ErrEmailTaken, http.StatusConflict},
		{"invalid username", services.ErrInvalidUsername, http.StatusBadRequest},
		{"invalid email", services.ErrInvalidEmail, http.StatusBadRequest},
		{"weak password", services.ErrWeakPassword, http.StatusBadRequest},
		{"internal", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			h := New(&stubAuthSvc{
				registerFn: func(context.Context, string, string, string) (*domain.User, error) {
					return nil, tc.err
				},
			}, nil, nil, nil)
			r.POST("/auth/register", h.Register)

			w := postJSON(r, "/auth/register", `{"username":"gamer42","email":"g@example.com","password":"hunter2hunter2"}`)
			if w.Code != tc.want {
				t.Fatalf("status=%d want=%d", w.Code, tc.want)
			}
		})
	}
}

//
// Login
//

func TestLogin_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := New(&stubAuthSvc{
		loginFn: func(_ context.Context, username, password string) (string, *domain.User, error) {
			if username != "gamer42" || password != "hunter2hunter2" {
				t.Fatalf("unexpected args: %q %q", username, password)
			}
			return "tok-123", &domain.User{ID: 7, Username: "gamer42"}, nil
		},
	}, nil, nil, nil)
	r.POST("/auth/login", h.Login)

	w := postJSON(r, "/auth/login", `{"username":"gamer42","password":"hunter2hunter2"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Token != "tok-123" || resp.UserID != 7 || resp.Username != "gamer42" {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestLogin_InvalidCredentials_Uniform(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := New(&stubAuthSvc{
		loginFn: func(context.Context, string, string) (string, *domain.User, error) {
			return "", nil, services.ErrInvalidCredentials
		},
	}, nil, nil, nil)
	r.POST("/auth/login", h.Login)

	w := postJSON(r, "/auth/login", `{"username":"whoever","password":"whatever1"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	// The message never distinguishes unknown username from wrong password.
	if resp.Message != "invalid username or password" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestLogin_BadJSON_And_Internal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(&stubAuthSvc{
		loginFn: func(context.Context, string, string) (string, *domain.User, error) {
			return "", nil, errors.New("db down")
		},
	}, nil, nil, nil)
	r.POST("/auth/login", h.Login)

	if w := postJSON(r, "/auth/login", `{`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: status=%d", w.Code)
	}
	if w := postJSON(r, "/auth/login", `{"username":"u","password":"p"}`); w.Code != http.StatusInternalServerError {
		t.Fatalf("internal: status=%d", w.Code)
	}
}
