// Auth HTTP handlers.
//
// This file exposes REST endpoints for account registration and login:
//   - POST /auth/register
//   - POST /auth/login
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Login failures are uniform: the
// response never reveals whether the username exists.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/canwegame/canwegame-api/internal/domain"
	"github.com/canwegame/canwegame-api/internal/services"
)

//
// Service contracts (context-aware)
//

// AuthService defines registration and login operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	// Register creates a new account from the submitted credentials.
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	// Login verifies credentials and returns a session token with the user.
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}

// UserService defines user directory and account lifecycle operations.
type UserService interface {
	// ListPage returns a page of registered users and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.User, int64, error)
	// Get fetches a user by id.
	Get(ctx context.Context, id uint) (*domain.User, error)
	// DeleteAccount removes the account and its relationships.
	DeleteAccount(ctx context.Context, userID uint) error
}

// FriendService defines symmetric friendship operations.
type FriendService interface {
	// AddFriend befriends the user named by identifier (id or username).
	AddFriend(ctx context.Context, requesterID uint, identifier string) (*domain.User, error)
	// RemoveFriend deletes the friendship with the user named by identifier.
	RemoveFriend(ctx context.Context, requesterID uint, identifier string) error
	// ListFriends returns the caller's friends in establishment order.
	ListFriends(ctx context.Context, userID uint) ([]domain.User, error)
}

// ScheduleService defines gaming-schedule CRUD operations.
type ScheduleService interface {
	// Create inserts a schedule owned by userID.
	Create(ctx context.Context, userID uint, in services.ScheduleInput) (*domain.Schedule, error)
	// ListMine returns the caller's own schedules.
	ListMine(ctx context.Context, userID uint) ([]domain.Schedule, error)
	// ListForUser returns another user's schedules.
	ListForUser(ctx context.Context, targetID uint) ([]domain.Schedule, error)
	// Get fetches one of the caller's schedules.
	Get(ctx context.Context, userID, id uint) (*domain.Schedule, error)
	// Update replaces the mutable fields of the caller's schedule.
	Update(ctx context.Context, userID, id uint, in services.ScheduleInput) (*domain.Schedule, error)
	// Delete removes the caller's schedule.
	Delete(ctx context.Context, userID, id uint) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for auth, users, friendships, and schedules.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	authSvc     AuthService
	userSvc     UserService
	friendSvc   FriendService
	scheduleSvc ScheduleService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(authSvc AuthService, userSvc UserService, friendSvc FriendService, scheduleSvc ScheduleService) *Handlers {
	return &Handlers{authSvc: authSvc, userSvc: userSvc, friendSvc: friendSvc, scheduleSvc: scheduleSvc}
}

// currentUserID extracts the authenticated user id set by the auth
// middleware. The second return is false when the request is unauthenticated.
func currentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	// Username is the unique public handle (1-64 chars).
	Username string `json:"username" binding:"required,min=1,max=64" example:"gamer42"`
	// Email is the unique contact address.
	Email string `json:"email" binding:"required" example:"gamer42@example.com"`
	// Password is the plaintext password (min 8 chars); stored only as a hash.
	Password string `json:"password" binding:"required,min=8" example:"hunter2hunter2"`
}

// RegisterResponse confirms a successful registration.
type RegisterResponse struct {
	Message string `json:"message" example:"registration successful"`
	UserID  uint   `json:"user_id" example:"7"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"gamer42"`
	Password string `json:"password" binding:"required" example:"hunter2hunter2"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   uint   `json:"user_id" example:"7"`
	Username string `json:"username" example:"gamer42"`
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Register a new account
// @Description Creates an account with a unique username and email. The password is bcrypt-hashed before storage.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object}  handlers.RegisterResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Username or email already taken"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken), errors.Is(err, services.ErrEmailTaken):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		case errors.Is(err, services.ErrInvalidUsername),
			errors.Is(err, services.ErrInvalidEmail),
			errors.Is(err, services.ErrWeakPassword):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, RegisterResponse{Message: "registration successful", UserID: u.ID})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns a signed session token. Unknown usernames and wrong passwords produce the same response.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
//
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid username or password"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	token, u, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid username or password")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, LoginResponse{Token: token, UserID: u.ID, Username: u.Username})
}
