// User and friendship HTTP handlers.
//
// This file exposes REST endpoints for the user directory and symmetric
// friendships:
//   - GET    /users              (list, paginated)
//   - GET    /users/{id}         (lookup)
//   - DELETE /users/me           (delete own account)
//   - GET    /users/friends      (list friends, ETag support)
//   - POST   /users/friends      (add by id or username)
//   - DELETE /users/friends      (remove by id or username)
//
// Friendships are symmetric: adding and removing work identically no matter
// which member initiates, and both operations accept a numeric user id or an
// exact username as the identifier.
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/canwegame/canwegame-api/internal/domain"
	"github.com/canwegame/canwegame-api/internal/repo"
	"github.com/canwegame/canwegame-api/internal/services"
	"github.com/canwegame/canwegame-api/internal/utils"
)

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListUsersResponse wraps a page of users and pagination information.
type ListUsersResponse struct {
	Users      []domain.User `json:"users"`
	Pagination Pagination    `json:"pagination"`
}

// FriendRequest names the friend to add or remove, as a numeric user id or an
// exact username.
type FriendRequest struct {
	Identifier string `json:"identifier" binding:"required" example:"gamer42"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// uintParam parses a positive integer path parameter.
func uintParam(c *gin.Context, name string) (uint, bool) {
	n := utils.AtoiDefault(c.Param(name), -1)
	if n <= 0 {
		return 0, false
	}
	return uint(n), true
}

//
// Handlers
//

// ListUsers godoc
// @ID          listUsers
// @Summary     List users (paginated)
// @Description Returns a page of registered users for friend discovery.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListUsersResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.userSvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListUsersResponse{
		Users: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user by id
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  int  true  "User ID"  minimum(1)
//
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id, okID := uintParam(c, "id")
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a positive integer")
		return
	}

	u, err := h.userSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteMe godoc
// @ID          deleteMe
// @Summary     Delete own account
// @Description Removes the authenticated account together with its schedules and friendships.
// @Tags        Users
// @Security    BearerAuth
//
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/me [delete]
func (h *Handlers) DeleteMe(c *gin.Context) {
	uid, authed := currentUserID(c)
	if !authed {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	if err := h.userSvc.DeleteAccount(c.Request.Context(), uid); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	noContent(c)
}

// ListFriends godoc
// @ID          listFriends
// @Summary     List friends
// @Description Returns the users on the other side of every friendship involving the caller. Supports weak ETag via If-None-Match.
// @Tags        Friends
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {array}   domain.User
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/friends [get]
func (h *Handlers) ListFriends(c *gin.Context) {
	ctx := c.Request.Context()
	uid, authed := currentUserID(c)
	if !authed {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, isSvc := h.friendSvc.(*services.FriendService); isSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.FriendshipsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"friends:%d:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	friends, err := h.friendSvc.ListFriends(ctx, uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, friends)
}

// AddFriend godoc
// @ID          addFriend
// @Summary     Add a friend
// @Description Befriends the user named by identifier (numeric id or exact username). The resulting friendship is symmetric.
// @Tags        Friends
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.FriendRequest  true  "Friend identifier"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or self-befriending"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Friendship already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/friends [post]
func (h *Handlers) AddFriend(c *gin.Context) {
	uid, authed := currentUserID(c)
	if !authed {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "identifier required")
		return
	}

	friend, err := h.friendSvc.AddFriend(c.Request.Context(), uid, req.Identifier)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		case errors.Is(err, services.ErrSelfFriendship):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrFriendshipExists):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, friend)
}

// RemoveFriend godoc
// @ID          removeFriend
// @Summary     Remove a friend
// @Description Deletes the friendship with the user named by identifier. Either member may remove the pair.
// @Tags        Friends
// @Accept      json
// @Security    BearerAuth
//
// @Param       body  body  handlers.FriendRequest  true  "Friend identifier"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "User or friendship not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/friends [delete]
func (h *Handlers) RemoveFriend(c *gin.Context) {
	uid, authed := currentUserID(c)
	if !authed {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "identifier required")
		return
	}

	if err := h.friendSvc.RemoveFriend(c.Request.Context(), uid, req.Identifier); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		case errors.Is(err, services.ErrFriendshipNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "friendship not found")
		case errors.Is(err, services.ErrSelfFriendship):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
