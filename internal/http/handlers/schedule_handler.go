// Schedule HTTP handlers.
//
// This file exposes REST endpoints for gaming-availability schedules:
//   - GET    /schedules/my          (own schedules, ETag support)
//   - GET    /schedules/user/{id}   (another user's schedules)
//   - POST   /schedules             (create, Idempotency-Key support)
//   - GET    /schedules/{id}        (fetch own schedule)
//   - PUT    /schedules/{id}        (update own schedule)
//   - DELETE /schedules/{id}        (delete own schedule)
//
// Mutating endpoints are ownership-guarded: a schedule owned by another user
// is reported as 404, never 403, so ids cannot be probed.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/canwegame/canwegame-api/internal/http/middleware"
	"github.com/canwegame/canwegame-api/internal/repo"
	"github.com/canwegame/canwegame-api/internal/services"
)

// idempotencyTTL bounds how long a recorded Idempotency-Key keeps replaying
// its original result.
const idempotencyTTL = 24 * time.Hour

//
// DTOs
//

// ScheduleRequest is the JSON payload for creating or updating a schedule.
type ScheduleRequest struct {
	// GameTitle names the game being played.
	GameTitle string `json:"game_title" binding:"required" example:"Valorant"`
	// DaysOfWeek is a non-empty set of day tokens (M, T, W, THU, F, SAT,
	// SUN), accepted case-insensitively.
	DaysOfWeek []string `json:"days_of_week" binding:"required" example:"F,SAT"`
	// StartTime is the window start in 24-hour "HH:MM".
	StartTime string `json:"start_time" binding:"required" example:"19:00"`
	// EndTime is the window end in 24-hour "HH:MM".
	EndTime string `json:"end_time" binding:"required" example:"23:30"`
	// IsWeekly marks the window as repeating every week.
	IsWeekly bool `json:"is_weekly"`
	// Description is optional free text.
	Description *string `json:"description,omitempty" example:"ranked grind"`
}

func (r ScheduleRequest) toInput() services.ScheduleInput {
	return services.ScheduleInput{
		GameTitle:   r.GameTitle,
		DaysOfWeek:  r.DaysOfWeek,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		IsWeekly:    r.IsWeekly,
		Description: r.Description,
	}
}

//
// Helpers
//

// scheduleDB exposes the GORM handle behind the schedule service, when the
// concrete implementation carries one (used for ETag and idempotency).
func (h *Handlers) scheduleDB() *gorm.DB {
	if svc, ok := h.scheduleSvc.(*services.ScheduleService); ok {
		return svc.DB
	}
	return nil
}

// failScheduleErr translates schedule service errors to HTTP responses.
func failScheduleErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrScheduleNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "schedule not found")
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
	case errors.Is(err, services.ErrEmptyGameTitle),
		errors.Is(err, services.ErrInvalidDays),
		errors.Is(err, services.ErrInvalidTime):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// Handlers
//

// ListMySchedules godoc
// @ID          listMySchedules
// @Summary     List own schedules
// @Description Returns the caller's schedules, most recent first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Schedules
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {array}   domain.Schedule
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /schedules/my [get]
func (h *Handlers) ListMySchedules(c *gin.Context) {
	ctx := c.Request.Context()
	uid, authed := currentUserID(c)
	if !authed {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	// ETag pre-check (best effort).
	if db := h.scheduleDB(); db != nil {
		count, maxTS, err := repo.SchedulesStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"schedules:%d:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.scheduleSvc.ListMine(ctx, uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// ListUserSchedules godoc
// @ID          listUserSchedules
// @Summary     List another user's schedules
// @Description Returns the target user's schedules. Any authenticated caller may read them.
// @Tags        Schedules
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  int  true  "User ID"  minimum(1)
//
// @Success     200  {array}   domain.Schedule
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /schedules/user/{id} [get]
func (h *Handlers) ListUserSchedules(c *gin.Context) {
	target, okID := uintParam(c, "id")
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a positive integer")
		return
	}

	items, err := h.scheduleSvc.ListForUser(c.Request.Context(), target)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// CreateSchedule godoc
// @ID          createSchedule
// @Summary     Create a schedule
// @Description Creates a schedule owned by the caller. Supplying an Idempotency-Key makes retries safe: a replayed key returns the originally created schedule.
// @Tags        Schedules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false  "Client-chosen key for safe retries"
// @Param       body             body    handlers.ScheduleRequest  true  "Schedule payload"
//
// @Success     200  {object}  domain.Schedule  "Replayed from a previous request"
// @Success     201  {object}  domain.Schedule
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /schedules [post]
func (h *Handlers) CreateSchedule(c *gin.Context) {
	ctx := c.Request.Context()
	uid, authed := currentUserID(c)
	if !authed {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	key := strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
	db := h.scheduleDB()

	// Replay path: a known key returns the schedule it originally created.
	if key != "" && db != nil {
		if rec, err := repo.GetIdempotency(ctx, db, uid, key, time.Now().UTC()); err == nil && rec != nil {
			if sched, getErr := h.scheduleSvc.Get(ctx, uid, rec.ScheduleID); getErr == nil {
				c.Header("Idempotency-Replay", "true")
				ok(c, http.StatusOK, sched)
				return
			}
		}
	}

	sched, err := h.scheduleSvc.Create(ctx, uid, req.toInput())
	if err != nil {
		failScheduleErr(c, err)
		return
	}

	// Record the key so a retry replays this result. Best effort: losing the
	// record race just means the retry re-reads via the branch above.
	if key != "" && db != nil {
		_, _ = repo.CreateIdempotency(ctx, db, uid, key, sched.ID, http.StatusCreated, idempotencyTTL)
	}

	ok(c, http.StatusCreated, sched)
}

// GetSchedule godoc
// @ID          getSchedule
// @Summary     Get one of the caller's schedules
// @Tags        Schedules
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  int  true  "Schedule ID"  minimum(1)
//
// @Success     200  {object}  domain.Schedule
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Schedule not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /schedules/{id} [get]
func (h *Handlers) GetSchedule(c *gin.Context) {
	uid, authed := currentUserID(c)
	if !authed {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	id, okID := uintParam(c, "id")
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "schedule id must be a positive integer")
		return
	}

	sched, err := h.scheduleSvc.Get(c.Request.Context(), uid, id)
	if err != nil {
		failScheduleErr(c, err)
		return
	}
	ok(c, http.StatusOK, sched)
}

// UpdateSchedule godoc
// @ID          updateSchedule
// @Summary     Update a schedule
// @Description Replaces the fields of a schedule owned by the caller. A schedule owned by someone else is reported as 404.
// @Tags        Schedules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  int                       true  "Schedule ID"  minimum(1)
// @Param       body  body  handlers.ScheduleRequest  true  "Schedule payload"
//
// @Success     200  {object}  domain.Schedule
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Schedule not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /schedules/{id} [put]
func (h *Handlers) UpdateSchedule(c *gin.Context) {
	uid, authed := currentUserID(c)
	if !authed {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	id, okID := uintParam(c, "id")
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "schedule id must be a positive integer")
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	sched, err := h.scheduleSvc.Update(c.Request.Context(), uid, id, req.toInput())
	if err != nil {
		failScheduleErr(c, err)
		return
	}
	ok(c, http.StatusOK, sched)
}

// DeleteSchedule godoc
// @ID          deleteSchedule
// @Summary     Delete a schedule
// @Description Removes a schedule owned by the caller. A schedule owned by someone else is reported as 404.
// @Tags        Schedules
// @Security    BearerAuth
//
// @Param       id  path  int  true  "Schedule ID"  minimum(1)
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Schedule not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /schedules/{id} [delete]
func (h *Handlers) DeleteSchedule(c *gin.Context) {
	uid, authed := currentUserID(c)
	if !authed {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	id, okID := uintParam(c, "id")
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "schedule id must be a positive integer")
		return
	}

	if err := h.scheduleSvc.Delete(c.Request.Context(), uid, id); err != nil {
		failScheduleErr(c, err)
		return
	}
	noContent(c)
}
