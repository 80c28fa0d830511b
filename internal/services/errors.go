// Package services defines the business logic for accounts, friendships, and
// gaming schedules. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Account-related errors.
var (
	// ErrInvalidCredentials is the single error returned for every login
	// failure. Unknown username and wrong password are deliberately
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUsernameTaken indicates a registration collides with an existing
	// username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEmailTaken indicates a registration collides with an existing email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidUsername is returned when a registration username is blank or
	// exceeds the allowed length.
	ErrInvalidUsername = errors.New("username is invalid")

	// ErrInvalidEmail is returned when a registration email is not plausibly
	// an address.
	ErrInvalidEmail = errors.New("email is invalid")

	// ErrWeakPassword is returned when a registration password is shorter
	// than the minimum length.
	ErrWeakPassword = errors.New("password does not meet minimum length")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Friendship-related errors.
var (
	// ErrSelfFriendship is returned when a user attempts to befriend
	// themselves.
	ErrSelfFriendship = errors.New("cannot add yourself as a friend")

	// ErrFriendshipExists indicates the pair is already friends, regardless
	// of which side initiated the original request.
	ErrFriendshipExists = errors.New("friendship already exists")

	// ErrFriendshipNotFound indicates no friendship exists between the pair.
	ErrFriendshipNotFound = errors.New("friendship not found")
)

// Schedule-related errors.
var (
	// ErrScheduleNotFound indicates that the requested schedule does not
	// exist or is not owned by the current user. The two cases are never
	// distinguished.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrEmptyGameTitle is returned when a schedule is submitted without a
	// game title.
	ErrEmptyGameTitle = errors.New("game title is required")

	// ErrInvalidDays is returned when the day set is empty or contains a
	// token outside the recognized set.
	ErrInvalidDays = errors.New("days of week must be a non-empty set of valid day tokens")

	// ErrInvalidTime is returned when a start or end time is not a valid
	// "HH:MM" 24-hour clock time.
	ErrInvalidTime = errors.New("time must be in HH:MM 24-hour format")
)
