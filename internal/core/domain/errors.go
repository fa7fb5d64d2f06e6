package domain

import "errors"

var (
	ErrUnknownRole         = errors.New("unknown role")
	ErrRoleNotFound        = errors.New("role record not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserInactive        = errors.New("user account is deactivated")
	ErrNoActiveSession     = errors.New("no active session")
	ErrProgramNotFound     = errors.New("program not found")
	ErrProgramCodeTaken    = errors.New("program code already exists")
	ErrProgramNotActive    = errors.New("program is not accepting applications")
	ErrApplicationNotFound = errors.New("application not found")
	ErrAlreadyApplied      = errors.New("already applied to this program")
	ErrNotReviewable       = errors.New("application is no longer reviewable")
	ErrNotApplicant        = errors.New("application belongs to another user")
)
