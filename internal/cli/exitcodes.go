package cli

import (
	"errors"

	"github.com/nhle/tracker-sync/internal/api"
	"github.com/nhle/tracker-sync/internal/auth"
	"github.com/nhle/tracker-sync/internal/collection"
)

// Exit codes for CLI commands.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitError indicates a general error occurred.
	// Use for: network errors, server errors, unexpected failures.
	ExitError = 1

	// ExitUsage indicates incorrect command usage.
	ExitUsage = 2

	// ExitNotFound indicates a requested resource was not found.
	ExitNotFound = 3

	// ExitUnauthorized indicates there is no valid session.
	// Use for: not logged in, or the server rejected the token.
	ExitUnauthorized = 4

	// ExitValidation indicates the input was rejected.
	// Use for: blank names, mismatched passwords, server field errors.
	ExitValidation = 5
)

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var respErr *api.ResponseError
	switch {
	case errors.Is(err, ErrNotLoggedIn), api.IsUnauthorized(err):
		return ExitUnauthorized
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, collection.ErrNotFound):
		return ExitNotFound
	case errors.As(err, &respErr) && respErr.Status == 404:
		return ExitNotFound
	case errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrPasswordMismatch),
		api.KindOf(err) == api.KindValidation:
		return ExitValidation
	default:
		return ExitError
	}
}
