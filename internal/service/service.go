package service

import (
	"context"
	"errors"
	"log/slog"

	"warbler/internal/repository"
)

// FeedLimit is the number of messages shown on the home feed and on a
// profile page.
const FeedLimit = 100

// translateUserConstraint maps unique violations on the users table to the
// errors callers can show.
func translateUserConstraint(err error) error {
	switch {
	case repository.IsConstraint(err, repository.ConstraintUsernameUnique):
		return ErrUsernameTaken
	case repository.IsConstraint(err, repository.ConstraintEmailUnique):
		return ErrEmailTaken
	}
	return err
}

func userLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func messageLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrMessageNotFound
	}
	return err
}

// logPublishError records a failed after-commit event. Events are best effort.
func logPublishError(ctx context.Context, event string, err error) {
	if err != nil {
		slog.WarnContext(ctx, "failed to publish event", "event", event, "error", err)
	}
}
