package events

import (
	"context"
	"fmt"
	"log/slog"
)

// NotificationLogger turns activity into user-facing notification lines.
// An unknown event type is ignored.
func NotificationLogger(logger *slog.Logger) ActivityHandler {
	return func(ctx context.Context, activity Activity) error {
		text, recipient, err := notificationText(activity)
		if err != nil {
			return err
		}
		if text == "" {
			logger.DebugContext(ctx, "no notification for event", "subject", activity.Subject)
			return nil
		}
		logger.InfoContext(ctx, "notification",
			slog.String("event_type", activity.EventType),
			slog.Int64("recipient_id", recipient),
			slog.String("text", text),
		)
		return nil
	}
}

// notificationText returns the text and the id of the user it is for. A
// zero recipient means the notification is broadcast.
func notificationText(activity Activity) (string, int64, error) {
	switch activity.EventType {
	case SubjectMessagePosted:
		var e MessagePostedEvent
		if err := activity.Decode(&e); err != nil {
			return "", 0, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		return fmt.Sprintf("user %d posted message %d", e.UserID, e.MessageID), 0, nil
	case SubjectUserFollowed:
		var e FollowEvent
		if err := activity.Decode(&e); err != nil {
			return "", 0, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		return fmt.Sprintf("user %d started following you", e.FollowerID), e.FollowedID, nil
	case SubjectMessageLiked:
		var e LikeEvent
		if err := activity.Decode(&e); err != nil {
			return "", 0, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		return fmt.Sprintf("user %d liked message %d", e.UserID, e.MessageID), 0, nil
	case SubjectUserDeleted:
		var e UserDeletedEvent
		if err := activity.Decode(&e); err != nil {
			return "", 0, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		return fmt.Sprintf("@%s left Warbler", e.Username), 0, nil
	}
	return "", 0, nil
}
