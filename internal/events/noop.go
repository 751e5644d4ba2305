package events

import "context"

// NoopPublisher drops every event. Used when NATS_URL is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishMessagePosted(context.Context, int64, int64, string) error { return nil }
func (NoopPublisher) PublishUserFollowed(context.Context, int64, int64) error          { return nil }
func (NoopPublisher) PublishUserUnfollowed(context.Context, int64, int64) error        { return nil }
func (NoopPublisher) PublishMessageLiked(context.Context, int64, int64) error          { return nil }
func (NoopPublisher) PublishMessageUnliked(context.Context, int64, int64) error        { return nil }
func (NoopPublisher) PublishUserDeleted(context.Context, int64, string) error          { return nil }

var (
	_ EventPublisher = NoopPublisher{}
	_ EventPublisher = (*NatsPublisher)(nil)
)
