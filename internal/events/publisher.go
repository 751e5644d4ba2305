package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectMessagePosted  = "message.posted"
	SubjectUserFollowed   = "user.followed"
	SubjectUserUnfollowed = "user.unfollowed"
	SubjectMessageLiked   = "message.liked"
	SubjectMessageUnliked = "message.unliked"
	SubjectUserDeleted    = "user.deleted"
)

type EventPublisher interface {
	PublishMessagePosted(ctx context.Context, messageID, userID int64, text string) error
	PublishUserFollowed(ctx context.Context, followerID, followedID int64) error
	PublishUserUnfollowed(ctx context.Context, followerID, followedID int64) error
	PublishMessageLiked(ctx context.Context, userID, messageID int64) error
	PublishMessageUnliked(ctx context.Context, userID, messageID int64) error
	PublishUserDeleted(ctx context.Context, userID int64, username string) error
}

type MessagePostedEvent struct {
	EventType string    `json:"event_type"`
	MessageID int64     `json:"message_id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"text"`
	PostedAt  time.Time `json:"posted_at"`
}

type FollowEvent struct {
	EventType  string    `json:"event_type"`
	FollowerID int64     `json:"follower_id"`
	FollowedID int64     `json:"followed_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type LikeEvent struct {
	EventType  string    `json:"event_type"`
	UserID     int64     `json:"user_id"`
	MessageID  int64     `json:"message_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type UserDeletedEvent struct {
	EventType string    `json:"event_type"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	DeletedAt time.Time `json:"deleted_at"`
}

type natsConn interface {
	Publish(subject string, data []byte) error
}

type NatsPublisher struct {
	conn natsConn
	nc   *nats.Conn
	now  func() time.Time
}

func NewNatsPublisher(natsURL string) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL, nats.Name("warbler"))
	if err != nil {
		return nil, err
	}

	return &NatsPublisher{conn: nc, nc: nc, now: time.Now}, nil
}

// Close flushes pending messages and closes the connection.
func (p *NatsPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		slog.Warn("nats drain failed", "error", err)
	}
}

func (p *NatsPublisher) publish(ctx context.Context, subject string, event any) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling event", "subject", subject, "error", err)
		return err
	}

	if err := p.conn.Publish(subject, eventJSON); err != nil {
		slog.ErrorContext(ctx, "error publishing to nats", "subject", subject, "error", err)
		return err
	}

	slog.DebugContext(ctx, "published event", "subject", subject)
	return nil
}

func (p *NatsPublisher) PublishMessagePosted(ctx context.Context, messageID, userID int64, text string) error {
	return p.publish(ctx, SubjectMessagePosted, MessagePostedEvent{
		EventType: SubjectMessagePosted,
		MessageID: messageID,
		UserID:    userID,
		Text:      text,
		PostedAt:  p.now(),
	})
}

func (p *NatsPublisher) PublishUserFollowed(ctx context.Context, followerID, followedID int64) error {
	return p.publish(ctx, SubjectUserFollowed, FollowEvent{
		EventType:  SubjectUserFollowed,
		FollowerID: followerID,
		FollowedID: followedID,
		OccurredAt: p.now(),
	})
}

func (p *NatsPublisher) PublishUserUnfollowed(ctx context.Context, followerID, followedID int64) error {
	return p.publish(ctx, SubjectUserUnfollowed, FollowEvent{
		EventType:  SubjectUserUnfollowed,
		FollowerID: followerID,
		FollowedID: followedID,
		OccurredAt: p.now(),
	})
}

func (p *NatsPublisher) PublishMessageLiked(ctx context.Context, userID, messageID int64) error {
	return p.publish(ctx, SubjectMessageLiked, LikeEvent{
		EventType:  SubjectMessageLiked,
		UserID:     userID,
		MessageID:  messageID,
		OccurredAt: p.now(),
	})
}

func (p *NatsPublisher) PublishMessageUnliked(ctx context.Context, userID, messageID int64) error {
	return p.publish(ctx, SubjectMessageUnliked, LikeEvent{
		EventType:  SubjectMessageUnliked,
		UserID:     userID,
		MessageID:  messageID,
		OccurredAt: p.now(),
	})
}

func (p *NatsPublisher) PublishUserDeleted(ctx context.Context, userID int64, username string) error {
	return p.publish(ctx, SubjectUserDeleted, UserDeletedEvent{
		EventType: SubjectUserDeleted,
		UserID:    userID,
		Username:  username,
		DeletedAt: p.now(),
	})
}
