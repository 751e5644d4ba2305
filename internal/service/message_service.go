package service

import (
	"context"
	"strings"

	"warbler/internal/events"
	"warbler/internal/model"
	"warbler/internal/repository"
)

type LikeOutcome int

const (
	LikeAdded LikeOutcome = iota + 1
	LikeRemoved
)

func (o LikeOutcome) String() string {
	switch o {
	case LikeAdded:
		return "added"
	case LikeRemoved:
		return "removed"
	}
	return "unknown"
}

type messageInput struct {
	Text string `validate:"required,max=140"`
}

type MessageService interface {
	CreateMessage(ctx context.Context, current *model.User, text string) (*model.Message, error)
	GetMessage(ctx context.Context, id int64) (*model.MessageDetails, error)
	DeleteMessage(ctx context.Context, current *model.User, id int64) error
	// ToggleLike removes the like when present and adds it otherwise.
	ToggleLike(ctx context.Context, current *model.User, messageID int64) (LikeOutcome, error)
	// Feed returns the newest messages by current and the users it follows.
	Feed(ctx context.Context, current *model.User, limit int) ([]model.MessageDetails, error)
	LikedMessageIDs(ctx context.Context, userID int64) (map[int64]bool, error)
}

type messageService struct {
	store     repository.Store
	publisher events.EventPublisher
}

func NewMessageService(store repository.Store, publisher events.EventPublisher) MessageService {
	return &messageService{store: store, publisher: publisher}
}

func (s *messageService) CreateMessage(ctx context.Context, current *model.User, text string) (*model.Message, error) {
	if current == nil {
		return nil, ErrLoginRequired
	}

	input := messageInput{Text: strings.TrimSpace(text)}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	msg := &model.Message{Text: input.Text, UserID: current.ID}
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Messages.Create(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	logPublishError(ctx, events.SubjectMessagePosted, s.publisher.PublishMessagePosted(ctx, msg.ID, msg.UserID, msg.Text))
	return msg, nil
}

func (s *messageService) GetMessage(ctx context.Context, id int64) (*model.MessageDetails, error) {
	var msg *model.MessageDetails
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		msg, err = repos.Messages.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, messageLookupError(err)
	}
	return msg, nil
}

func (s *messageService) DeleteMessage(ctx context.Context, current *model.User, id int64) error {
	if current == nil {
		return ErrLoginRequired
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		msg, err := repos.Messages.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if msg.UserID != current.ID {
			return ErrNotMessageOwner
		}
		return repos.Messages.Delete(ctx, id)
	})
	return messageLookupError(err)
}

func (s *messageService) ToggleLike(ctx context.Context, current *model.User, messageID int64) (LikeOutcome, error) {
	if current == nil {
		return 0, ErrLoginRequired
	}

	var outcome LikeOutcome
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		removed, err := repos.Likes.Remove(ctx, current.ID, messageID)
		if err != nil {
			return err
		}
		if removed {
			outcome = LikeRemoved
			return nil
		}

		msg, err := repos.Messages.FindByID(ctx, messageID)
		if err != nil {
			return err
		}
		if msg.UserID == current.ID {
			return ErrSelfLike
		}
		if err := repos.Likes.Add(ctx, current.ID, messageID); err != nil {
			return err
		}
		outcome = LikeAdded
		return nil
	})
	if err != nil {
		return 0, messageLookupError(err)
	}

	switch outcome {
	case LikeAdded:
		logPublishError(ctx, events.SubjectMessageLiked, s.publisher.PublishMessageLiked(ctx, current.ID, messageID))
	case LikeRemoved:
		logPublishError(ctx, events.SubjectMessageUnliked, s.publisher.PublishMessageUnliked(ctx, current.ID, messageID))
	}
	return outcome, nil
}

func (s *messageService) Feed(ctx context.Context, current *model.User, limit int) ([]model.MessageDetails, error) {
	if current == nil {
		return nil, ErrLoginRequired
	}
	if limit <= 0 {
		limit = FeedLimit
	}

	var feed []model.MessageDetails
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		feed, err = repos.Messages.Feed(ctx, current.ID, limit)
		return err
	})
	return feed, err
}

func (s *messageService) LikedMessageIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	var ids []int64
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ids, err = repos.Likes.LikedMessageIDs(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return idSet(ids), nil
}
