package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"warbler/internal/events"
	"warbler/internal/model"
	"warbler/internal/repository"
)

type EditProfileInput struct {
	Username       string `validate:"required"`
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
}

type UserService interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	// SearchUsers returns every user when query is blank.
	SearchUsers(ctx context.Context, query string) ([]model.User, error)
	ShowUser(ctx context.Context, id int64) (*model.UserPage, error)
	FollowingPage(ctx context.Context, id int64) (*model.UserPage, error)
	FollowersPage(ctx context.Context, id int64) (*model.UserPage, error)
	LikesPage(ctx context.Context, id int64) (*model.UserPage, error)
	// IsFollowing reports whether a follows b.
	IsFollowing(ctx context.Context, a, b int64) (bool, error)
	// IsFollowedBy reports whether b follows a.
	IsFollowedBy(ctx context.Context, a, b int64) (bool, error)
	FollowingIDs(ctx context.Context, userID int64) (map[int64]bool, error)
	Follow(ctx context.Context, current *model.User, targetID int64) (*model.User, error)
	StopFollowing(ctx context.Context, current *model.User, targetID int64) (*model.User, error)
	EditProfile(ctx context.Context, current *model.User, input EditProfileInput, confirmPassword string) (*model.User, error)
	DeleteUser(ctx context.Context, current *model.User) error
}

type userService struct {
	store     repository.Store
	publisher events.EventPublisher
}

func NewUserService(store repository.Store, publisher events.EventPublisher) UserService {
	return &userService{store: store, publisher: publisher}
}

func (s *userService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var user *model.User
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		user, err = repos.Users.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

func (s *userService) SearchUsers(ctx context.Context, query string) ([]model.User, error) {
	var users []model.User
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		users, err = repos.Users.Search(ctx, strings.TrimSpace(query))
		return err
	})
	return users, err
}

// userPage loads the user with its stats, then lets fill add the listing.
func (s *userService) userPage(ctx context.Context, id int64, fill func(ctx context.Context, repos repository.Repositories, page *model.UserPage) error) (*model.UserPage, error) {
	page := &model.UserPage{}
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		user, err := repos.Users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		stats, err := repos.Users.Stats(ctx, id)
		if err != nil {
			return err
		}
		page.User = *user
		page.Stats = *stats
		return fill(ctx, repos, page)
	})
	if err != nil {
		return nil, userLookupError(err)
	}
	return page, nil
}

func (s *userService) ShowUser(ctx context.Context, id int64) (*model.UserPage, error) {
	return s.userPage(ctx, id, func(ctx context.Context, repos repository.Repositories, page *model.UserPage) error {
		var err error
		page.Messages, err = repos.Messages.ListByUser(ctx, id, FeedLimit)
		return err
	})
}

func (s *userService) FollowingPage(ctx context.Context, id int64) (*model.UserPage, error) {
	return s.userPage(ctx, id, func(ctx context.Context, repos repository.Repositories, page *model.UserPage) error {
		var err error
		page.Users, err = repos.Follows.Following(ctx, id)
		return err
	})
}

func (s *userService) FollowersPage(ctx context.Context, id int64) (*model.UserPage, error) {
	return s.userPage(ctx, id, func(ctx context.Context, repos repository.Repositories, page *model.UserPage) error {
		var err error
		page.Users, err = repos.Follows.Followers(ctx, id)
		return err
	})
}

func (s *userService) LikesPage(ctx context.Context, id int64) (*model.UserPage, error) {
	return s.userPage(ctx, id, func(ctx context.Context, repos repository.Repositories, page *model.UserPage) error {
		var err error
		page.Messages, err = repos.Likes.LikedMessages(ctx, id)
		return err
	})
}

func (s *userService) IsFollowing(ctx context.Context, a, b int64) (bool, error) {
	var following bool
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		following, err = repos.Follows.Exists(ctx, a, b)
		return err
	})
	return following, err
}

func (s *userService) IsFollowedBy(ctx context.Context, a, b int64) (bool, error) {
	return s.IsFollowing(ctx, b, a)
}

func (s *userService) FollowingIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	var ids []int64
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ids, err = repos.Follows.FollowingIDs(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return idSet(ids), nil
}

func (s *userService) Follow(ctx context.Context, current *model.User, targetID int64) (*model.User, error) {
	target, err := s.changeFollow(ctx, current, targetID, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Follows.Add(ctx, current.ID, targetID)
	})
	if err != nil {
		return nil, err
	}

	logPublishError(ctx, events.SubjectUserFollowed, s.publisher.PublishUserFollowed(ctx, current.ID, target.ID))
	return target, nil
}

func (s *userService) StopFollowing(ctx context.Context, current *model.User, targetID int64) (*model.User, error) {
	var removed bool
	target, err := s.changeFollow(ctx, current, targetID, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		removed, err = repos.Follows.Remove(ctx, current.ID, targetID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if removed {
		logPublishError(ctx, events.SubjectUserUnfollowed, s.publisher.PublishUserUnfollowed(ctx, current.ID, target.ID))
	}
	return target, nil
}

func (s *userService) changeFollow(ctx context.Context, current *model.User, targetID int64, change func(ctx context.Context, repos repository.Repositories) error) (*model.User, error) {
	if current == nil {
		return nil, ErrLoginRequired
	}
	if current.ID == targetID {
		return nil, ErrSelfFollow
	}

	var target *model.User
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		target, err = repos.Users.FindByID(ctx, targetID)
		if err != nil {
			return err
		}
		return change(ctx, repos)
	})
	if repository.IsConstraint(err, repository.ConstraintNoSelfFollow) {
		return nil, ErrSelfFollow
	}
	if errors.Is(err, repository.ErrForeignKeyViolation) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, userLookupError(err)
	}
	return target, nil
}

func (s *userService) EditProfile(ctx context.Context, current *model.User, input EditProfileInput, confirmPassword string) (*model.User, error) {
	if current == nil {
		return nil, ErrLoginRequired
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.ImageURL = strings.TrimSpace(input.ImageURL)
	input.HeaderImageURL = strings.TrimSpace(input.HeaderImageURL)
	input.Bio = strings.TrimSpace(input.Bio)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var updated *model.User
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		user, err := repos.Users.FindByID(ctx, current.ID)
		if err != nil {
			return err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(confirmPassword)); err != nil {
			return ErrInvalidPassword
		}

		user.Username = input.Username
		if input.Email != "" {
			user.Email = input.Email
		}
		user.ImageURL = input.ImageURL
		user.HeaderImageURL = input.HeaderImageURL
		user.ApplyDefaults()
		user.Bio = nil
		if input.Bio != "" {
			bio := input.Bio
			user.Bio = &bio
		}

		if err := repos.Users.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, userLookupError(translateUserConstraint(err))
	}
	return updated, nil
}

func (s *userService) DeleteUser(ctx context.Context, current *model.User) error {
	if current == nil {
		return ErrLoginRequired
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Users.Delete(ctx, current.ID)
	})
	if err != nil {
		return userLookupError(err)
	}

	logPublishError(ctx, events.SubjectUserDeleted, s.publisher.PublishUserDeleted(ctx, current.ID, current.Username))
	return nil
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
