package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"warbler/internal/model"
	repo "warbler/internal/repository"
)

// runStoreContract checks the relational rules every Store implementation
// must enforce. newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) repo.Store) {
	ctx := context.Background()

	createUser := func(t *testing.T, s repo.Store, username string) *model.User {
		t.Helper()
		u := &model.User{
			Email:          username + "@example.com",
			Username:       username,
			ImageURL:       model.DefaultImageURL,
			HeaderImageURL: model.DefaultHeaderImageURL,
			PasswordHash:   "hash-" + username,
		}
		_, err := s.Repositories().Users.Create(ctx, u)
		require.NoError(t, err)
		return u
	}

	createMessage := func(t *testing.T, s repo.Store, userID int64, text string) *model.Message {
		t.Helper()
		m := &model.Message{Text: text, UserID: userID}
		require.NoError(t, s.Repositories().Messages.Create(ctx, m))
		return m
	}

	t.Run("unique username and email", func(t *testing.T) {
		s := newStore(t)
		createUser(t, s, "alice")

		_, err := s.Repositories().Users.Create(ctx, &model.User{
			Email: "other@example.com", Username: "alice", ImageURL: model.DefaultImageURL,
			HeaderImageURL: model.DefaultHeaderImageURL, PasswordHash: "x",
		})
		require.ErrorIs(t, err, repo.ErrUniqueViolation)
		require.True(t, repo.IsConstraint(err, repo.ConstraintUsernameUnique))

		_, err = s.Repositories().Users.Create(ctx, &model.User{
			Email: "alice@example.com", Username: "alice2", ImageURL: model.DefaultImageURL,
			HeaderImageURL: model.DefaultHeaderImageURL, PasswordHash: "x",
		})
		require.ErrorIs(t, err, repo.ErrUniqueViolation)
		require.True(t, repo.IsConstraint(err, repo.ConstraintEmailUnique))
	})

	t.Run("create fills default images", func(t *testing.T) {
		s := newStore(t)
		u := &model.User{Email: "dora@example.com", Username: "dora", PasswordHash: "x"}
		_, err := s.Repositories().Users.Create(ctx, u)
		require.NoError(t, err)
		require.Equal(t, model.DefaultImageURL, u.ImageURL)
		require.Equal(t, model.DefaultHeaderImageURL, u.HeaderImageURL)

		found, err := s.Repositories().Users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, model.DefaultImageURL, found.ImageURL)
		require.Equal(t, model.DefaultHeaderImageURL, found.HeaderImageURL)
	})

	t.Run("update keeps uniqueness", func(t *testing.T) {
		s := newStore(t)
		alice := createUser(t, s, "alice")
		createUser(t, s, "bob")

		alice.Username = "bob"
		err := s.Repositories().Users.Update(ctx, alice)
		require.True(t, repo.IsConstraint(err, repo.ConstraintUsernameUnique))

		alice.Username = "alicia"
		require.NoError(t, s.Repositories().Users.Update(ctx, alice))

		found, err := s.Repositories().Users.FindByUsername(ctx, "alicia")
		require.NoError(t, err)
		require.Equal(t, alice.ID, found.ID)
		require.Equal(t, "hash-alice", found.PasswordHash)
	})

	t.Run("search is case insensitive and literal", func(t *testing.T) {
		s := newStore(t)
		createUser(t, s, "Carol")
		createUser(t, s, "caroline")
		createUser(t, s, "dave_x")
		createUser(t, s, "davex")

		users, err := s.Repositories().Users.Search(ctx, "CAROL")
		require.NoError(t, err)
		require.Len(t, users, 2)

		users, err = s.Repositories().Users.Search(ctx, "e_x")
		require.NoError(t, err)
		require.Len(t, users, 1)
		require.Equal(t, "dave_x", users[0].Username)

		users, err = s.Repositories().Users.Search(ctx, "")
		require.NoError(t, err)
		require.Len(t, users, 4)
	})

	t.Run("message requires existing user", func(t *testing.T) {
		s := newStore(t)
		err := s.Repositories().Messages.Create(ctx, &model.Message{Text: "orphan", UserID: 12345})
		require.ErrorIs(t, err, repo.ErrForeignKeyViolation)
	})

	t.Run("follow edges", func(t *testing.T) {
		s := newStore(t)
		alice := createUser(t, s, "alice")
		bob := createUser(t, s, "bob")
		follows := s.Repositories().Follows

		err := follows.Add(ctx, alice.ID, alice.ID)
		require.ErrorIs(t, err, repo.ErrCheckViolation)
		require.True(t, repo.IsConstraint(err, repo.ConstraintNoSelfFollow))

		require.NoError(t, follows.Add(ctx, alice.ID, bob.ID))
		require.NoError(t, follows.Add(ctx, alice.ID, bob.ID))

		ok, err := follows.Exists(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = follows.Exists(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		require.False(t, ok)

		following, err := follows.Following(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, following, 1)
		require.Equal(t, "bob", following[0].Username)

		followers, err := follows.Followers(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, followers, 1)
		require.Equal(t, "alice", followers[0].Username)

		removed, err := follows.Remove(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.True(t, removed)
		removed, err = follows.Remove(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.False(t, removed)
	})

	t.Run("feed has own and followed messages newest first", func(t *testing.T) {
		s := newStore(t)
		alice := createUser(t, s, "alice")
		bob := createUser(t, s, "bob")
		carol := createUser(t, s, "carol")
		require.NoError(t, s.Repositories().Follows.Add(ctx, alice.ID, bob.ID))

		first := createMessage(t, s, alice.ID, "alice first")
		second := createMessage(t, s, bob.ID, "bob second")
		createMessage(t, s, carol.ID, "carol hidden")
		third := createMessage(t, s, alice.ID, "alice third")

		feed, err := s.Repositories().Messages.Feed(ctx, alice.ID, 100)
		require.NoError(t, err)
		require.Len(t, feed, 3)
		require.Equal(t, third.ID, feed[0].ID)
		require.Equal(t, second.ID, feed[1].ID)
		require.Equal(t, first.ID, feed[2].ID)
		require.Equal(t, "bob", feed[1].Username)

		feed, err = s.Repositories().Messages.Feed(ctx, alice.ID, 1)
		require.NoError(t, err)
		require.Len(t, feed, 1)
	})

	t.Run("likes", func(t *testing.T) {
		s := newStore(t)
		alice := createUser(t, s, "alice")
		bob := createUser(t, s, "bob")
		msg := createMessage(t, s, bob.ID, "likeable")
		likes := s.Repositories().Likes

		require.NoError(t, likes.Add(ctx, alice.ID, msg.ID))
		err := likes.Add(ctx, alice.ID, msg.ID)
		require.ErrorIs(t, err, repo.ErrUniqueViolation)

		err = likes.Add(ctx, alice.ID, msg.ID+1000)
		require.ErrorIs(t, err, repo.ErrForeignKeyViolation)

		liked, err := likes.LikedMessages(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, liked, 1)
		require.Equal(t, "likeable", liked[0].Text)

		ids, err := likes.LikedMessageIDs(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, []int64{msg.ID}, ids)
	})

	t.Run("deleting a user cascades", func(t *testing.T) {
		s := newStore(t)
		alice := createUser(t, s, "alice")
		bob := createUser(t, s, "bob")
		r := s.Repositories()

		aliceMsg := createMessage(t, s, alice.ID, "by alice")
		bobMsg := createMessage(t, s, bob.ID, "by bob")
		require.NoError(t, r.Follows.Add(ctx, alice.ID, bob.ID))
		require.NoError(t, r.Follows.Add(ctx, bob.ID, alice.ID))
		require.NoError(t, r.Likes.Add(ctx, alice.ID, bobMsg.ID))
		require.NoError(t, r.Likes.Add(ctx, bob.ID, aliceMsg.ID))

		require.NoError(t, r.Users.Delete(ctx, alice.ID))

		_, err := r.Users.FindByID(ctx, alice.ID)
		require.ErrorIs(t, err, repo.ErrNotFound)
		_, err = r.Messages.FindByID(ctx, aliceMsg.ID)
		require.ErrorIs(t, err, repo.ErrNotFound)

		stats, err := r.Users.Stats(ctx, bob.ID)
		require.NoError(t, err)
		require.Equal(t, model.UserStats{Messages: 1}, *stats)

		count, err := r.Likes.CountForMessage(ctx, bobMsg.ID)
		require.NoError(t, err)
		require.Zero(t, count)

		require.ErrorIs(t, r.Users.Delete(ctx, alice.ID), repo.ErrNotFound)
	})

	t.Run("failed transaction leaves no writes", func(t *testing.T) {
		s := newStore(t)
		alice := createUser(t, s, "alice")
		bob := createUser(t, s, "bob")

		stop := errors.New("stop")
		err := s.WithTx(ctx, func(ctx context.Context, r repo.Repositories) error {
			if err := r.Follows.Add(ctx, alice.ID, bob.ID); err != nil {
				return err
			}
			if err := r.Messages.Create(ctx, &model.Message{Text: "lost", UserID: alice.ID}); err != nil {
				return err
			}
			return stop
		})
		require.ErrorIs(t, err, stop)

		stats, err := s.Repositories().Users.Stats(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, model.UserStats{}, *stats)
	})

	t.Run("committed transaction is visible", func(t *testing.T) {
		s := newStore(t)
		alice := createUser(t, s, "alice")

		err := s.WithTx(ctx, func(ctx context.Context, r repo.Repositories) error {
			return r.Messages.Create(ctx, &model.Message{Text: "kept", UserID: alice.ID})
		})
		require.NoError(t, err)

		messages, err := s.Repositories().Messages.ListByUser(ctx, alice.ID, 100)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		require.Equal(t, "kept", messages[0].Text)
	})
}
