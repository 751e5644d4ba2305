package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"warbler/internal/model"
	"warbler/internal/repository"
	"warbler/internal/service"
)

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (p *recordingPublisher) record(subject string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return p.err
}

func (p *recordingPublisher) Subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

func (p *recordingPublisher) PublishMessagePosted(context.Context, int64, int64, string) error {
	return p.record("message.posted")
}

func (p *recordingPublisher) PublishUserFollowed(context.Context, int64, int64) error {
	return p.record("user.followed")
}

func (p *recordingPublisher) PublishUserUnfollowed(context.Context, int64, int64) error {
	return p.record("user.unfollowed")
}

func (p *recordingPublisher) PublishMessageLiked(context.Context, int64, int64) error {
	return p.record("message.liked")
}

func (p *recordingPublisher) PublishMessageUnliked(context.Context, int64, int64) error {
	return p.record("message.unliked")
}

func (p *recordingPublisher) PublishUserDeleted(context.Context, int64, string) error {
	return p.record("user.deleted")
}

type fixture struct {
	store     *repository.MemoryStore
	publisher *recordingPublisher
	auth      service.AuthService
	users     service.UserService
	messages  service.MessageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	pub := &recordingPublisher{}
	return &fixture{
		store:     store,
		publisher: pub,
		auth:      service.NewAuthService(store, bcrypt.MinCost),
		users:     service.NewUserService(store, pub),
		messages:  service.NewMessageService(store, pub),
	}
}

func (f *fixture) signup(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := f.auth.Signup(context.Background(), service.SignupInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) post(t *testing.T, author *model.User, text string) *model.Message {
	t.Helper()
	msg, err := f.messages.CreateMessage(context.Background(), author, text)
	require.NoError(t, err)
	return msg
}

type failingStore struct {
	err error
}

func (s failingStore) Repositories() repository.Repositories { return repository.Repositories{} }

func (s failingStore) WithTx(context.Context, func(context.Context, repository.Repositories) error) error {
	return s.err
}

var errDatabaseDown = errors.New("database down")
