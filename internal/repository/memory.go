package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"warbler/internal/model"
)

// Foreign key constraint names as PostgreSQL generates them for the
// migrations, reported by the in-memory store.
const (
	constraintMessagesUser    = "messages_user_id_fkey"
	constraintFollowsFollower = "follows_follower_id_fkey"
	constraintFollowsFollowed = "follows_followed_id_fkey"
	constraintLikesUser       = "likes_user_id_fkey"
	constraintLikesMessage    = "likes_message_id_fkey"
)

type memState struct {
	nextUserID    int64
	nextMessageID int64
	users         map[int64]model.User
	messages      map[int64]model.Message
	follows       map[model.Follow]struct{}
	likes         map[model.Like]struct{}
}

func newMemState() *memState {
	return &memState{
		users:    map[int64]model.User{},
		messages: map[int64]model.Message{},
		follows:  map[model.Follow]struct{}{},
		likes:    map[model.Like]struct{}{},
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		nextUserID:    s.nextUserID,
		nextMessageID: s.nextMessageID,
		users:         make(map[int64]model.User, len(s.users)),
		messages:      make(map[int64]model.Message, len(s.messages)),
		follows:       make(map[model.Follow]struct{}, len(s.follows)),
		likes:         make(map[model.Like]struct{}, len(s.likes)),
	}
	for k, v := range s.users {
		c.users[k] = copyUser(v)
	}
	for k, v := range s.messages {
		c.messages[k] = v
	}
	for k := range s.follows {
		c.follows[k] = struct{}{}
	}
	for k := range s.likes {
		c.likes[k] = struct{}{}
	}
	return c
}

// copyUser detaches every string from the caller's memory, which may be a
// reused request buffer.
func copyUser(u model.User) model.User {
	u.Email = strings.Clone(u.Email)
	u.Username = strings.Clone(u.Username)
	u.ImageURL = strings.Clone(u.ImageURL)
	u.HeaderImageURL = strings.Clone(u.HeaderImageURL)
	u.PasswordHash = strings.Clone(u.PasswordHash)
	if u.Bio != nil {
		bio := strings.Clone(*u.Bio)
		u.Bio = &bio
	}
	return u
}

// MemoryStore keeps all rows in process memory and enforces the same unique,
// foreign key, check and cascade rules as the PostgreSQL schema.
// Transactions are serialized and roll back by restoring a snapshot.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState(), now: time.Now}
}

// SetClock replaces the time source used for created_at and message timestamps.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Repositories() Repositories {
	return s.repositories(false)
}

func (s *MemoryStore) repositories(inTx bool) Repositories {
	v := &memView{store: s, inTx: inTx}
	return Repositories{
		Users:    memUsers{v},
		Messages: memMessages{v},
		Follows:  memFollows{v},
		Likes:    memLikes{v},
	}
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
		if err != nil {
			s.state = snapshot
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, s.repositories(true))
}

// memView runs repository calls against the store state, taking the lock
// unless it is bound to a transaction that already holds it.
type memView struct {
	store *MemoryStore
	inTx  bool
}

func (v *memView) do(ctx context.Context, fn func(st *memState, now time.Time) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !v.inTx {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
	}
	return fn(v.store.state, v.store.now())
}

func uniqueViolation(constraint string) error {
	return &ConstraintError{Kind: ErrUniqueViolation, Constraint: constraint}
}

func foreignKeyViolation(constraint string) error {
	return &ConstraintError{Kind: ErrForeignKeyViolation, Constraint: constraint}
}

func (s *memState) checkUserUnique(u *model.User) error {
	for id, other := range s.users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return uniqueViolation(ConstraintEmailUnique)
		}
		if other.Username == u.Username {
			return uniqueViolation(ConstraintUsernameUnique)
		}
	}
	return nil
}

func (s *memState) messageDetails(m model.Message) model.MessageDetails {
	author := s.users[m.UserID]
	return model.MessageDetails{Message: m, Username: author.Username, UserImageURL: author.ImageURL}
}

func sortMessages(messages []model.MessageDetails) {
	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].Timestamp.After(messages[j].Timestamp)
		}
		return messages[i].ID > messages[j].ID
	})
}

func sortUsers(users []model.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
}

func limitMessages(messages []model.MessageDetails, limit int) []model.MessageDetails {
	if limit >= 0 && len(messages) > limit {
		return messages[:limit]
	}
	return messages
}

type memUsers struct{ v *memView }

func (r memUsers) Create(ctx context.Context, user *model.User) (int64, error) {
	user.ApplyDefaults()
	err := r.v.do(ctx, func(st *memState, now time.Time) error {
		candidate := copyUser(*user)
		candidate.ID = 0
		if err := st.checkUserUnique(&candidate); err != nil {
			return err
		}
		st.nextUserID++
		candidate.ID = st.nextUserID
		candidate.CreatedAt = now
		st.users[candidate.ID] = candidate

		user.ID = candidate.ID
		user.CreatedAt = candidate.CreatedAt
		return nil
	})
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

func (r memUsers) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var found model.User
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		u, ok := st.users[id]
		if !ok {
			return ErrNotFound
		}
		found = copyUser(u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r memUsers) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var found model.User
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		for _, u := range st.users {
			if u.Username == username {
				found = copyUser(u)
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r memUsers) Search(ctx context.Context, query string) ([]model.User, error) {
	users := []model.User{}
	needle := strings.ToLower(query)
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		for _, u := range st.users {
			if strings.Contains(strings.ToLower(u.Username), needle) {
				users = append(users, copyUser(u))
			}
		}
		return nil
	})
	sortUsers(users)
	return users, err
}

func (r memUsers) Update(ctx context.Context, user *model.User) error {
	return r.v.do(ctx, func(st *memState, _ time.Time) error {
		existing, ok := st.users[user.ID]
		if !ok {
			return ErrNotFound
		}
		if err := st.checkUserUnique(user); err != nil {
			return err
		}
		updated := copyUser(*user)
		updated.PasswordHash = existing.PasswordHash
		updated.CreatedAt = existing.CreatedAt
		st.users[user.ID] = updated
		return nil
	})
}

func (r memUsers) Delete(ctx context.Context, id int64) error {
	return r.v.do(ctx, func(st *memState, _ time.Time) error {
		if _, ok := st.users[id]; !ok {
			return ErrNotFound
		}
		delete(st.users, id)
		for mid, m := range st.messages {
			if m.UserID == id {
				delete(st.messages, mid)
			}
		}
		for f := range st.follows {
			if f.FollowerID == id || f.FollowedID == id {
				delete(st.follows, f)
			}
		}
		for l := range st.likes {
			if _, ok := st.messages[l.MessageID]; l.UserID == id || !ok {
				delete(st.likes, l)
			}
		}
		return nil
	})
}

func (r memUsers) Stats(ctx context.Context, id int64) (*model.UserStats, error) {
	var stats model.UserStats
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		for _, m := range st.messages {
			if m.UserID == id {
				stats.Messages++
			}
		}
		for f := range st.follows {
			if f.FollowerID == id {
				stats.Following++
			}
			if f.FollowedID == id {
				stats.Followers++
			}
		}
		for l := range st.likes {
			if l.UserID == id {
				stats.Likes++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

type memMessages struct{ v *memView }

func (r memMessages) Create(ctx context.Context, msg *model.Message) error {
	return r.v.do(ctx, func(st *memState, now time.Time) error {
		if _, ok := st.users[msg.UserID]; !ok {
			return foreignKeyViolation(constraintMessagesUser)
		}
		st.nextMessageID++
		msg.ID = st.nextMessageID
		msg.Timestamp = now
		stored := *msg
		stored.Text = strings.Clone(msg.Text)
		st.messages[msg.ID] = stored
		return nil
	})
}

func (r memMessages) FindByID(ctx context.Context, id int64) (*model.MessageDetails, error) {
	var found model.MessageDetails
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		m, ok := st.messages[id]
		if !ok {
			return ErrNotFound
		}
		found = st.messageDetails(m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r memMessages) ListByUser(ctx context.Context, userID int64, limit int) ([]model.MessageDetails, error) {
	messages := []model.MessageDetails{}
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		for _, m := range st.messages {
			if m.UserID == userID {
				messages = append(messages, st.messageDetails(m))
			}
		}
		return nil
	})
	sortMessages(messages)
	return limitMessages(messages, limit), err
}

func (r memMessages) Feed(ctx context.Context, userID int64, limit int) ([]model.MessageDetails, error) {
	messages := []model.MessageDetails{}
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		for _, m := range st.messages {
			_, followed := st.follows[model.Follow{FollowerID: userID, FollowedID: m.UserID}]
			if m.UserID == userID || followed {
				messages = append(messages, st.messageDetails(m))
			}
		}
		return nil
	})
	sortMessages(messages)
	return limitMessages(messages, limit), err
}

func (r memMessages) Delete(ctx context.Context, id int64) error {
	return r.v.do(ctx, func(st *memState, _ time.Time) error {
		if _, ok := st.messages[id]; !ok {
			return ErrNotFound
		}
		delete(st.messages, id)
		for l := range st.likes {
			if l.MessageID == id {
				delete(st.likes, l)
			}
		}
		return nil
	})
}

type memFollows struct{ v *memView }

func (r memFollows) Add(ctx context.Context, followerID, followedID int64) error {
	return r.v.do(ctx, func(st *memState, _ time.Time) error {
		if followerID == followedID {
			return &ConstraintError{Kind: ErrCheckViolation, Constraint: ConstraintNoSelfFollow}
		}
		if _, ok := st.users[followerID]; !ok {
			return foreignKeyViolation(constraintFollowsFollower)
		}
		if _, ok := st.users[followedID]; !ok {
			return foreignKeyViolation(constraintFollowsFollowed)
		}
		st.follows[model.Follow{FollowerID: followerID, FollowedID: followedID}] = struct{}{}
		return nil
	})
}

func (r memFollows) Remove(ctx context.Context, followerID, followedID int64) (bool, error) {
	var removed bool
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		key := model.Follow{FollowerID: followerID, FollowedID: followedID}
		_, removed = st.follows[key]
		delete(st.follows, key)
		return nil
	})
	return removed, err
}

func (r memFollows) Exists(ctx context.Context, followerID, followedID int64) (bool, error) {
	var exists bool
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		_, exists = st.follows[model.Follow{FollowerID: followerID, FollowedID: followedID}]
		return nil
	})
	return exists, err
}

func (r memFollows) Following(ctx context.Context, userID int64) ([]model.User, error) {
	users := []model.User{}
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		for f := range st.follows {
			if f.FollowerID == userID {
				users = append(users, copyUser(st.users[f.FollowedID]))
			}
		}
		return nil
	})
	sortUsers(users)
	return users, err
}

func (r memFollows) Followers(ctx context.Context, userID int64) ([]model.User, error) {
	users := []model.User{}
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		for f := range st.follows {
			if f.FollowedID == userID {
				users = append(users, copyUser(st.users[f.FollowerID]))
			}
		}
		return nil
	})
	sortUsers(users)
	return users, err
}

func (r memFollows) FollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		for f := range st.follows {
			if f.FollowerID == userID {
				ids = append(ids, f.FollowedID)
			}
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, err
}

type memLikes struct{ v *memView }

func (r memLikes) Add(ctx context.Context, userID, messageID int64) error {
	return r.v.do(ctx, func(st *memState, _ time.Time) error {
		if _, ok := st.users[userID]; !ok {
			return foreignKeyViolation(constraintLikesUser)
		}
		if _, ok := st.messages[messageID]; !ok {
			return foreignKeyViolation(constraintLikesMessage)
		}
		key := model.Like{UserID: userID, MessageID: messageID}
		if _, ok := st.likes[key]; ok {
			return uniqueViolation(ConstraintLikesPrimary)
		}
		st.likes[key] = struct{}{}
		return nil
	})
}

func (r memLikes) Remove(ctx context.Context, userID, messageID int64) (bool, error) {
	var removed bool
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		key := model.Like{UserID: userID, MessageID: messageID}
		_, removed = st.likes[key]
		delete(st.likes, key)
		return nil
	})
	return removed, err
}

func (r memLikes) LikedMessages(ctx context.Context, userID int64) ([]model.MessageDetails, error) {
	messages := []model.MessageDetails{}
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		for l := range st.likes {
			if l.UserID == userID {
				messages = append(messages, st.messageDetails(st.messages[l.MessageID]))
			}
		}
		return nil
	})
	sortMessages(messages)
	return messages, err
}

func (r memLikes) LikedMessageIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		for l := range st.likes {
			if l.UserID == userID {
				ids = append(ids, l.MessageID)
			}
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, err
}

func (r memLikes) CountForMessage(ctx context.Context, messageID int64) (int, error) {
	var count int
	err := r.v.do(ctx, func(st *memState, _ time.Time) error {
		for l := range st.likes {
			if l.MessageID == messageID {
				count++
			}
		}
		return nil
	})
	return count, err
}
