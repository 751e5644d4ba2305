package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	sessionUserIDKey        = "user_id"
	sessionFlashKey         = "flash"
	sessionFlashCategoryKey = "flash_category"

	localsSessionKey = "session"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

// Sessions wraps the server-side session store. A request loads its session
// once; changes are saved when the handler chain returns.
type Sessions struct {
	store *session.Store
}

func NewSessions(ttl time.Duration, storage fiber.Storage) *Sessions {
	return &Sessions{store: session.New(session.Config{
		Expiration:     ttl,
		Storage:        storage,
		KeyLookup:      "cookie:session_id",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})}
}

type requestSession struct {
	sess  *session.Session
	dirty bool
}

// Middleware loads the request session and saves it after the remaining
// handlers ran, if anything changed.
func (s *Sessions) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.store.Get(c)
		if err != nil {
			return err
		}
		rs := &requestSession{sess: sess}
		c.Locals(localsSessionKey, rs)

		err = c.Next()

		if rs.dirty {
			if saveErr := rs.sess.Save(); saveErr != nil {
				return errors.Join(err, saveErr)
			}
		}
		return err
	}
}

func (s *Sessions) current(c *fiber.Ctx) (*requestSession, error) {
	rs, ok := c.Locals(localsSessionKey).(*requestSession)
	if !ok {
		return nil, errors.New("session middleware not installed")
	}
	return rs, nil
}

// Login stores userID under a fresh session id.
func (s *Sessions) Login(c *fiber.Ctx, userID int64) error {
	rs, err := s.current(c)
	if err != nil {
		return err
	}
	if err := rs.sess.Regenerate(); err != nil {
		return err
	}
	rs.sess.Set(sessionUserIDKey, userID)
	rs.dirty = true
	return nil
}

// Logout destroys the session and starts an empty one, which can still
// carry a flash message.
func (s *Sessions) Logout(c *fiber.Ctx) error {
	rs, err := s.current(c)
	if err != nil {
		return err
	}
	if err := rs.sess.Destroy(); err != nil {
		return err
	}
	if err := rs.sess.Regenerate(); err != nil {
		return err
	}
	rs.dirty = true
	return nil
}

func (s *Sessions) UserID(c *fiber.Ctx) (int64, bool) {
	rs, err := s.current(c)
	if err != nil {
		return 0, false
	}
	id, ok := rs.sess.Get(sessionUserIDKey).(int64)
	return id, ok
}

// ForgetUser drops the user id without touching the rest of the session.
func (s *Sessions) ForgetUser(c *fiber.Ctx) error {
	rs, err := s.current(c)
	if err != nil {
		return err
	}
	rs.sess.Delete(sessionUserIDKey)
	rs.dirty = true
	return nil
}

func (s *Sessions) Flash(c *fiber.Ctx, category, message string) error {
	rs, err := s.current(c)
	if err != nil {
		return err
	}
	rs.sess.Set(sessionFlashKey, message)
	rs.sess.Set(sessionFlashCategoryKey, category)
	rs.dirty = true
	return nil
}

// PopFlash returns and clears the pending flash, or nil when there is none.
func (s *Sessions) PopFlash(c *fiber.Ctx) *Flash {
	rs, err := s.current(c)
	if err != nil {
		return nil
	}
	message, ok := rs.sess.Get(sessionFlashKey).(string)
	if !ok || message == "" {
		return nil
	}
	category, _ := rs.sess.Get(sessionFlashCategoryKey).(string)
	rs.sess.Delete(sessionFlashKey)
	rs.sess.Delete(sessionFlashCategoryKey)
	rs.dirty = true
	return &Flash{Category: category, Message: message}
}
