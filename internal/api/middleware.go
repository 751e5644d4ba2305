package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"warbler/internal/model"
	"warbler/internal/service"
)

const localsCurrentUserKey = "currentUser"

// LoadCurrentUser resolves the session user. A session pointing at a user
// that no longer exists is treated as anonymous and the stale id is dropped.
func LoadCurrentUser(sessions *Sessions, users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := sessions.UserID(c)
		if !ok {
			return c.Next()
		}

		user, err := users.GetUser(c.UserContext(), id)
		switch {
		case err == nil:
			c.Locals(localsCurrentUserKey, user)
		case errors.Is(err, service.ErrUserNotFound):
			if err := sessions.ForgetUser(c); err != nil {
				return err
			}
		default:
			return err
		}

		return c.Next()
	}
}

// CurrentUser returns the logged in user, or nil for anonymous requests.
func CurrentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(localsCurrentUserKey).(*model.User)
	return user
}

// RequireLogin sends anonymous requests back to the home page with message
// flashed.
func RequireLogin(sessions *Sessions, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) != nil {
			return c.Next()
		}
		if err := sessions.Flash(c, flashDanger, message); err != nil {
			return err
		}
		return c.Redirect("/")
	}
}

func RequestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		logger.InfoContext(c.UserContext(), "request",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
		)
		return err
	}
}
