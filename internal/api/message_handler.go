package api

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"warbler/internal/service"
)

type MessageHandler struct {
	messageService service.MessageService
	userService    service.UserService
	sessions       *Sessions
}

func NewMessageHandler(messageService service.MessageService, userService service.UserService, sessions *Sessions) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		userService:    userService,
		sessions:       sessions,
	}
}

type MessageRequest struct {
	Text string `form:"text"`
}

func (h *MessageHandler) Home(c *fiber.Ctx) error {
	current := CurrentUser(c)
	if current == nil {
		return render(c, h.sessions, fiber.StatusOK, "home_anon", Page{})
	}

	ctx := c.UserContext()
	messages, err := h.messageService.Feed(ctx, current, service.FeedLimit)
	if err != nil {
		return err
	}
	liked, err := h.messageService.LikedMessageIDs(ctx, current.ID)
	if err != nil {
		return err
	}
	page, err := h.userService.ShowUser(ctx, current.ID)
	if err != nil {
		return err
	}

	return render(c, h.sessions, fiber.StatusOK, "home", Page{
		Page:     page,
		Messages: messages,
		Liked:    liked,
	})
}

func (h *MessageHandler) NewMessageForm(c *fiber.Ctx) error {
	return render(c, h.sessions, fiber.StatusOK, "messages_new", Page{})
}

func (h *MessageHandler) CreateMessage(c *fiber.Ctx) error {
	var request MessageRequest
	if err := c.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse form")
	}

	current := CurrentUser(c)
	if _, err := h.messageService.CreateMessage(c.UserContext(), current, request.Text); err != nil {
		if fields, ok := fieldErrors(err); ok {
			return render(c, h.sessions, fiber.StatusBadRequest, "messages_new", Page{
				Form:   map[string]string{"text": request.Text},
				Errors: fields,
			})
		}
		return err
	}
	messagesPostedTotal.Inc()

	return c.Redirect(fmt.Sprintf("/users/%d", current.ID))
}

func (h *MessageHandler) ShowMessage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	message, err := h.messageService.GetMessage(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrMessageNotFound) {
			return renderNotFound(c, h.sessions, "Message not found")
		}
		return err
	}

	return render(c, h.sessions, fiber.StatusOK, "messages_show", Page{Message: message})
}

func (h *MessageHandler) DeleteMessage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	current := CurrentUser(c)
	err = h.messageService.DeleteMessage(c.UserContext(), current, id)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrMessageNotFound):
		return renderNotFound(c, h.sessions, "Message not found")
	case errors.Is(err, service.ErrNotMessageOwner):
		if err := h.sessions.Flash(c, flashDanger, "You cannot delete a message from a different user!"); err != nil {
			return err
		}
		return c.Redirect("/")
	default:
		return err
	}

	if err := h.sessions.Flash(c, flashSuccess, "Message deleted!"); err != nil {
		return err
	}
	return c.Redirect(fmt.Sprintf("/users/%d", current.ID))
}

func (h *MessageHandler) ToggleLike(c *fiber.Ctx) error {
	id, err := paramID(c, "message_id")
	if err != nil {
		return err
	}

	outcome, err := h.messageService.ToggleLike(c.UserContext(), CurrentUser(c), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			return renderNotFound(c, h.sessions, "Message not found")
		case errors.Is(err, service.ErrSelfLike):
			if err := h.sessions.Flash(c, flashDanger, "Sorry! You cannot like your own message"); err != nil {
				return err
			}
			return redirectBack(c, "/")
		}
		return err
	}
	likesToggledTotal.WithLabelValues(outcome.String()).Inc()

	message := "Message liked"
	if outcome == service.LikeRemoved {
		message = "Message removed from likes"
	}
	if err := h.sessions.Flash(c, flashSuccess, message); err != nil {
		return err
	}
	return redirectBack(c, "/")
}

// redirectBack returns to the Referer when it points at this site and to
// fallback otherwise.
func redirectBack(c *fiber.Ctx, fallback string) error {
	if target, ok := localReferer(c); ok {
		return c.Redirect(target)
	}
	return c.Redirect(fallback)
}

// localReferer reduces a same-origin Referer to its path and query.
func localReferer(c *fiber.Ctx) (string, bool) {
	ref := c.Get(fiber.HeaderReferer)
	if ref == "" {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil || u.User != nil {
		return "", false
	}
	switch u.Scheme {
	case "", "http", "https":
	default:
		return "", false
	}
	if u.Host != "" && !strings.EqualFold(u.Host, c.Hostname()) {
		return "", false
	}
	target := u.RequestURI()
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "", false
	}
	return target, true
}
