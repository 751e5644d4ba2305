package api

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"warbler/internal/model"
	"warbler/internal/service"
)

const (
	flashSuccess = "success"
	flashDanger  = "danger"
)

// Page is the data every template is executed with. Handlers fill the
// fields their page uses.
type Page struct {
	CurrentUser *model.User
	Flash       *Flash
	Title       string
	HeadTitle   string
	BodyClass   string

	Page      *model.UserPage
	Messages  []model.MessageDetails
	Users     []model.User
	Message   *model.MessageDetails
	Liked     map[int64]bool
	Following map[int64]bool

	Form   map[string]string
	Errors map[string]string
}

type chrome struct {
	title     string
	bodyClass string
	// profile pages are titled after the user shown
	profile   bool
}

var pageChrome = map[string]chrome{
	"home_anon":     {bodyClass: "homepage"},
	"signup":        {title: "Sign up", bodyClass: "onboarding"},
	"login":         {title: "Log in", bodyClass: "onboarding"},
	"users_edit":    {title: "Edit profile", bodyClass: "onboarding"},
	"users_index":   {title: "Users"},
	"users_show":    {profile: true},
	"users_list":    {profile: true},
	"messages_new":  {title: "New message"},
	"messages_show": {title: "Message"},
	"not_found":     {title: "Not found"},
	"error":         {title: "Error"},
}

// dress sets the document title and body class of the named page.
func (p *Page) dress(name string) {
	ch := pageChrome[name]
	p.HeadTitle, p.BodyClass = ch.title, ch.bodyClass
	if ch.profile && p.Page != nil {
		p.HeadTitle = "@" + p.Page.User.Username
	}
}

// render executes a page template inside the base layout. A flash set on
// data is shown as is, otherwise the pending session flash is consumed.
func render(c *fiber.Ctx, sessions *Sessions, status int, name string, data Page) error {
	data.CurrentUser = CurrentUser(c)
	if data.Flash == nil {
		data.Flash = sessions.PopFlash(c)
	}
	data.dress(name)
	return c.Status(status).Render(pageView(name), data)
}

func renderNotFound(c *fiber.Ctx, sessions *Sessions, what string) error {
	return render(c, sessions, fiber.StatusNotFound, "not_found", Page{Title: what})
}

// newFormValidator reports fields by their form name.
func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors turns a form or service validation failure into per-field
// messages. ok is false for any other error.
func fieldErrors(err error) (map[string]string, bool) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return map[string]string{ve.Field: ve.Message}, true
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			out[fe.Field()] = formMessage(fe)
		}
		return out, true
	}
	return nil, false
}

func formMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		return "Field must be at least " + fe.Param() + " characters long."
	case "oneof":
		return "Must be one of: " + fe.Param()
	}
	return "Invalid value."
}

// errorHandler answers errors no handler dealt with. The session is already
// saved at this point so the page is rendered without a flash.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}

		data := Page{CurrentUser: CurrentUser(c)}
		name := "error"
		switch {
		case code == fiber.StatusNotFound:
			name = "not_found"
		case code >= fiber.StatusInternalServerError:
			logger.ErrorContext(c.UserContext(), "request failed",
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.Any("error", err),
			)
			data.Title = "Please try again later."
		default:
			data.Title = err.Error()
		}

		data.dress(name)
		if renderErr := c.Status(code).Render(pageView(name), data); renderErr != nil {
			logger.ErrorContext(c.UserContext(), "render error page", slog.Any("error", renderErr))
			return c.Status(code).SendString(fiber.ErrInternalServerError.Message)
		}
		return nil
	}
}
