package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"warbler/internal/service"
)

type AuthHandler struct {
	authService service.AuthService
	sessions    *Sessions
	validate    *validator.Validate
}

func NewAuthHandler(authService service.AuthService, sessions *Sessions) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		validate:    newFormValidator(),
	}
}

type SignupRequest struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
	ImageURL string `form:"image_url"`
}

func (r SignupRequest) values() map[string]string {
	return map[string]string{
		"username":  r.Username,
		"email":     r.Email,
		"image_url": r.ImageURL,
	}
}

type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required,min=6"`
}

func (h *AuthHandler) SignupForm(c *fiber.Ctx) error {
	return render(c, h.sessions, fiber.StatusOK, "signup", Page{})
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var request SignupRequest
	if err := c.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse form")
	}

	user, err := h.authService.Signup(c.UserContext(), service.SignupInput{
		Username: request.Username,
		Email:    request.Email,
		Password: request.Password,
		ImageURL: request.ImageURL,
	})
	if err != nil {
		data := Page{Form: request.values()}
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			data.Flash = &Flash{Category: flashDanger, Message: "Username already taken"}
			return render(c, h.sessions, fiber.StatusConflict, "signup", data)
		case errors.Is(err, service.ErrEmailTaken):
			data.Flash = &Flash{Category: flashDanger, Message: "Email already taken"}
			return render(c, h.sessions, fiber.StatusConflict, "signup", data)
		}
		if fields, ok := fieldErrors(err); ok {
			data.Errors = fields
			return render(c, h.sessions, fiber.StatusBadRequest, "signup", data)
		}
		return err
	}
	signupsTotal.Inc()

	if err := h.sessions.Login(c, user.ID); err != nil {
		return err
	}
	if err := h.sessions.Flash(c, flashSuccess, "Successfully created account"); err != nil {
		return err
	}
	return c.Redirect("/")
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, h.sessions, fiber.StatusOK, "login", Page{})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var request LoginRequest
	if err := c.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse form")
	}

	data := Page{Form: map[string]string{"username": request.Username}}
	if err := h.validate.Struct(&request); err != nil {
		fields, ok := fieldErrors(err)
		if !ok {
			return err
		}
		data.Errors = fields
		return render(c, h.sessions, fiber.StatusBadRequest, "login", data)
	}

	user, err := h.authService.Authenticate(c.UserContext(), request.Username, request.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			loginsTotal.WithLabelValues("failure").Inc()
			data.Flash = &Flash{Category: flashDanger, Message: "Invalid credentials."}
			return render(c, h.sessions, fiber.StatusUnauthorized, "login", data)
		}
		return err
	}
	loginsTotal.WithLabelValues("success").Inc()

	if err := h.sessions.Login(c, user.ID); err != nil {
		return err
	}
	if err := h.sessions.Flash(c, flashSuccess, "Hello, "+user.Username+"!"); err != nil {
		return err
	}
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.Logout(c); err != nil {
		return err
	}
	if err := h.sessions.Flash(c, flashSuccess, "Successfully logged out! See you soon!"); err != nil {
		return err
	}
	return c.Redirect("/")
}
