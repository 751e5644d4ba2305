package api

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"warbler/internal/service"
)

type Dependencies struct {
	ServiceName string
	Auth        service.AuthService
	Users       service.UserService
	Messages    service.MessageService
	Sessions    *Sessions
	// Presigner may be nil.
	Presigner ImagePresigner
	Logger    *slog.Logger
}

func NewApp(deps Dependencies) *fiber.App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessions := deps.Sessions

	// Immutable: parsed form values are kept by the in-memory store and the
	// session, so they must not point into reused request buffers.
	app := fiber.New(fiber.Config{
		AppName:      deps.ServiceName,
		Immutable:    true,
		Views:        NewViews(),
		ViewsLayout:  baseLayout,
		ErrorHandler: errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(otelfiber.Middleware())
	app.Use(PrometheusMiddleware())
	app.Use(RequestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:       http.FS(staticFS),
		PathPrefix: "static",
	}))

	app.Use(sessions.Middleware())
	app.Use(LoadCurrentUser(sessions, deps.Users))

	authHandler := NewAuthHandler(deps.Auth, sessions)
	userHandler := NewUserHandler(deps.Users, deps.Messages, sessions)
	messageHandler := NewMessageHandler(deps.Messages, deps.Users, sessions)
	uploadHandler := NewUploadHandler(deps.Presigner)

	login := func(message string) fiber.Handler {
		return RequireLogin(sessions, message)
	}

	app.Get("/", messageHandler.Home)
	app.Get("/signup", authHandler.SignupForm)
	app.Post("/signup", authHandler.Signup)
	app.Get("/login", authHandler.LoginForm)
	app.Post("/login", authHandler.Login)
	app.Get("/logout", login("Access unauthorized."), authHandler.Logout)

	users := app.Group("/users")
	users.Get("/", userHandler.ListUsers)

	editProfile := login("Unauthorized. Cannot edit user profile. Please login!")
	users.Get("/profile", editProfile, userHandler.EditProfileForm)
	users.Post("/profile", editProfile, userHandler.EditProfile)
	users.Post("/profile/image-upload-url", editProfile, uploadHandler.GetImageUploadURL)
	users.Post("/delete", login("Unauthorized action. Cannot delete user without user login"), userHandler.DeleteUser)

	users.Get("/:id<int>", userHandler.ShowUser)
	users.Get("/:id<int>/following", login("Access to route: following is unauthorized without login"), userHandler.Following)
	users.Get("/:id<int>/followers", login("Access to route: followers is unauthorized without login"), userHandler.Followers)
	users.Get("/:id<int>/likes", login("Unauthorized. Must be logged in to view likes."), userHandler.Likes)
	users.Post("/follow/:id<int>", login("Access to add follow is unauthorized without login"), userHandler.Follow)
	users.Post("/stop-following/:id<int>", login("Access to stop-following is unauthorized without login"), userHandler.StopFollowing)
	users.Post("/toggle_like/:message_id<int>", login("Access unauthorized. Must be logged in to like messages"), messageHandler.ToggleLike)

	messages := app.Group("/messages", login("Access unauthorized."))
	messages.Get("/new", messageHandler.NewMessageForm)
	messages.Post("/new", messageHandler.CreateMessage)
	messages.Get("/:id<int>", messageHandler.ShowMessage)
	messages.Post("/:id<int>/delete", messageHandler.DeleteMessage)

	app.Use(func(c *fiber.Ctx) error {
		return renderNotFound(c, sessions, "Page not found")
	})

	return app
}
