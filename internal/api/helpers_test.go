package api_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"warbler/internal/api"
	"warbler/internal/events"
	"warbler/internal/model"
	"warbler/internal/repository"
	"warbler/internal/service"
)

type testApp struct {
	app      *fiber.App
	store    *repository.MemoryStore
	auth     service.AuthService
	users    service.UserService
	messages service.MessageService
}

func newTestApp(t *testing.T, presigner api.ImagePresigner) *testApp {
	t.Helper()
	store := repository.NewMemoryStore()
	publisher := events.NoopPublisher{}

	ta := &testApp{
		store:    store,
		auth:     service.NewAuthService(store, bcrypt.MinCost),
		users:    service.NewUserService(store, publisher),
		messages: service.NewMessageService(store, publisher),
	}
	ta.app = api.NewApp(api.Dependencies{
		ServiceName: "warbler-test",
		Auth:        ta.auth,
		Users:       ta.users,
		Messages:    ta.messages,
		Sessions:    api.NewSessions(time.Hour, nil),
		Presigner:   presigner,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return ta
}

func (ta *testApp) signup(t *testing.T, username string) *model.User {
	t.Helper()
	user, err := ta.auth.Signup(context.Background(), service.SignupInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password",
	})
	require.NoError(t, err)
	return user
}

func (ta *testApp) post(t *testing.T, author *model.User, text string) *model.Message {
	t.Helper()
	msg, err := ta.messages.CreateMessage(context.Background(), author, text)
	require.NoError(t, err)
	return msg
}

// client carries cookies between requests like a browser would.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]*http.Cookie
}

func (ta *testApp) client(t *testing.T) *client {
	return &client{t: t, app: ta.app, cookies: map[string]*http.Cookie{}}
}

func (ta *testApp) loggedIn(t *testing.T, username string) *client {
	t.Helper()
	c := ta.client(t)
	resp := c.do(http.MethodPost, "/login", url.Values{"username": {username}, "password": {"password"}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	return c
}

func (c *client) request(req *http.Request) *http.Response {
	c.t.Helper()
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)

	for _, cookie := range resp.Cookies() {
		expired := cookie.MaxAge < 0 || (!cookie.Expires.IsZero() && cookie.Expires.Before(time.Now()))
		if expired || cookie.Value == "" {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	return resp
}

func newFormRequest(method, target string, form url.Values) *http.Request {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}
	return req
}

func (c *client) do(method, target string, form url.Values) *http.Response {
	c.t.Helper()
	return c.request(newFormRequest(method, target, form))
}

func (c *client) get(target string) *http.Response {
	return c.do(http.MethodGet, target, nil)
}

// follow requests Location until the response is no longer a redirect and
// returns the final response with its body.
func (c *client) follow(resp *http.Response) (*http.Response, string) {
	c.t.Helper()
	for i := 0; resp.StatusCode == fiber.StatusFound || resp.StatusCode == fiber.StatusSeeOther; i++ {
		require.Less(c.t, i, 5, "too many redirects")
		resp = c.get(resp.Header.Get(fiber.HeaderLocation))
	}
	return resp, readBody(c.t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
