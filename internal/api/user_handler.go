package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"warbler/internal/model"
	"warbler/internal/service"
)

type UserHandler struct {
	userService    service.UserService
	messageService service.MessageService
	sessions       *Sessions
}

func NewUserHandler(userService service.UserService, messageService service.MessageService, sessions *Sessions) *UserHandler {
	return &UserHandler{
		userService:    userService,
		messageService: messageService,
		sessions:       sessions,
	}
}

type EditProfileRequest struct {
	Username       string `form:"username"`
	Email          string `form:"email"`
	ImageURL       string `form:"image_url"`
	HeaderImageURL string `form:"header_image_url"`
	Bio            string `form:"bio"`
	Password       string `form:"password"`
}

func (r EditProfileRequest) values() map[string]string {
	return map[string]string{
		"username":         r.Username,
		"email":            r.Email,
		"image_url":        r.ImageURL,
		"header_image_url": r.HeaderImageURL,
		"bio":              r.Bio,
	}
}

func profileValues(user *model.User) map[string]string {
	bio := ""
	if user.Bio != nil {
		bio = *user.Bio
	}
	return EditProfileRequest{
		Username:       user.Username,
		Email:          user.Email,
		ImageURL:       user.ImageURL,
		HeaderImageURL: user.HeaderImageURL,
		Bio:            bio,
	}.values()
}

func paramID(c *fiber.Ctx, key string) (int64, error) {
	id, err := c.ParamsInt(key)
	if err != nil {
		return 0, fiber.ErrNotFound
	}
	return int64(id), nil
}

// viewerSets returns the follow and like sets of the current user, empty
// for anonymous requests.
func (h *UserHandler) viewerSets(c *fiber.Ctx) (following, liked map[int64]bool, err error) {
	current := CurrentUser(c)
	if current == nil {
		return nil, nil, nil
	}
	following, err = h.userService.FollowingIDs(c.UserContext(), current.ID)
	if err != nil {
		return nil, nil, err
	}
	liked, err = h.messageService.LikedMessageIDs(c.UserContext(), current.ID)
	if err != nil {
		return nil, nil, err
	}
	return following, liked, nil
}

func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userService.SearchUsers(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	following, _, err := h.viewerSets(c)
	if err != nil {
		return err
	}
	return render(c, h.sessions, fiber.StatusOK, "users_index", Page{Users: users, Following: following})
}

func (h *UserHandler) ShowUser(c *fiber.Ctx) error {
	return h.profilePage(c, "users_show", "", h.userService.ShowUser)
}

func (h *UserHandler) Following(c *fiber.Ctx) error {
	return h.profilePage(c, "users_list", "Following", h.userService.FollowingPage)
}

func (h *UserHandler) Followers(c *fiber.Ctx) error {
	return h.profilePage(c, "users_list", "Followers", h.userService.FollowersPage)
}

func (h *UserHandler) Likes(c *fiber.Ctx) error {
	return h.profilePage(c, "users_show", "Likes", h.userService.LikesPage)
}

func (h *UserHandler) profilePage(c *fiber.Ctx, name, title string, load func(ctx context.Context, id int64) (*model.UserPage, error)) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	page, err := load(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return renderNotFound(c, h.sessions, "User not found")
		}
		return err
	}

	following, liked, err := h.viewerSets(c)
	if err != nil {
		return err
	}

	return render(c, h.sessions, fiber.StatusOK, name, Page{
		Title:     title,
		Page:      page,
		Messages:  page.Messages,
		Users:     page.Users,
		Following: following,
		Liked:     liked,
	})
}

func (h *UserHandler) EditProfileForm(c *fiber.Ctx) error {
	return render(c, h.sessions, fiber.StatusOK, "users_edit", Page{Form: profileValues(CurrentUser(c))})
}

func (h *UserHandler) EditProfile(c *fiber.Ctx) error {
	var request EditProfileRequest
	if err := c.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse form")
	}

	current := CurrentUser(c)
	user, err := h.userService.EditProfile(c.UserContext(), current, service.EditProfileInput{
		Username:       request.Username,
		Email:          request.Email,
		ImageURL:       request.ImageURL,
		HeaderImageURL: request.HeaderImageURL,
		Bio:            request.Bio,
	}, request.Password)
	if err != nil {
		data := Page{Form: request.values()}
		switch {
		case errors.Is(err, service.ErrInvalidPassword):
			data.Flash = &Flash{Category: flashDanger, Message: "Invalid password, please try again."}
			return render(c, h.sessions, fiber.StatusUnauthorized, "users_edit", data)
		case errors.Is(err, service.ErrUsernameTaken):
			data.Flash = &Flash{Category: flashDanger, Message: "Username already taken"}
			return render(c, h.sessions, fiber.StatusConflict, "users_edit", data)
		case errors.Is(err, service.ErrEmailTaken):
			data.Flash = &Flash{Category: flashDanger, Message: "Email already taken"}
			return render(c, h.sessions, fiber.StatusConflict, "users_edit", data)
		}
		if fields, ok := fieldErrors(err); ok {
			data.Errors = fields
			return render(c, h.sessions, fiber.StatusBadRequest, "users_edit", data)
		}
		return err
	}

	if err := h.sessions.Flash(c, flashSuccess, "Successfully updated user information"); err != nil {
		return err
	}
	return c.Redirect(fmt.Sprintf("/users/%d", user.ID))
}

func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.userService.DeleteUser(c.UserContext(), CurrentUser(c)); err != nil {
		return err
	}
	if err := h.sessions.Logout(c); err != nil {
		return err
	}
	if err := h.sessions.Flash(c, flashSuccess, "User delete. We hope to see you again!"); err != nil {
		return err
	}
	return c.Redirect("/signup")
}

func (h *UserHandler) Follow(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	current := CurrentUser(c)
	target, err := h.userService.Follow(c.UserContext(), current, id)
	if err != nil {
		return h.followFailed(c, err)
	}

	if err := h.sessions.Flash(c, flashSuccess, "You are now following "+target.Username); err != nil {
		return err
	}
	return c.Redirect(fmt.Sprintf("/users/%d/following", current.ID))
}

func (h *UserHandler) StopFollowing(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	current := CurrentUser(c)
	if _, err := h.userService.StopFollowing(c.UserContext(), current, id); err != nil {
		return h.followFailed(c, err)
	}

	if err := h.sessions.Flash(c, flashSuccess, "Successfully stopped following user"); err != nil {
		return err
	}
	return c.Redirect(fmt.Sprintf("/users/%d/following", current.ID))
}

func (h *UserHandler) followFailed(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSelfFollow):
		if err := h.sessions.Flash(c, flashDanger, "You cannot follow yourself"); err != nil {
			return err
		}
		return c.Redirect(fmt.Sprintf("/users/%d", CurrentUser(c).ID))
	case errors.Is(err, service.ErrUserNotFound):
		return renderNotFound(c, h.sessions, "User not found")
	}
	return err
}
