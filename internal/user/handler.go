package user

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/session"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/web"
)

type Handler struct {
	service  *Service
	sessions *session.Manager
}

func NewHandler(service *Service, sessions *session.Manager) *Handler {
	return &Handler{service: service, sessions: sessions}
}

func (h *Handler) RegisterPublicRoutes(app fiber.Router) {
	app.Get("/signin", h.getSignin)
	app.Post("/signin", h.postSignin)
	app.Get("/signout", h.getSignout)
	app.Get("/signup", h.getSignup)
	app.Post("/signup", h.postSignup)
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Get("/profile", h.getProfile)
	app.Get("/profile/edit", h.getProfileEdit)
	app.Post("/profile/edit", h.postProfileEdit)
	app.Get("/profile/reset-pass", h.getResetPass)
	app.Post("/profile/reset-pass", h.postResetPass)
}

func (h *Handler) RegisterAdminRoutes(app fiber.Router) {
	app.Get("/users", h.getUsers)
	app.Get("/users/edit/:userId", h.getAdminEdit)
	app.Post("/users/edit/:userId", h.postAdminEdit)
	app.Get("/users/reset-pass/:userId", h.getAdminResetPass)
	app.Get("/users/remove/:userId/confirm", h.getAdminRemoveConfirm)
	app.Post("/users/remove/:userId", h.postAdminRemove)
}

func (h *Handler) getSignin(c *fiber.Ctx) error {
	return web.Render(c, "signin", "Sign In", nil)
}

func (h *Handler) postSignin(c *fiber.Ctx) error {
	if h.sessions.SignedIn(c) {
		return c.Redirect("/user", fiber.StatusSeeOther)
	}

	email := c.FormValue("username")
	password := c.FormValue("password")

	u, err := h.service.Authenticate(email, password)
	if err != nil {
		session.Flash(c, "Invalid signin. Please try again.")
		return c.Redirect("/signin", fiber.StatusSeeOther)
	}

	if err := h.sessions.SignIn(c, u.ID, u.Email, u.Admin); err != nil {
		return err
	}
	return c.Redirect("/user", fiber.StatusSeeOther)
}

func (h *Handler) getSignout(c *fiber.Ctx) error {
	h.sessions.SignOut(c)
	return c.Redirect("/signin", fiber.StatusSeeOther)
}

func (h *Handler) getSignup(c *fiber.Ctx) error {
	return web.Render(c, "signup", "Sign Up", nil)
}

func (h *Handler) postSignup(c *fiber.Ctx) error {
	u, err := h.service.Register(
		c.FormValue("first_name"),
		c.FormValue("last_name"),
		c.FormValue("email"),
		c.FormValue("password"),
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailExists):
			session.Flash(c, "Email is already used for another user profile.")
		default:
			session.Flash(c, "First and last name cannot be blank.")
		}
		return c.Redirect("/signup", fiber.StatusSeeOther)
	}

	if err := h.sessions.SignIn(c, u.ID, u.Email, u.Admin); err != nil {
		return err
	}
	return c.Redirect("/user", fiber.StatusSeeOther)
}

func (h *Handler) getProfile(c *fiber.Ctx) error {
	u, err := h.currentUser(c)
	if err != nil {
		return err
	}
	return web.Render(c, "profile", "Profile", fiber.Map{"User": u})
}

func (h *Handler) getProfileEdit(c *fiber.Ctx) error {
	u, err := h.currentUser(c)
	if err != nil {
		return err
	}
	return web.Render(c, "profile_edit", "Edit Profile", fiber.Map{"User": u})
}

func (h *Handler) postProfileEdit(c *fiber.Ctx) error {
	u, err := h.currentUser(c)
	if err != nil {
		return err
	}

	u.FirstName = c.FormValue("first_name")
	u.LastName = c.FormValue("last_name")
	u.Email = c.FormValue("username")

	if err := h.service.Update(u); err != nil {
		session.Flash(c, "First and last name cannot be blank.")
		return c.Redirect("/profile/edit", fiber.StatusSeeOther)
	}

	// email may have changed; refresh the session identity
	if err := h.sessions.SignIn(c, u.ID, u.Email, u.Admin); err != nil {
		return err
	}

	session.FlashSuccess(c, "User has been updated.")
	return c.Redirect("/profile", fiber.StatusSeeOther)
}

func (h *Handler) getResetPass(c *fiber.Ctx) error {
	return web.Render(c, "reset_pass", "Change Password", nil)
}

func (h *Handler) postResetPass(c *fiber.Ctx) error {
	u, err := h.currentUser(c)
	if err != nil {
		return err
	}

	current := c.FormValue("current_password")
	newPassword := c.FormValue("new_password")
	confirm := c.FormValue("confirm_password")

	if _, err := h.service.Authenticate(u.Email, current); err != nil {
		session.Flash(c, "Current password is incorrect.")
		return c.Redirect("/profile/reset-pass", fiber.StatusSeeOther)
	}
	if newPassword != confirm {
		session.Flash(c, "New passwords do not match.")
		return c.Redirect("/profile/reset-pass", fiber.StatusSeeOther)
	}

	if err := h.service.ResetPassword(u.ID, newPassword); err != nil {
		return err
	}

	session.FlashSuccess(c, "Password has been reset.")
	return c.Redirect("/profile", fiber.StatusSeeOther)
}

func (h *Handler) getUsers(c *fiber.Ctx) error {
	users, err := h.service.List()
	if err != nil {
		return err
	}
	return web.Render(c, "users", "Users", fiber.Map{"Users": users})
}

func (h *Handler) getAdminEdit(c *fiber.Ctx) error {
	u, err := h.userFromParams(c)
	if err != nil {
		return h.redirectMissingUser(c)
	}
	return web.Render(c, "admin_edit_user", "Edit User", fiber.Map{"User": u})
}

func (h *Handler) postAdminEdit(c *fiber.Ctx) error {
	u, err := h.userFromParams(c)
	if err != nil {
		return h.redirectMissingUser(c)
	}

	u.FirstName = c.FormValue("first_name")
	u.LastName = c.FormValue("last_name")
	u.Email = c.FormValue("username")
	u.Active = c.FormValue("active") == "on"
	u.Admin = c.FormValue("admin") == "on"

	if err := h.service.Update(u); err != nil {
		session.Flash(c, "First and last name cannot be blank.")
		return c.Redirect("/users/edit/"+c.Params("userId"), fiber.StatusSeeOther)
	}

	session.FlashSuccess(c, "User has been updated.")
	return c.Redirect("/users", fiber.StatusSeeOther)
}

func (h *Handler) getAdminResetPass(c *fiber.Ctx) error {
	u, err := h.userFromParams(c)
	if err != nil {
		return h.redirectMissingUser(c)
	}

	password := h.service.GeneratePassword()
	if err := h.service.ResetPassword(u.ID, password); err != nil {
		return err
	}

	session.FlashSuccess(c, "User's password has been reset to "+password+".")
	return c.Redirect("/users", fiber.StatusSeeOther)
}

func (h *Handler) getAdminRemoveConfirm(c *fiber.Ctx) error {
	u, err := h.userFromParams(c)
	if err != nil {
		return h.redirectMissingUser(c)
	}
	return web.Render(c, "admin_remove_user", "Remove User", fiber.Map{"User": u})
}

func (h *Handler) postAdminRemove(c *fiber.Ctx) error {
	u, err := h.userFromParams(c)
	if err != nil {
		return h.redirectMissingUser(c)
	}

	if err := h.service.Delete(u.ID); err != nil {
		return err
	}

	session.FlashSuccess(c, "User has been deleted.")
	return c.Redirect("/users", fiber.StatusSeeOther)
}

func (h *Handler) currentUser(c *fiber.Ctx) (User, error) {
	id, err := session.UserID(c)
	if err != nil {
		return User{}, err
	}
	return h.service.GetByID(id)
}

func (h *Handler) userFromParams(c *fiber.Ctx) (User, error) {
	id, err := strconv.Atoi(c.Params("userId"))
	if err != nil {
		return User{}, ErrNotFound
	}
	return h.service.GetByID(id)
}

func (h *Handler) redirectMissingUser(c *fiber.Ctx) error {
	session.Flash(c, "User could not be found.")
	return c.Redirect("/users", fiber.StatusSeeOther)
}
