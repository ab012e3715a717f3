package donor

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/names"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/session"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/web"
)

const invalidNameMessage = "Invalid donor name, first and last name cannot be blank."

var errInvalidEntry = errors.New("invalid donor entry")

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Get("/user", h.getMyDonors)
	app.Get("/add", h.getAdd)
	app.Post("/add", h.postAdd)
	app.Post("/add/confirm/:donorId", h.postAddConfirm)
	app.Get("/remove/:donorId/confirm", h.getRemoveConfirm)
	app.Post("/remove/:donorId", h.postRemove)
	app.Get("/edit/:donorId", h.getEdit)
	app.Post("/edit/:donorId", h.postEdit)
}

func (h *Handler) RegisterAdminRoutes(app fiber.Router) {
	app.Get("/donors", h.getDonors)
	app.Get("/donors/edit/:donorId", h.getAdminEdit)
	app.Post("/donors/edit/:donorId", h.postAdminEdit)
	app.Get("/donors/remove/:donorId/confirm", h.getAdminRemoveConfirm)
	app.Post("/donors/remove/:donorId", h.postAdminRemove)
}

func (h *Handler) getMyDonors(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return err
	}

	donors, err := h.service.ListForUser(userID)
	if err != nil {
		return err
	}

	shared := make(map[int][]string, len(donors))
	for _, d := range donors {
		others, err := h.service.OtherTrackingUsers(d.ID, userID)
		if err != nil {
			return err
		}
		shared[d.ID] = others
	}

	return web.Render(c, "user", "My Donors", fiber.Map{"Donors": donors, "Shared": shared})
}

func (h *Handler) getAdd(c *fiber.Ctx) error {
	return web.Render(c, "add", "Add Donor", nil)
}

func (h *Handler) postAdd(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return err
	}

	q, err := queryFromForm(c)
	if err != nil {
		session.Flash(c, invalidNameMessage)
		return c.Redirect("/add", fiber.StatusSeeOther)
	}

	result, err := h.service.Add(q, userID)
	if err != nil {
		return err
	}

	if len(result.Matches) > 1 {
		return web.Render(c, "matches", "Possible Duplicates", fiber.Map{
			"CandidateName": q.FirstName + " " + q.LastName,
			"Matches":       result.Matches,
			"FirstName":     q.FirstName,
			"LastName":      q.LastName,
			"AltNames":      strings.Join(q.AltNames, ", "),
			"Relation":      q.Relation,
		})
	}

	return c.Redirect("/user", fiber.StatusSeeOther)
}

// postAddConfirm completes a disambiguated add. The donor id names the
// match the user picked; "new" adds the candidate as a brand-new donor.
func (h *Handler) postAddConfirm(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return err
	}

	q, err := queryFromForm(c)
	if err != nil {
		session.Flash(c, invalidNameMessage)
		return c.Redirect("/add", fiber.StatusSeeOther)
	}

	param := c.Params("donorId")
	if param == "new" {
		if _, err := h.service.CreateNew(q, userID); err != nil {
			return err
		}
		return c.Redirect("/user", fiber.StatusSeeOther)
	}

	donorID, err := strconv.Atoi(param)
	if err != nil {
		return h.redirectMissingDonor(c, "/user")
	}

	if _, err := h.service.Confirm(donorID, q, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return h.redirectMissingDonor(c, "/user")
		}
		return err
	}

	return c.Redirect("/user", fiber.StatusSeeOther)
}

func (h *Handler) getRemoveConfirm(c *fiber.Ctx) error {
	d, err := h.donorFromParams(c)
	if err != nil {
		return h.redirectMissingDonor(c, "/user")
	}
	return web.Render(c, "remove", "Remove Donor", fiber.Map{"Donor": d})
}

func (h *Handler) postRemove(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return err
	}

	donorID, err := strconv.Atoi(c.Params("donorId"))
	if err != nil {
		return h.redirectMissingDonor(c, "/user")
	}

	if err := h.service.Remove(donorID, userID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	return c.Redirect("/user", fiber.StatusSeeOther)
}

func (h *Handler) getEdit(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return err
	}

	d, err := h.donorFromParams(c)
	if err != nil {
		return h.redirectMissingDonor(c, "/user")
	}

	relation := relationFor(h.service, d.ID, userID)
	return web.Render(c, "edit", "Edit Donor", fiber.Map{"Donor": d, "Relation": relation})
}

func (h *Handler) postEdit(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return err
	}

	d, err := h.donorFromParams(c)
	if err != nil {
		return h.redirectMissingDonor(c, "/user")
	}

	q, err := queryFromForm(c)
	if err != nil {
		session.Flash(c, invalidNameMessage)
		return c.Redirect("/edit/"+c.Params("donorId"), fiber.StatusSeeOther)
	}

	d.FirstName = q.FirstName
	d.LastName = q.LastName
	d.AltNames = q.AltNames

	if err := h.service.EditForUser(d, userID, q.Relation); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	return c.Redirect("/user", fiber.StatusSeeOther)
}

func (h *Handler) getDonors(c *fiber.Ctx) error {
	donors, err := h.service.List()
	if err != nil {
		return err
	}

	tracking := make(map[int][]string, len(donors))
	for _, d := range donors {
		users, err := h.service.TrackingUsers(d.ID)
		if err != nil {
			return err
		}
		tracking[d.ID] = users
	}

	return web.Render(c, "donors", "All Donors", fiber.Map{"Donors": donors, "Tracking": tracking})
}

func (h *Handler) getAdminEdit(c *fiber.Ctx) error {
	d, err := h.donorFromParams(c)
	if err != nil {
		return h.redirectMissingDonor(c, "/donors")
	}
	return web.Render(c, "admin_edit_donor", "Edit Donor", fiber.Map{"Donor": d})
}

func (h *Handler) postAdminEdit(c *fiber.Ctx) error {
	d, err := h.donorFromParams(c)
	if err != nil {
		return h.redirectMissingDonor(c, "/donors")
	}

	q, err := queryFromForm(c)
	if err != nil {
		session.Flash(c, invalidNameMessage)
		return c.Redirect("/donors/edit/"+c.Params("donorId"), fiber.StatusSeeOther)
	}

	d.FirstName = q.FirstName
	d.LastName = q.LastName
	d.AltNames = q.AltNames

	if err := h.service.Edit(d); err != nil {
		return err
	}

	return c.Redirect("/donors", fiber.StatusSeeOther)
}

func (h *Handler) getAdminRemoveConfirm(c *fiber.Ctx) error {
	d, err := h.donorFromParams(c)
	if err != nil {
		return h.redirectMissingDonor(c, "/donors")
	}
	return web.Render(c, "admin_remove_donor", "Remove Donor", fiber.Map{"Donor": d})
}

func (h *Handler) postAdminRemove(c *fiber.Ctx) error {
	donorID, err := strconv.Atoi(c.Params("donorId"))
	if err != nil {
		return h.redirectMissingDonor(c, "/donors")
	}

	if err := h.service.Delete(donorID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	return c.Redirect("/donors", fiber.StatusSeeOther)
}

// queryFromForm validates and normalizes the donor entry form. Reserved
// characters are rejected because the stored alt-name format cannot escape
// them.
func queryFromForm(c *fiber.Ctx) (Query, error) {
	firstName, err := names.Normalize(c.FormValue("first_name"))
	if err != nil {
		return Query{}, errInvalidEntry
	}
	lastName, err := names.Normalize(c.FormValue("last_name"))
	if err != nil {
		return Query{}, errInvalidEntry
	}
	if names.HasReservedChars(firstName) || names.HasReservedChars(lastName) {
		return Query{}, errInvalidEntry
	}

	altNames := names.ParseAltNames(c.FormValue("alt_names"))
	for _, name := range altNames {
		if names.HasReservedChars(name) {
			return Query{}, errInvalidEntry
		}
	}

	return Query{
		FirstName: firstName,
		LastName:  lastName,
		AltNames:  altNames,
		Relation:  strings.TrimSpace(c.FormValue("relation")),
	}, nil
}

func (h *Handler) donorFromParams(c *fiber.Ctx) (Donor, error) {
	id, err := strconv.Atoi(c.Params("donorId"))
	if err != nil {
		return Donor{}, ErrNotFound
	}
	return h.service.GetByID(id)
}

func (h *Handler) redirectMissingDonor(c *fiber.Ctx, location string) error {
	session.Flash(c, "Donor could not be found.")
	return c.Redirect(location, fiber.StatusSeeOther)
}

// relationFor fetches the user's current relation label for the edit form;
// missing links just leave it blank.
func relationFor(s *Service, donorID, userID int) string {
	donors, err := s.ListForUser(userID)
	if err != nil {
		return ""
	}
	for _, d := range donors {
		if d.ID == donorID {
			return d.Relation
		}
	}
	return ""
}
