// Package web renders the embedded HTML views.
package web

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"signin",
	"signup",
	"user",
	"add",
	"matches",
	"remove",
	"edit",
	"profile",
	"profile_edit",
	"reset_pass",
	"users",
	"admin_edit_user",
	"admin_remove_user",
	"donors",
	"admin_edit_donor",
	"admin_remove_donor",
}

var templates = parseTemplates()

func parseTemplates() map[string]*template.Template {
	parsed := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		parsed[name] = template.Must(template.ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		))
	}
	return parsed
}

// Page is the data handed to every view.
type Page struct {
	Title    string
	Error    string
	Success  string
	Email    string
	Admin    bool
	SignedIn bool
	Data     any
}

// Render writes the named page wrapped in the shared layout, injecting any
// queued flash messages and the signed-in user's identity.
func Render(c *fiber.Ctx, name, title string, data any) error {
	tmpl, ok := templates[name]
	if !ok {
		return fiber.ErrNotFound
	}

	errorMsg, successMsg := session.PopFlash(c)
	email := session.Email(c)
	page := Page{
		Title:    title,
		Error:    errorMsg,
		Success:  successMsg,
		Email:    email,
		Admin:    session.IsAdmin(c),
		SignedIn: email != "",
		Data:     data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}
