package donor

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(repo *InMemoryRepository, userID int) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{
			"user_id": float64(userID),
			"email":   "tester@example.com",
			"admin":   false,
		}})
		return c.Next()
	})
	NewHandler(NewService(repo)).RegisterProtectedRoutes(app)
	return app
}

func postDonorForm(t *testing.T, app *fiber.App, path string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodedCookie(t *testing.T, resp *http.Response, name string) string {
	t.Helper()
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name && cookie.Value != "" {
			decoded, err := url.QueryUnescape(cookie.Value)
			require.NoError(t, err)
			return decoded
		}
	}
	return ""
}

func TestPostAddNewDonorRedirects(t *testing.T) {
	repo := NewInMemoryRepository(nil, nil)
	app := newTestApp(repo, 7)

	resp := postDonorForm(t, app, "/add", url.Values{
		"first_name": {"bob"},
		"last_name":  {"smith"},
		"alt_names":  {"Robert, Bobby"},
		"relation":   {"friend"},
	})

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/user", resp.Header.Get(fiber.HeaderLocation))

	donors, err := repo.ListForUser(7)
	require.NoError(t, err)
	require.Len(t, donors, 1)
	assert.Equal(t, "Bob", donors[0].FirstName)
	assert.Equal(t, "Smith", donors[0].LastName)
	assert.Equal(t, []string{"Robert", "Bobby"}, donors[0].AltNames)
	assert.Equal(t, "friend", donors[0].Relation)
}

func TestPostAddBlankNameWritesNothing(t *testing.T) {
	repo := NewInMemoryRepository(nil, nil)
	app := newTestApp(repo, 7)

	resp := postDonorForm(t, app, "/add", url.Values{
		"first_name": {"   "},
		"last_name":  {"Smith"},
	})

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/add", resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, invalidNameMessage, decodedCookie(t, resp, "flash"))

	donors, err := repo.List()
	require.NoError(t, err)
	assert.Empty(t, donors)
}

func TestPostAddReservedCharactersRejected(t *testing.T) {
	repo := NewInMemoryRepository(nil, nil)
	app := newTestApp(repo, 7)

	resp := postDonorForm(t, app, "/add", url.Values{
		"first_name": {"Bob{"},
		"last_name":  {"Smith"},
	})

	assert.Equal(t, "/add", resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, invalidNameMessage, decodedCookie(t, resp, "flash"))
}

func TestPostAddSingleMatchMergesAndRedirects(t *testing.T) {
	repo := NewInMemoryRepository([]Donor{
		{ID: 1, FirstName: "Robert", LastName: "Smith", AltNames: []string{}},
	}, nil)
	app := newTestApp(repo, 7)

	resp := postDonorForm(t, app, "/add", url.Values{
		"first_name": {"Bob"},
		"last_name":  {"Smith"},
		"alt_names":  {"Robert"},
		"relation":   {"uncle"},
	})

	assert.Equal(t, "/user", resp.Header.Get(fiber.HeaderLocation))

	d, err := repo.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "Robert", d.FirstName)
	assert.Equal(t, []string{"Bob"}, d.AltNames)

	donors, err := repo.ListForUser(7)
	require.NoError(t, err)
	require.Len(t, donors, 1)
	assert.Equal(t, "uncle", donors[0].Relation)
}

func TestPostAddAmbiguousRendersMatchesPage(t *testing.T) {
	repo := NewInMemoryRepository([]Donor{
		{ID: 1, FirstName: "Robert", LastName: "Smith", AltNames: []string{"Bob"}},
		{ID: 2, FirstName: "Roberta", LastName: "Smith", AltNames: []string{"Bob"}},
	}, nil)
	app := newTestApp(repo, 7)

	resp := postDonorForm(t, app, "/add", url.Values{
		"first_name": {"Bob"},
		"last_name":  {"Smith"},
	})

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	page := string(body)
	assert.Contains(t, page, "Robert Smith")
	assert.Contains(t, page, "Roberta Smith")
	assert.Contains(t, page, "/add/confirm/new")

	// nothing is written until the user picks
	donors, err := repo.ListForUser(7)
	require.NoError(t, err)
	assert.Empty(t, donors)
}

func TestPostAddConfirmMergesChosenDonor(t *testing.T) {
	repo := NewInMemoryRepository([]Donor{
		{ID: 1, FirstName: "Robert", LastName: "Smith", AltNames: []string{"Bob"}},
		{ID: 2, FirstName: "Roberta", LastName: "Smith", AltNames: []string{"Bob"}},
	}, nil)
	app := newTestApp(repo, 7)

	resp := postDonorForm(t, app, "/add/confirm/2", url.Values{
		"first_name": {"Bob"},
		"last_name":  {"Smith"},
		"relation":   {"aunt"},
	})

	assert.Equal(t, "/user", resp.Header.Get(fiber.HeaderLocation))

	d, err := repo.GetByID(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, d.AltNames)

	donors, err := repo.ListForUser(7)
	require.NoError(t, err)
	require.Len(t, donors, 1)
	assert.Equal(t, 2, donors[0].ID)
	assert.Equal(t, "aunt", donors[0].Relation)
}

func TestPostAddConfirmNewCreatesSeparateDonor(t *testing.T) {
	repo := NewInMemoryRepository([]Donor{
		{ID: 1, FirstName: "Robert", LastName: "Smith", AltNames: []string{"Bob"}},
	}, nil)
	app := newTestApp(repo, 7)

	resp := postDonorForm(t, app, "/add/confirm/new", url.Values{
		"first_name": {"Bob"},
		"last_name":  {"Smith"},
		"relation":   {"neighbor"},
	})

	assert.Equal(t, "/user", resp.Header.Get(fiber.HeaderLocation))

	donors, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, donors, 2)
}

func TestPostAddConfirmMissingDonor(t *testing.T) {
	repo := NewInMemoryRepository(nil, nil)
	app := newTestApp(repo, 7)

	resp := postDonorForm(t, app, "/add/confirm/99", url.Values{
		"first_name": {"Bob"},
		"last_name":  {"Smith"},
	})

	assert.Equal(t, "/user", resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, "Donor could not be found.", decodedCookie(t, resp, "flash"))
}

func TestPostRemoveUnlinksOnly(t *testing.T) {
	repo := NewInMemoryRepository([]Donor{
		{ID: 1, FirstName: "Robert", LastName: "Smith", AltNames: []string{}},
	}, nil)
	require.NoError(t, repo.Link(1, 7, "friend"))
	app := newTestApp(repo, 7)

	resp := postDonorForm(t, app, "/remove/1", url.Values{})

	assert.Equal(t, "/user", resp.Header.Get(fiber.HeaderLocation))

	donors, err := repo.ListForUser(7)
	require.NoError(t, err)
	assert.Empty(t, donors)

	_, err = repo.GetByID(1)
	assert.NoError(t, err, "donor record should survive removal from a list")
}

func TestPostEditUpdatesDonorAndRelation(t *testing.T) {
	repo := NewInMemoryRepository([]Donor{
		{ID: 1, FirstName: "Robert", LastName: "Smith", AltNames: []string{"Bob"}},
	}, nil)
	require.NoError(t, repo.Link(1, 7, "friend"))
	app := newTestApp(repo, 7)

	resp := postDonorForm(t, app, "/edit/1", url.Values{
		"first_name": {"Rob"},
		"last_name":  {"Smithe"},
		"alt_names":  {"Robert, Bob"},
		"relation":   {"cousin"},
	})

	assert.Equal(t, "/user", resp.Header.Get(fiber.HeaderLocation))

	donors, err := repo.ListForUser(7)
	require.NoError(t, err)
	require.Len(t, donors, 1)
	assert.Equal(t, "Rob", donors[0].FirstName)
	assert.Equal(t, "Smithe", donors[0].LastName)
	assert.Equal(t, []string{"Robert", "Bob"}, donors[0].AltNames)
	assert.Equal(t, "cousin", donors[0].Relation)
}

func TestGetMyDonorsShowsSharedTrackers(t *testing.T) {
	repo := NewInMemoryRepository([]Donor{
		{ID: 1, FirstName: "Robert", LastName: "Smith", AltNames: []string{}},
	}, map[int]string{7: "Jenny T", 8: "Sam W"})
	require.NoError(t, repo.Link(1, 7, "friend"))
	require.NoError(t, repo.Link(1, 8, "coworker"))
	app := newTestApp(repo, 7)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/user", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	page := string(body)
	assert.Contains(t, page, "Robert Smith")
	assert.Contains(t, page, "Sam W")
	assert.NotContains(t, page, "Jenny T", "the requesting user is not listed as a sharer")
}
