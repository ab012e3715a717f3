// Package session implements cookie-borne signed sessions and the one-shot
// flash messages carried between redirects.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	CookieName = "session"

	flashErrorCookie   = "flash"
	flashSuccessCookie = "flash_success"

	sessionTTL = 72 * time.Hour
)

// NewSecret returns the configured signing secret, or a fresh random one so
// sessions never outlive the process by default.
func NewSecret(configured string) []byte {
	if configured != "" {
		return []byte(configured)
	}

	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return []byte(hex.EncodeToString(buf))
}

// Manager issues and verifies session tokens.
type Manager struct {
	secret []byte
}

func NewManager(secret []byte) *Manager {
	return &Manager{secret: secret}
}

// SignIn stores the user's identity in a signed session cookie.
func (m *Manager) SignIn(c *fiber.Ctx, userID int, email string, admin bool) error {
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"admin":   admin,
		"jti":     uuid.NewString(),
		"exp":     time.Now().Add(sessionTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  time.Now().Add(sessionTTL),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return nil
}

// SignOut clears the session cookie.
func (m *Manager) SignOut(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// Middleware authenticates requests off the session cookie. Signed-out
// visitors are redirected to the signin page rather than handed a 401.
func (m *Manager) Middleware() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  m.secret,
		TokenLookup: "cookie:" + CookieName,
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			return c.Redirect("/signin", fiber.StatusSeeOther)
		},
	})
}

// SignedIn reports whether the request carries a valid session cookie.
// Public routes sit in front of the verification middleware, so this parses
// the cookie itself.
func (m *Manager) SignedIn(c *fiber.Ctx) bool {
	raw := c.Cookies(CookieName)
	if raw == "" {
		return false
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	return err == nil && token.Valid
}

// UserID extracts the signed-in user's id from the verified session token
// in ctx locals.
func UserID(c *fiber.Ctx) (int, error) {
	claims, err := tokenClaims(c)
	if err != nil {
		return 0, err
	}

	switch v := claims["user_id"].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, fiber.ErrUnauthorized
		}
		return id, nil
	default:
		return 0, fiber.ErrUnauthorized
	}
}

// Email returns the signed-in user's email, or "" when signed out.
func Email(c *fiber.Ctx) string {
	claims, err := tokenClaims(c)
	if err != nil {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}

// IsAdmin reports whether the session belongs to an admin user.
func IsAdmin(c *fiber.Ctx) bool {
	claims, err := tokenClaims(c)
	if err != nil {
		return false
	}
	admin, _ := claims["admin"].(bool)
	return admin
}

// RequireAdmin gates admin-only routes. Non-admins get the generic
// not-found treatment, not a hint that the page exists.
func RequireAdmin(c *fiber.Ctx) error {
	if !IsAdmin(c) {
		Flash(c, "The page you requested does not exist.")
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.Next()
}

func tokenClaims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// Flash queues a one-shot error message for the next rendered page.
func Flash(c *fiber.Ctx, message string) {
	setFlash(c, flashErrorCookie, message)
}

// FlashSuccess queues a one-shot success message for the next rendered page.
func FlashSuccess(c *fiber.Ctx, message string) {
	setFlash(c, flashSuccessCookie, message)
}

// PopFlash returns and clears any queued messages.
func PopFlash(c *fiber.Ctx) (errorMsg, successMsg string) {
	return popCookie(c, flashErrorCookie), popCookie(c, flashSuccessCookie)
}

func setFlash(c *fiber.Ctx, name, message string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    url.QueryEscape(message),
		Path:     "/",
		Expires:  time.Now().Add(5 * time.Minute),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

func popCookie(c *fiber.Ctx, name string) string {
	value := c.Cookies(name)
	if value == "" {
		return ""
	}

	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return value
	}
	return decoded
}
