package middleware

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"shoppingtop/internal/apperror"
	"shoppingtop/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "sessionid"
	// LoginURL is where unauthenticated requests are sent.
	LoginURL = "/accounts/login/"

	localUserID   = "user_id"
	localUsername = "username"
)

// SessionRequired is a Fiber middleware that only lets requests with a valid
// session through. Anything else is redirected to the login page with the
// original URL in the "next" query parameter.
func SessionRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := SessionToken(c)
		if token == "" {
			return redirectToLogin(c)
		}

		user, err := authService.Authenticate(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, apperror.ErrUnauthorized) {
				return redirectToLogin(c)
			}
			return err
		}

		// Store the user in Fiber context for subsequent handlers
		c.Locals(localUserID, user.ID)
		c.Locals(localUsername, user.Username)

		return c.Next()
	}
}

// SessionToken returns the token from the session cookie or, failing that,
// from an "Authorization: Bearer <token>" header.
func SessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(SessionCookie); token != "" {
		return token
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func redirectToLogin(c *fiber.Ctx) error {
	return c.Redirect(LoginURL+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
}

// CurrentUserID returns the id of the logged in user, or 0.
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localUserID).(uint)
	return id
}

// CurrentUsername returns the name of the logged in user, or "".
func CurrentUsername(c *fiber.Ctx) string {
	name, _ := c.Locals(localUsername).(string)
	return name
}

// SetSessionCookie stores token in an HttpOnly cookie valid for ttl.
func SetSessionCookie(c *fiber.Ctx, token string, ttl time.Duration, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
