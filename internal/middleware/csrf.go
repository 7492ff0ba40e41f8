package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mauromolina/mmovienight-sub000/internal/httpx"
)

const (
	CSRFCookie = "mn_csrf"
	CSRFHeader = "X-MN-CSRF"
)

const (
	csrfModeToken  = "token"
	csrfModeOrigin = "origin"
	csrfModeOff    = "off"
)

// CSRFRequired guards state-changing requests made with cookie credentials.
// Mode "token" (default) checks the Origin allow-list and requires the
// X-MN-CSRF header to equal the mn_csrf cookie. Mode "origin" checks only the
// allow-list and "off" disables the check. Requests without an Origin header
// come from non-browser clients and pass.
func CSRFRequired(mode, origins string) fiber.Handler {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = csrfModeToken
	}
	allowed := parseOrigins(origins)

	return func(c *fiber.Ctx) error {
		if mode == csrfModeOff || isSafeMethod(c.Method()) {
			return c.Next()
		}

		origin := strings.TrimSpace(c.Get(fiber.HeaderOrigin))
		if origin == "" {
			return c.Next()
		}
		if !allowed.allows(origin) {
			return httpx.Forbidden(c, "forbidden_origin", "Origin not allowed")
		}
		if mode == csrfModeOrigin {
			return c.Next()
		}

		cookie, header := c.Cookies(CSRFCookie), c.Get(CSRFHeader)
		switch {
		case cookie == "" || header == "":
			return httpx.Forbidden(c, "csrf_required", "Missing CSRF token")
		case subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1:
			return httpx.Forbidden(c, "csrf_invalid", "Invalid CSRF token")
		}
		return c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return true
	}
	return false
}
