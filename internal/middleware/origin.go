package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mauromolina/mmovienight-sub000/internal/httpx"
)

// originList is a parsed ALLOWED_ORIGINS value. Entries are compared without
// a trailing slash and case-insensitively; "*" admits any origin.
type originList struct {
	any     bool
	origins map[string]struct{}
}

func parseOrigins(csv string) originList {
	list := originList{origins: make(map[string]struct{})}
	for _, part := range strings.Split(csv, ",") {
		o := normalizeOrigin(part)
		switch o {
		case "":
		case "*":
			list.any = true
		default:
			list.origins[o] = struct{}{}
		}
	}
	return list
}

func normalizeOrigin(o string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
}

// restricted reports whether an allow-list was configured at all.
func (l originList) restricted() bool {
	return !l.any && len(l.origins) > 0
}

func (l originList) allows(origin string) bool {
	if !l.restricted() {
		return true
	}
	_, ok := l.origins[normalizeOrigin(origin)]
	return ok
}

// OriginAllowed rejects browser requests from origins outside the allow-list.
// Requests without an Origin header pass.
func OriginAllowed(origins string) fiber.Handler {
	allowed := parseOrigins(origins)
	return func(c *fiber.Ctx) error {
		origin := strings.TrimSpace(c.Get(fiber.HeaderOrigin))
		if origin != "" && !allowed.allows(origin) {
			return httpx.Forbidden(c, "forbidden_origin", "Origin not allowed")
		}
		return c.Next()
	}
}
