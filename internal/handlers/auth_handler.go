package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mauromolina/mmovienight-sub000/internal/httpx"
	"github.com/mauromolina/mmovienight-sub000/internal/middleware"
	"github.com/mauromolina/mmovienight-sub000/internal/service"
)

const refreshCookie = "mn_refresh"

type AuthHandler struct {
	authService  *service.AuthService
	cookieSecure bool
}

func NewAuthHandler(authService *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{authService: authService, cookieSecure: cookieSecure}
}

// CSRF issues the double-submit token browsers echo in X-MN-CSRF.
func (h *AuthHandler) CSRF(c *fiber.Ctx) error {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return httpx.Internal(c, "csrf_failed")
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CSRFCookie,
		Value:    token,
		Path:     "/",
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return httpx.OK(c, fiber.Map{"csrf_token": token})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input service.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	session, err := h.authService.Register(c.UserContext(), input)
	if err != nil {
		return fail(c, err, "register_failed")
	}
	h.setSessionCookies(c, session)
	return httpx.Created(c, sessionBody(session))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input service.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.Email == "" || input.Password == "" {
		return httpx.BadRequest(c, "missing_credentials", "Email and password are required")
	}

	session, err := h.authService.Login(c.UserContext(), input)
	if err != nil {
		return fail(c, err, "login_failed")
	}
	h.setSessionCookies(c, session)
	return httpx.OK(c, sessionBody(session))
}

// Refresh reads the refresh token from the cookie or the JSON body.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := c.Cookies(refreshCookie)
	if token == "" {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = c.BodyParser(&body)
		token = body.RefreshToken
	}

	session, err := h.authService.RefreshSession(c.UserContext(), token)
	if err != nil {
		h.clearSessionCookies(c)
		return fail(c, err, "refresh_failed")
	}
	h.setSessionCookies(c, session)
	return httpx.OK(c, sessionBody(session))
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := c.Cookies(refreshCookie)
	if token == "" {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = c.BodyParser(&body)
		token = body.RefreshToken
	}
	if err := h.authService.Logout(c.UserContext(), token); err != nil {
		return fail(c, err, "logout_failed")
	}
	h.clearSessionCookies(c)
	return httpx.OK(c, nil)
}

func sessionBody(s *service.AuthSession) fiber.Map {
	return fiber.Map{
		"user":               s.User,
		"access_token":       s.AccessToken,
		"access_expires_at":  s.AccessExpiresAt,
		"refresh_token":      s.RefreshToken,
		"refresh_expires_at": s.RefreshExpiresAt,
	}
}

func (h *AuthHandler) setSessionCookies(c *fiber.Ctx, s *service.AuthSession) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessCookie,
		Value:    s.AccessToken,
		Path:     "/",
		Expires:  s.AccessExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    s.RefreshToken,
		Path:     "/api/auth",
		Expires:  s.RefreshExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (h *AuthHandler) clearSessionCookies(c *fiber.Ctx) {
	expired := time.Unix(0, 0)
	c.Cookie(&fiber.Cookie{Name: middleware.AccessCookie, Value: "", Path: "/", Expires: expired, HTTPOnly: true, Secure: h.cookieSecure})
	c.Cookie(&fiber.Cookie{Name: refreshCookie, Value: "", Path: "/api/auth", Expires: expired, HTTPOnly: true, Secure: h.cookieSecure})
}
