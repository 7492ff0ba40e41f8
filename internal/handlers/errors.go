package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mauromolina/mmovienight-sub000/internal/httpx"
	"github.com/mauromolina/mmovienight-sub000/internal/logger"
	"github.com/mauromolina/mmovienight-sub000/internal/service"
	"github.com/sirupsen/logrus"
)

// fail maps a service error onto the HTTP error envelope. Unknown errors are
// logged and reported as 500 with the given code.
func fail(c *fiber.Ctx, err error, code string) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return httpx.Invalid(c, verr.Fields)
	case errors.Is(err, service.ErrNotMember):
		return httpx.Forbidden(c, "not_member", service.ErrNotMember.Error())
	case errors.Is(err, service.ErrForbidden):
		return httpx.Forbidden(c, "forbidden", service.ErrForbidden.Error())
	case errors.Is(err, service.ErrOwnerCannotLeave):
		return httpx.Conflict(c, "owner_cannot_leave", service.ErrOwnerCannotLeave.Error())
	case errors.Is(err, service.ErrConflict):
		return httpx.Conflict(c, "conflict", err.Error())
	case errors.Is(err, service.ErrInvalidCode):
		return httpx.NotFound(c, "invalid_code", service.ErrInvalidCode.Error())
	case errors.Is(err, service.ErrNotFound):
		return httpx.NotFound(c, "not_found", err.Error())
	case errors.Is(err, service.ErrMovieUnavailable):
		return httpx.Error(c, fiber.StatusBadGateway, "movie_unavailable", service.ErrMovieUnavailable.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return httpx.Unauthorized(c, "invalid_credentials", service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrInvalidToken):
		return httpx.Unauthorized(c, "invalid_token", service.ErrInvalidToken.Error())
	case errors.Is(err, service.ErrStorageNotConfigured):
		return httpx.Unavailable(c, "storage_not_configured", "Storage not configured")
	}

	logger.Get().WithError(err).WithFields(logrus.Fields{
		"path":   c.Path(),
		"method": c.Method(),
		"code":   code,
	}).Error("request failed")
	return httpx.Internal(c, code)
}

func unauthorized(c *fiber.Ctx) error {
	return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
}
