package handlers

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mauromolina/mmovienight-sub000/internal/httpx"
	"github.com/mauromolina/mmovienight-sub000/internal/logger"
	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/storage"
	"github.com/sirupsen/logrus"
)

// ObjectReader is the read side of *storage.S3Storage.
type ObjectReader interface {
	GetObject(ctx context.Context, key string) (io.ReadCloser, storage.ObjectStat, error)
}

type MediaHandler struct {
	objects ObjectReader
}

func NewMediaHandler(objects ObjectReader) *MediaHandler {
	return &MediaHandler{objects: objects}
}

func normalizeETag(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, "\"")
	return v
}

// Get streams an uploaded avatar, banner or cover with ETag revalidation.
func (h *MediaHandler) Get(c *fiber.Ctx) error {
	if h.objects == nil {
		return httpx.Unavailable(c, "storage_not_configured", "Storage not configured")
	}

	key, err := storage.SafeObjectKey(strings.TrimSpace(c.Params("*")))
	if err != nil {
		return httpx.NotFound(c, "not_found", "Not found")
	}

	log := logger.Get().WithField("key", key)
	obj, st, err := h.objects.GetObject(c.UserContext(), key)
	if err != nil {
		if storage.IsNotFound(err) {
			return httpx.NotFound(c, "not_found", "Not found")
		}
		log.WithError(err).Warn("media fetch failed")
		return httpx.Internal(c, "media_fetch_failed")
	}

	if st.ETag != "" {
		c.Set("ETag", "\""+st.ETag+"\"")
		if inm := normalizeETag(c.Get("If-None-Match")); inm != "" && inm == normalizeETag(st.ETag) {
			_ = obj.Close()
			return c.SendStatus(fiber.StatusNotModified)
		}
	}
	if !st.LastModified.IsZero() {
		c.Set("Last-Modified", st.LastModified.UTC().Format(time.RFC1123))
	}

	c.Set("Cache-Control", "public, max-age=31536000, immutable")
	contentType := st.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	c.Set(fiber.HeaderContentType, contentType)
	if st.Size > 0 {
		c.Set("Content-Length", strconv.FormatInt(st.Size, 10))
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer obj.Close()
		n, copyErr := io.Copy(w, obj)
		if copyErr == nil {
			copyErr = w.Flush()
		}
		if copyErr != nil {
			log.WithError(copyErr).WithFields(logrus.Fields{"copied": n}).Warn("media stream failed")
		}
	})
	return nil
}

// upload reads the multipart field and hands it to the media service.
func (h *UserHandler) upload(c *fiber.Ctx, field string, fn func(context.Context, uint, io.Reader) (*models.User, error)) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return unauthorized(c)
	}
	if !h.mediaService.Configured() {
		return httpx.Unavailable(c, "storage_not_configured", "Storage not configured")
	}

	fileHeader, err := c.FormFile(field)
	if err != nil {
		return httpx.BadRequest(c, "missing_"+field, field+" file is required")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return httpx.BadRequest(c, "invalid_"+field, "Invalid "+field+" upload")
	}
	defer f.Close()

	user, err := fn(c.UserContext(), userID, f)
	if err != nil {
		return fail(c, err, field+"_upload_failed")
	}
	return httpx.OK(c, fiber.Map{"user": user.ToResponse()})
}

func (h *UserHandler) DeleteAvatar(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return unauthorized(c)
	}
	user, err := h.mediaService.DeleteAvatar(c.UserContext(), userID)
	if err != nil {
		return fail(c, err, "avatar_delete_failed")
	}
	return httpx.OK(c, fiber.Map{"user": user.ToResponse()})
}
