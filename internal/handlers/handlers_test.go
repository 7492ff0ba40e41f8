package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mauromolina/mmovienight-sub000/internal/httpx"
	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/repository"
	"github.com/mauromolina/mmovienight-sub000/internal/service"
	"github.com/mauromolina/mmovienight-sub000/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// asUser injects the authenticated user the way AuthRequired does.
func asUser(userID uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("userID", userID)
		}
		return c.Next()
	}
}

func decodeError(t *testing.T, resp *http.Response) httpx.ErrorResponse {
	t.Helper()
	defer resp.Body.Close()
	var body httpx.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestFailMapsServiceErrors(t *testing.T) {
	verr := service.NewValidationError("name", "is required")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", verr, fiber.StatusBadRequest, "validation_failed"},
		{"not member", service.ErrNotMember, fiber.StatusForbidden, "not_member"},
		{"forbidden", service.ErrForbidden, fiber.StatusForbidden, "forbidden"},
		{"owner leave", service.ErrOwnerCannotLeave, fiber.StatusConflict, "owner_cannot_leave"},
		{"wrapped conflict", fmt.Errorf("%w: already rated", service.ErrConflict), fiber.StatusConflict, "conflict"},
		{"invalid code", service.ErrInvalidCode, fiber.StatusNotFound, "invalid_code"},
		{"not found", service.ErrNotFound, fiber.StatusNotFound, "not_found"},
		{"movie unavailable", service.ErrMovieUnavailable, fiber.StatusBadGateway, "movie_unavailable"},
		{"bad credentials", service.ErrInvalidCredentials, fiber.StatusUnauthorized, "invalid_credentials"},
		{"bad token", service.ErrInvalidToken, fiber.StatusUnauthorized, "invalid_token"},
		{"no storage", service.ErrStorageNotConfigured, fiber.StatusServiceUnavailable, "storage_not_configured"},
		{"unknown", errors.New("db exploded"), fiber.StatusInternalServerError, "op_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return fail(c, tt.err, "op_failed") })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeError(t, resp)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Code)
			if tt.wantCode == "validation_failed" {
				assert.Equal(t, "is required", body.Fields["name"])
			}
		})
	}
}

func TestGroupRoutesRejectBadInput(t *testing.T) {
	watchlist := NewWatchlistHandler(nil)
	activity := NewActivityHandler(nil)
	movies := NewMovieHandler(nil, nil, nil)

	tests := []struct {
		name     string
		userID   uint
		route    string
		target   string
		handler  fiber.Handler
		status   int
		wantCode string
	}{
		{"no user", 0, "/groups/:id/watchlist/pick", "/groups/1/watchlist/pick", watchlist.Pick, fiber.StatusUnauthorized, "unauthorized"},
		{"bad group id", 7, "/groups/:id/watchlist/pick", "/groups/abc/watchlist/pick", watchlist.Pick, fiber.StatusBadRequest, "invalid_group_id"},
		{"zero group id", 7, "/groups/:id/watchlist/pick", "/groups/0/watchlist/pick", watchlist.Pick, fiber.StatusBadRequest, "invalid_group_id"},
		{"bad seed", 7, "/groups/:id/watchlist/pick", "/groups/1/watchlist/pick?seed=lucky", watchlist.Pick, fiber.StatusBadRequest, "invalid_seed"},
		{"bad before", 7, "/groups/:id/activity", "/groups/1/activity?before=yesterday", activity.GroupFeed, fiber.StatusBadRequest, "invalid_before"},
		{"bad movie id", 7, "/groups/:id/movies/:movieId", "/groups/1/movies/x", movies.GetGroupMovie, fiber.StatusBadRequest, "invalid_movie_id"},
		{"bad tmdb id", 7, "/movies/:tmdbId", "/movies/abc", movies.GetMovie, fiber.StatusBadRequest, "invalid_tmdb_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get(tt.route, asUser(tt.userID), tt.handler)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.target, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.wantCode, decodeError(t, resp).Code)
		})
	}
}

type fakeObjects struct {
	objects map[string]string
	stat    storage.ObjectStat
	err     error
}

func (f *fakeObjects) GetObject(_ context.Context, key string) (io.ReadCloser, storage.ObjectStat, error) {
	if f.err != nil {
		return nil, storage.ObjectStat{}, f.err
	}
	body, ok := f.objects[key]
	if !ok {
		return nil, storage.ObjectStat{}, storage.ErrObjectNotFound
	}
	st := f.stat
	st.Size = int64(len(body))
	return io.NopCloser(strings.NewReader(body)), st, nil
}

func TestMediaHandlerGet(t *testing.T) {
	modified := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	objects := &fakeObjects{
		objects: map[string]string{"avatars/1/abc.jpg": "jpeg-bytes"},
		stat:    storage.ObjectStat{ETag: "abc123", ContentType: "image/jpeg", LastModified: modified},
	}

	app := fiber.New()
	app.Get("/media/*", NewMediaHandler(objects).Get)

	t.Run("streams object", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/avatars/1/abc.jpg", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, `"abc123"`, resp.Header.Get("ETag"))
		assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Cache-Control"), "immutable")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(body))
	})

	t.Run("revalidates with etag", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/media/avatars/1/abc.jpg", nil)
		req.Header.Set("If-None-Match", `W/"abc123"`)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotModified, resp.StatusCode)
	})

	t.Run("missing object", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/avatars/1/nope.jpg", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown prefix", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/secrets/1/abc.jpg", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("storage not configured", func(t *testing.T) {
		bare := fiber.New()
		bare.Get("/media/*", NewMediaHandler(nil).Get)
		resp, err := bare.Test(httptest.NewRequest(http.MethodGet, "/media/avatars/1/abc.jpg", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	})
}

type ownerOnlyGroups struct {
	repository.GroupRepositoryInterface
	ownerID uint
}

func (g *ownerOnlyGroups) GetMemberRole(_ context.Context, _, userID uint) (models.GroupRole, error) {
	if userID == g.ownerID {
		return models.RoleOwner, nil
	}
	return models.RoleMember, nil
}

type memoryCodes struct {
	repository.InviteCodeRepositoryInterface
	codes []models.InviteCode
}

func (m *memoryCodes) Create(_ context.Context, code *models.InviteCode) error {
	code.ID = uint(len(m.codes) + 1)
	m.codes = append(m.codes, *code)
	return nil
}

func (m *memoryCodes) ListActiveByGroup(_ context.Context, groupID uint) ([]models.InviteCode, error) {
	var out []models.InviteCode
	for _, c := range m.codes {
		if c.GroupID == groupID && c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func TestCreateInviteCodeStatus(t *testing.T) {
	invites := service.NewInviteService(&memoryCodes{}, &ownerOnlyGroups{ownerID: 1}, nil, nil)
	groups := NewGroupHandler(nil, invites, nil)

	app := fiber.New()
	app.Post("/groups/:id/invite-codes", asUser(1), groups.CreateInviteCode)

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/groups/3/invite-codes", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	first := post("")
	assert.Equal(t, fiber.StatusCreated, first.StatusCode, "first code is minted")
	first.Body.Close()

	again := post("")
	assert.Equal(t, fiber.StatusOK, again.StatusCode, "usable code is returned as is")
	again.Body.Close()

	limited := post(`{"max_uses":2}`)
	assert.Equal(t, fiber.StatusCreated, limited.StatusCode, "limits always mint a new code")
	limited.Body.Close()
}
