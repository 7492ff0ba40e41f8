package testutil

import (
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"gorm.io/gorm"
)

const TestJWTSecret = "test-secret-key-for-testing-only"

// TestHelper provides utility functions for tests
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// CreateTestUser creates a user with default values filled in.
func (h *TestHelper) CreateTestUser(id uint, displayName, email string) *models.User {
	if id == 0 {
		id = 1
	}
	if displayName == "" {
		displayName = "Test User"
	}
	if email == "" {
		email = "test@example.com"
	}
	now := time.Now()
	return &models.User{
		ID:           id,
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: "hashed_password_123",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CreateTestGroup creates a group owned by ownerID.
func (h *TestHelper) CreateTestGroup(id, ownerID uint, name string) *models.Group {
	if id == 0 {
		id = 1
	}
	if name == "" {
		name = "Friday Films"
	}
	now := time.Now()
	return &models.Group{
		ID:        id,
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AccessToken signs an HS256 access token the auth middleware accepts.
func (h *TestHelper) AccessToken(userID uint, email string) string {
	return SignAccessToken(h.t, TestJWTSecret, userID, email, time.Hour)
}

func SignAccessToken(t *testing.T, secret string, userID uint, email string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"sub":     strconv.FormatUint(uint64(userID), 10),
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// SetupTestEnv sets up required environment variables for testing
func (h *TestHelper) SetupTestEnv() {
	h.t.Setenv("JWT_SECRET", TestJWTSecret)
	h.t.Setenv("DB_HOST", "")
	h.t.Setenv("TMDB_API_KEY", "test-tmdb-key")
}

// TeardownTestEnv clears variables set outside of t.Setenv.
func (h *TestHelper) TeardownTestEnv() {
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("TMDB_API_KEY")
}

// AssertError checks if an error occurred when it should (or shouldn't)
func (h *TestHelper) AssertError(err error, shouldErr bool, testName string) {
	if (err != nil) != shouldErr {
		if shouldErr {
			h.t.Errorf("%s: expected error but got nil", testName)
		} else {
			h.t.Errorf("%s: unexpected error: %v", testName, err)
		}
	}
}

// AssertEqual checks if two values are equal
func (h *TestHelper) AssertEqual(got, want interface{}, testName string) {
	if got != want {
		h.t.Errorf("%s: got %v, want %v", testName, got, want)
	}
}

// GetRecordNotFoundError returns gorm.ErrRecordNotFound for repository mocks.
func GetRecordNotFoundError() error {
	return gorm.ErrRecordNotFound
}
