package validation

import (
	"net/mail"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	DisplayNameMaxLength = 50
	BioMaxLength         = 280
	GroupNameMaxLength   = 100
	GroupDescMaxLength   = 500
	ReasonMaxLength      = 500
	InviteCodeLength     = 6
)

var inviteCodeRe = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

func PasswordMinLength() int {
	minStr := os.Getenv("PASSWORD_MIN_LENGTH")
	if minStr == "" {
		return 10
	}
	min, err := strconv.Atoi(minStr)
	if err != nil || min < 8 {
		return 10
	}
	return min
}

func ValidatePassword(password string) bool {
	return len(password) >= PasswordMinLength()
}

// ValidateDisplayName expects an already trimmed name of 1..50 characters.
func ValidateDisplayName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 1 && n <= DisplayNameMaxLength
}

func ValidateBio(bio string) bool {
	return utf8.RuneCountInString(bio) <= BioMaxLength
}

func ValidateScore(score int) bool {
	return score >= 1 && score <= 10
}

func MaxCommentLength() int {
	maxStr := os.Getenv("MAX_COMMENT_LENGTH")
	if maxStr == "" {
		return 2000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 2000
	}
	return max
}

// NormalizeInviteCode trims and upper-cases user input.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func ValidateInviteCode(code string) bool {
	return inviteCodeRe.MatchString(code)
}

// TrimAndLimit trims whitespace and cuts the result to max characters.
func TrimAndLimit(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// ExceedsLength reports whether the trimmed string is longer than max characters.
func ExceedsLength(s string, max int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) > max
}
