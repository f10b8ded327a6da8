package github

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&APIError{StatusCode: 404, Message: "Not Found"}))
	assert.True(t, IsNotFound(fmt.Errorf("get tree: %w", ErrRepoNotFound)))
	assert.True(t, IsNotFound(ErrBranchNotFound))
	assert.False(t, IsNotFound(&APIError{StatusCode: 500}))
	assert.False(t, IsNotFound(errors.New("other")))
	assert.False(t, IsNotFound(nil))
}

func TestIsUnauthorized(t *testing.T) {
	assert.True(t, IsUnauthorized(&APIError{StatusCode: 401}))
	assert.True(t, IsUnauthorized(&APIError{StatusCode: 403}))
	assert.True(t, IsUnauthorized(fmt.Errorf("get tree: %w", &APIError{StatusCode: 401})))
	assert.False(t, IsUnauthorized(&APIError{StatusCode: 404}))
	assert.False(t, IsUnauthorized(errors.New("other")))
}

func TestIsRateLimited(t *testing.T) {
	rlErr := &RateLimitError{ResetAt: time.Now().Add(time.Hour), Remaining: 0}

	assert.True(t, IsRateLimited(rlErr))
	assert.True(t, IsRateLimited(fmt.Errorf("get tree: %w", rlErr)))
	assert.False(t, IsRateLimited(&APIError{StatusCode: 429}))
	assert.False(t, IsRateLimited(nil))
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{
		StatusCode: 422,
		Message:    "Validation Failed",
		URL:        "https://api.github.com/repos/acme/widgets/git/trees/main",
	}

	msg := err.Error()
	assert.Contains(t, msg, "422")
	assert.Contains(t, msg, "Validation Failed")
	assert.Contains(t, msg, "trees/main")
}

func TestRateLimitError_Error(t *testing.T) {
	reset := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := &RateLimitError{ResetAt: reset}

	assert.Contains(t, err.Error(), "2026-03-01T12:00:00Z")
}
