package twitter

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/blacktop/medium-mcp/internal/config"
	"github.com/michimani/gotwi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMissingCredentials(t *testing.T) {
	for _, k := range []string{envAPIKey, envAPISecret, envAccessToken, envAccessSecret} {
		if prev, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, prev) })
		}
		os.Unsetenv(k)
	}
	t.Setenv(envAPIKey, "key")

	_, err := New(context.Background())
	var missing config.MissingEnvError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{envAPISecret, envAccessToken, envAccessSecret}, missing.Variables)
}

func TestSummarizeGotwiError(t *testing.T) {
	assert.Equal(t, "unknown X API error", summarizeGotwiError(nil))
	assert.Equal(t, "X API request failed", summarizeGotwiError(&gotwi.GotwiError{}))

	err := &gotwi.GotwiError{
		Title:  "Forbidden",
		Detail: "You are not permitted",
	}
	assert.Equal(t, "Forbidden; You are not permitted", summarizeGotwiError(err))
}

func TestUnwrapGotwiErrorPassthrough(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, unwrapGotwiError(plain))
}
