package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromBackendKeepsMessage(t *testing.T) {
	err := FromBackend(errors.New("connection reset by peer"))

	assert.True(t, Is(err, Backend))
	assert.Equal(t, "connection reset by peer", err.Error())
}

func TestFromBackendLeavesClassifiedErrors(t *testing.T) {
	err := NotFoundf("Booking not found")

	got := FromBackend(err)
	assert.True(t, Is(got, NotFound))
	assert.False(t, Is(got, Backend))
	assert.Equal(t, "Booking not found", got.Error())
}

func TestFromBackendNil(t *testing.T) {
	assert.NoError(t, FromBackend(nil))
}

func TestTaxonomyHelpers(t *testing.T) {
	assert.True(t, Is(Unauthenticatedf("User not authenticated"), Unauthenticated))
	assert.True(t, Is(Unauthorizedf("Unauthorized"), Unauthorized))
	assert.True(t, Is(NotValidf("bad status %q", "x"), NotValid))
	assert.True(t, Is(Conflictf("already completed"), Conflict))
	assert.False(t, Is(Unauthorizedf("Unauthorized"), Unauthenticated))
}
