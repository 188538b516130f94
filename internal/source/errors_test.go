package source

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("wrapped: %w", transport(TagCSV, "request failed", cause))

	assert.True(t, IsKind(err, KindTransportFailure))
	assert.False(t, IsKind(err, KindShapeMismatch))
	assert.Equal(t, KindTransportFailure, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "wrapped: transport_failure (csv): request failed: connection refused", err.Error())
}

func TestFetchError_NoStrategy(t *testing.T) {
	err := &FetchError{Kind: KindNoMatch, Message: "all strategies exhausted"}

	assert.Equal(t, "no_match: all strategies exhausted", err.Error())
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, KindNoMatch))
}
