package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := error(&Error{Kind: KindStore, Op: "search", Err: cause})

	assert.True(t, errors.Is(err, ErrStore))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrProvider))
	assert.Equal(t, KindStore, KindOf(err))
	assert.Equal(t, "search: vector store error: dial tcp: refused", err.Error())
}

func TestStageError(t *testing.T) {
	err := error(&StageError{Stage: "search", Err: validationError("search", "top_k", "must be positive")})
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "top_k")
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
