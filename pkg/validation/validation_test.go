package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Student string `json:"student" validate:"required"`
	Score   int    `json:"score" validate:"max=20"`
	Ignored string `json:"-" validate:"omitempty"`
}

func TestMessageUsesJSONNames(t *testing.T) {
	err := New().Struct(sample{Score: 25})
	require.Error(t, err)

	msg := Message(err, "invalid")
	assert.Contains(t, msg, "student is a required field")
	assert.Contains(t, msg, "score must be 20 or less")
}

func TestMessageFallback(t *testing.T) {
	assert.Equal(t, "invalid", Message(errors.New("boom"), "invalid"))
	assert.NoError(t, New().Struct(sample{Student: "0xs", Score: 3}))
}
