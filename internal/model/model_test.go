package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIDIsValid(t *testing.T) {
	id := NewID()
	assert.Len(t, id, 24)
	assert.True(t, ValidID(id))
	assert.NotEqual(t, id, NewID())
}

func TestValidIDRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz", "665e43879ca61f586e580d6"} {
		assert.False(t, ValidID(s), s)
	}
	assert.True(t, ValidID("665e43879ca61f586e580d66"))
}
