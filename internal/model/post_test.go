package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidReaction(t *testing.T) {
	for _, s := range []string{ReactionLike, ReactionLove, ReactionCare} {
		assert.True(t, ValidReaction(s))
	}
	// NONE is a request value, not a stored one.
	assert.False(t, ValidReaction(ReactionNone))
	assert.False(t, ValidReaction("like"))
	assert.False(t, ValidReaction(""))
}
