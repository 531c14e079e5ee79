package scraper

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
)

func TestBlockedSet(t *testing.T) {
	blocked := blockedSet([]string{"Image", "Font", "Script", "Bogus"})

	assert.Len(t, blocked, 2)
	assert.Contains(t, blocked, proto.NetworkResourceTypeImage)
	assert.Contains(t, blocked, proto.NetworkResourceTypeFont)
	assert.NotContains(t, blocked, proto.NetworkResourceTypeScript)
}

func TestBlockedSet_Empty(t *testing.T) {
	assert.Empty(t, blockedSet(nil))
}
