package application

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/frtweb/blog-backend/internal/domain/entity"
)

func TestCleanupJobValid(t *testing.T) {
	assert.True(t, CleanupJob{Prefix: entity.ImagePrefix(42)}.Valid())
	assert.True(t, CleanupJob{Prefix: "7/"}.Valid())

	for _, prefix := range []string{"", "/", "users/", "users/3/", "0/", "42", "42/index.webp", "../42/", "-1/", " 42/"} {
		assert.False(t, CleanupJob{Prefix: prefix}.Valid(), prefix)
	}
}
