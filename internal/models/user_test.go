package models_test

import (
	"testing"

	"chatterbox/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Ada", (&models.User{Name: "Ada Lovelace"}).FirstName())
	assert.Equal(t, "Ada", (&models.User{Name: "Ada"}).FirstName())
	assert.Equal(t, "", (&models.User{Name: ""}).FirstName())
}
