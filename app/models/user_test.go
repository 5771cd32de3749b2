package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	u, err := CreateUser("June Wanjiru", "june@example.com", "s3cret-pw")
	require.NoError(t, err)

	assert.Equal(t, ROLE_USER, u.Role)
	assert.Equal(t, STATUS_ACTIVE, u.Status)
	assert.NotEqual(t, "s3cret-pw", u.Password, "password must be stored hashed")
	assert.True(t, u.CheckPassword("s3cret-pw"))
	assert.False(t, u.CheckPassword("wrong"))
	assert.True(t, u.IsActive())
	assert.False(t, u.IsAdmin())
}

func TestCreateUser_Invalid(t *testing.T) {
	_, err := CreateUser("Jo", "june@example.com", "s3cret-pw")
	assert.Error(t, err, "name below minimum length")

	_, err = CreateUser("June Wanjiru", "not-an-email", "s3cret-pw")
	assert.Error(t, err)
}
