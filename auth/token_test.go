package auth

import (
	"testing"

	"eventdesk/repository"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestTokenRoundTrip(t *testing.T) {
	user := &repository.User{
		Id:          7,
		Email:       "admin@example.com",
		Permissions: pq.StringArray{string(repository.PermissionAdmin)},
	}
	tokenString, err := CreateToken(user)
	assert.Nil(t, err)

	token, err := ParseToken(tokenString)
	assert.Nil(t, err)
	assert.True(t, token.Valid)

	claims := &Claims{}
	claims.FromJWTClaims(token.Claims)
	assert.Nil(t, claims.Valid())
	assert.Equal(t, 7, claims.UserId)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, []string{string(repository.PermissionAdmin)}, claims.Permissions)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	user := &repository.User{Id: 7, Email: "admin@example.com"}
	tokenString, err := CreateToken(user)
	assert.Nil(t, err)

	_, err = ParseToken(tokenString + "x")
	assert.NotNil(t, err)
	_, err = ParseToken("not.a.token")
	assert.NotNil(t, err)
}
