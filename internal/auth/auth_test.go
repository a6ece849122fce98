package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslabs/campus-ticketing/internal/model"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, VerifyPassword(hash, "correct horse battery staple"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong password"), ErrInvalidCredentials)
}

func TestSessionRoundTrip(t *testing.T) {
	m, err := NewManager("test-secret")
	require.NoError(t, err)

	user := &model.User{ID: "u-1", Username: "asha", Role: model.RoleStudent}
	token, err := m.Issue(user, time.Now())
	require.NoError(t, err)

	session, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", session.UserID)
	assert.Equal(t, "asha", session.Username)
	assert.Equal(t, model.RoleStudent, session.Role)
}

func TestSessionRejectsBadTokens(t *testing.T) {
	m, err := NewManager("test-secret")
	require.NoError(t, err)

	_, err = m.Verify("not a token")
	assert.ErrorIs(t, err, ErrInvalidSession)

	// A token signed with a different secret does not verify.
	other, err := NewManager("different-secret")
	require.NoError(t, err)
	token, err := other.Issue(&model.User{ID: "u-1", Username: "asha", Role: model.RoleAdmin}, time.Now())
	require.NoError(t, err)
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionExpiry(t *testing.T) {
	m, err := NewManager("test-secret")
	require.NoError(t, err)

	issued := time.Now().Add(-SessionTTL - time.Minute)
	token, err := m.Issue(&model.User{ID: "u-1", Username: "asha", Role: model.RoleStudent}, issued)
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager("")
	assert.Error(t, err)
}
