package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branch-inventory-api-server/internal/models"
)

func TestSignedInCreatesDistinctSessions(t *testing.T) {
	r := NewRegistry()
	user := models.User{UserID: "u1", Email: "a@b.c", Role: models.RoleBranchManager}

	s1 := r.SignedIn(user)
	s2 := r.SignedIn(user)

	assert.NotEqual(t, s1.ID, s2.ID)

	got, ok := r.Get(s1.ID)
	require.True(t, ok)
	assert.Equal(t, "u1", got.User.UserID)
	assert.True(t, r.ActiveForUser("u1"))
}

func TestSignedOutEmitsOnceAndRemovesSession(t *testing.T) {
	r := NewRegistry()

	var events []Event
	r.OnChange(func(e Event) { events = append(events, e) })

	s := r.SignedIn(models.User{UserID: "u1"})
	r.SignedOut(s.ID)
	r.SignedOut(s.ID) // second logout for the same session must not re-fire

	require.Len(t, events, 2)
	assert.Equal(t, SignedIn, events[0].Type)
	assert.Equal(t, SignedOut, events[1].Type)
	assert.Equal(t, s.ID, events[1].Session.ID)

	_, ok := r.Get(s.ID)
	assert.False(t, ok)
	assert.False(t, r.ActiveForUser("u1"))
}

func TestActiveForUserSurvivesOtherSessionSignOut(t *testing.T) {
	r := NewRegistry()
	user := models.User{UserID: "u1"}

	s1 := r.SignedIn(user)
	r.SignedIn(user)

	r.SignedOut(s1.ID)
	assert.True(t, r.ActiveForUser("u1"))
}
