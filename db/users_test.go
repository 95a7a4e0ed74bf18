package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)

	me, err := GetOrCreateUser(ctx, database, " Me@Example.com ", "Me")
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", me.Email)

	again, err := GetOrCreateUser(ctx, database, "me@example.com", "Someone Else")
	require.NoError(t, err)
	assert.Equal(t, me.ID, again.ID)
	assert.Equal(t, "Me", again.Name)

	got, err := GetUser(ctx, database, me.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", got.Email)

	_, err = GetUser(ctx, database, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = GetUserByEmail(ctx, database, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = GetOrCreateUser(ctx, database, "abe@example.com", "")
	require.NoError(t, err)
	users, err := ListUsers(ctx, database)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "abe@example.com", users[0].Email)
}
