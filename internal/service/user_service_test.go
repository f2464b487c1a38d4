package service

import (
	"context"
	"testing"

	"formcraft_backend/internal/model"
	"formcraft_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDirectoryAdminActions(t *testing.T) {
	f := newFixture(t)
	f.seedUsers(t, 1, 2, 3)
	ctx := context.Background()

	missing, err := f.users.MissingUsers(ctx, []uint{3, 8, 1, 9})
	require.NoError(t, err)
	assert.Equal(t, []uint{8, 9}, missing)

	require.NoError(t, f.users.Promote(ctx, 2))
	assert.ErrorIs(t, f.users.Promote(ctx, 404), util.ErrUserNotFound)

	n, err := f.users.Block(ctx, []uint{1, 3})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	entries, err := f.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Blocked)
	assert.Equal(t, model.Admin, entries[1].Role)

	require.NoError(t, f.users.Demote(ctx, 2))
	_, err = f.users.Unblock(ctx, []uint{1})
	require.NoError(t, err)

	u, err := f.users.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, u.Blocked)

	_, err = f.users.Delete(ctx, []uint{3})
	require.NoError(t, err)
	_, err = f.users.Get(ctx, 3)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestRegisterLoginVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Register(ctx, "Ada", "Ada@Example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, model.RegularUser, u.Role)
	assert.NotEqual(t, "correct horse", u.Password)

	_, err = f.auth.Register(ctx, "Ada again", "ada@example.com", "whatever1")
	assert.ErrorIs(t, err, util.ErrEmailRegistered)

	_, _, err = f.auth.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, util.ErrBadCredentials)

	token, logged, err := f.auth.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	identity, err := f.auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, identity.UserID)
	assert.Equal(t, model.RegularUser, identity.Role)

	_, err = f.auth.Verify(token + "x")
	assert.ErrorIs(t, err, util.ErrUnauthorized)
}

func TestBlockedUserCannotLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Register(ctx, "Bob", "bob@example.com", "password123")
	require.NoError(t, err)
	_, err = f.users.Block(ctx, []uint{u.ID})
	require.NoError(t, err)

	_, _, err = f.auth.Login(ctx, "bob@example.com", "password123")
	assert.ErrorIs(t, err, util.ErrUserBlocked)
}
