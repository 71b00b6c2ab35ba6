package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/core/errx"
	"storefront-api/internal/models"
	"storefront-api/internal/storage"
)

func newAuth(slots storage.Store) *AuthService {
	return NewAuthService(slots, time.Hour, 0, 0)
}

func TestLoginFabricatesDemoUser(t *testing.T) {
	ctx := context.Background()
	slots := storage.NewMemoryStore()
	auth := newAuth(slots)

	state, err := auth.State(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, state.Authenticated)

	user, err := auth.Login(ctx, "s1", models.LoginRequest{Email: "jane@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "1", user.ID)
	assert.Equal(t, "John", user.FirstName)
	assert.Equal(t, "Doe", user.LastName)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.NotEmpty(t, user.Avatar)

	_, err = slots.Get(ctx, "session:s1:user")
	require.NoError(t, err)

	state, err = auth.State(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, state.Authenticated)
	assert.Equal(t, "jane@example.com", state.User.Email)

	other, err := auth.Current(ctx, "s2")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := newAuth(storage.NewMemoryStore())

	for _, req := range []models.LoginRequest{
		{Email: "not-an-email", Password: "x"},
		{Email: "jane@example.com", Password: ""},
		{Email: "", Password: "x"},
	} {
		_, err := auth.Login(context.Background(), "s", req)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
		assert.Equal(t, "authentication failed", errx.MessageOf(err))
		assert.Equal(t, 401, errx.StatusOf(err))
	}
}

func TestLoginHonoursDelayAndCancellation(t *testing.T) {
	slots := storage.NewMemoryStore()
	auth := NewAuthService(slots, time.Hour, time.Hour, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := auth.Login(ctx, "s", models.LoginRequest{Email: "a@b.co", Password: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = slots.Get(context.Background(), "session:s:user")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegisterCancelledWritesNothing(t *testing.T) {
	slots := storage.NewMemoryStore()
	auth := NewAuthService(slots, time.Hour, 20*time.Millisecond, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := auth.Register(ctx, "s", models.RegisterRequest{Email: "a@b.co", Password: "x", FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = slots.Get(context.Background(), "session:s:user")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegister(t *testing.T) {
	auth := newAuth(storage.NewMemoryStore())
	fixed := time.UnixMilli(1705312800000)
	auth.now = func() time.Time { return fixed }

	user, err := auth.Register(context.Background(), "s", models.RegisterRequest{
		Email: "sam@example.com", Password: "pw", FirstName: "Sam", LastName: "Lee",
	})
	require.NoError(t, err)
	assert.Equal(t, "1705312800000", user.ID)
	assert.Equal(t, "Sam", user.FirstName)
	assert.Empty(t, user.Avatar)

	_, err = auth.Register(context.Background(), "s", models.RegisterRequest{
		Email: "sam@example.com", Password: "pw",
	})
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(storage.NewMemoryStore())
	_, err := auth.Login(ctx, "s", models.LoginRequest{Email: "a@b.co", Password: "x"})
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, "s"))
	user, err := auth.Current(ctx, "s")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUpdateProfileMergesNonEmptyFields(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(storage.NewMemoryStore())

	_, err := auth.UpdateProfile(ctx, "s", models.ProfilePatch{FirstName: "X"})
	assert.Equal(t, 401, errx.StatusOf(err))

	_, err = auth.Login(ctx, "s", models.LoginRequest{Email: "a@b.co", Password: "x"})
	require.NoError(t, err)

	user, err := auth.UpdateProfile(ctx, "s", models.ProfilePatch{
		FirstName: "Jane",
		Addresses: []models.Address{{Type: "shipping", FirstName: "Jane", City: "Austin"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane", user.FirstName)
	assert.Equal(t, "Doe", user.LastName)
	assert.Equal(t, "a@b.co", user.Email)
	require.Len(t, user.Addresses, 1)
	assert.NotEmpty(t, user.Addresses[0].ID)

	_, err = auth.UpdateProfile(ctx, "s", models.ProfilePatch{Email: "broken"})
	assert.Equal(t, 422, errx.StatusOf(err))

	reread, err := auth.Current(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "Jane", reread.FirstName)
}

func TestWishlist(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(storage.NewMemoryStore())
	_, err := auth.Login(ctx, "s", models.LoginRequest{Email: "a@b.co", Password: "x"})
	require.NoError(t, err)

	_, err = auth.AddToWishlist(ctx, "s", "1")
	require.NoError(t, err)
	user, err := auth.AddToWishlist(ctx, "s", "1")
	require.NoError(t, err)
	_, err = auth.AddToWishlist(ctx, "s", "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, user.Wishlist)

	user, err = auth.RemoveFromWishlist(ctx, "s", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, user.Wishlist)

	user, err = auth.RemoveFromWishlist(ctx, "s", "3")
	require.NoError(t, err)
	assert.Equal(t, []string{}, user.Wishlist)
}

func TestOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(storage.NewMemoryStore())

	_, err := auth.Orders(ctx, "s")
	assert.ErrorIs(t, err, ErrNotSignedIn)

	_, err = auth.Login(ctx, "s", models.LoginRequest{Email: "a@b.co", Password: "x"})
	require.NoError(t, err)
	require.NoError(t, auth.AppendOrder(ctx, "s", models.Order{ID: "first"}))
	require.NoError(t, auth.AppendOrder(ctx, "s", models.Order{ID: "second"}))

	orders, err := auth.Orders(ctx, "s")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "second", orders[0].ID)
}
