package core

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_SignUpThenSignIn(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newTestStore(t).Users(), nopLogger())

	user, err := svc.SignUp(ctx, "ann@example.com", "s3cret")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^user_\d+$`), user.ID)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.NotEqual(t, "s3cret", user.Password, "password must be hashed")

	signedIn, err := svc.SignIn(ctx, "ann@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)
}

func TestUserService_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newTestStore(t).Users(), nopLogger())

	_, err := svc.SignUp(ctx, "ann@example.com", "one")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "ann@example.com", "two")
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = svc.SignUp(ctx, "  ANN@example.com ", "three")
	assert.ErrorIs(t, err, ErrEmailExists, "emails compare case-insensitively")
}

func TestUserService_WrongPassword(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newTestStore(t).Users(), nopLogger())

	_, err := svc.SignUp(ctx, "ann@example.com", "right")
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, "nobody@example.com", "right")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_MissingFields(t *testing.T) {
	svc := NewUserService(newTestStore(t).Users(), nopLogger())

	_, err := svc.SignUp(context.Background(), "", "x")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.SignUp(context.Background(), "a@b.c", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_SameMillisecondGetsSuffix(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newTestStore(t).Users(), nopLogger()).(*userService)
	fixed := time.UnixMilli(1700000000000)
	svc.now = func() time.Time { return fixed }

	first, err := svc.SignUp(ctx, "a@example.com", "x")
	require.NoError(t, err)
	second, err := svc.SignUp(ctx, "b@example.com", "x")
	require.NoError(t, err)

	assert.Equal(t, "user_1700000000000", first.ID)
	assert.Equal(t, "user_1700000000000_1", second.ID)
}
