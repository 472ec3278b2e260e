package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	u := &User{ID: 7, Email: "amy@example.com", Role: RoleAdmin}

	token, err := SignToken(secret, u)
	require.NoError(t, err)

	id, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id.UserID)
	assert.Equal(t, "amy@example.com", id.Email)
	assert.Equal(t, RoleAdmin, id.Role)
	assert.True(t, id.IsAdmin())
}

func TestParseTokenRejectsBadInput(t *testing.T) {
	secret := []byte("test-secret")
	u := &User{ID: 7, Email: "amy@example.com", Role: RoleUser}
	token, err := SignToken(secret, u)
	require.NoError(t, err)

	_, err = ParseToken([]byte("other-secret"), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken(secret, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

type fakeUserStore struct {
	byEmail map[string]*User
	nextID  int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]*User{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, u *User) (*User, error) {
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.byEmail[u.Email] = &cp
	return u, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := &Service{Store: newFakeUserStore(), Secret: []byte("test-secret")}

	u, err := svc.Register(ctx, "Sam", "Sam@Example.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", u.Email, "email is normalized")
	assert.Equal(t, RoleUser, u.Role)
	assert.NotEqual(t, "pw123", u.Password, "stored hashed")

	_, err = svc.Register(ctx, "Sam", "sam@example.com", "other")
	assert.ErrorIs(t, err, ErrEmailTaken)

	logged, token, err := svc.Login(ctx, "sam@example.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	id, err := ParseToken([]byte("test-secret"), token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
}

func TestLoginDoesNotRevealWhichFieldFailed(t *testing.T) {
	ctx := context.Background()
	svc := &Service{Store: newFakeUserStore(), Secret: []byte("test-secret")}
	_, err := svc.Register(ctx, "Sam", "sam@example.com", "pw123")
	require.NoError(t, err)

	_, _, errUnknown := svc.Login(ctx, "nobody@example.com", "pw123")
	_, _, errWrongPw := svc.Login(ctx, "sam@example.com", "bad")
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
}

func TestRegisterRequiresAllFields(t *testing.T) {
	svc := &Service{Store: newFakeUserStore(), Secret: []byte("s")}
	_, err := svc.Register(context.Background(), "", "a@b.com", "pw")
	assert.ErrorIs(t, err, ErrMissingFields)
	_, err = svc.Register(context.Background(), "A", "", "pw")
	assert.ErrorIs(t, err, ErrMissingFields)
	_, err = svc.Register(context.Background(), "A", "a@b.com", "")
	assert.ErrorIs(t, err, ErrMissingFields)
}
