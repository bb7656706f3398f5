package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/model"
)

type tokenRecord struct {
	userID    int64
	expiresAt time.Time
	revoked   bool
}

// fakeAuthStore keeps users and token records in memory.
type fakeAuthStore struct {
	nextID int64
	users  map[string]*model.User
	tokens map[string]*tokenRecord
}

func newFakeAuthStore() *fakeAuthStore {
	return &fakeAuthStore{
		users:  make(map[string]*model.User),
		tokens: make(map[string]*tokenRecord),
	}
}

func (f *fakeAuthStore) CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string) (*model.User, error) {
	if _, exists := f.users[email]; exists {
		return nil, errs.Conflict("email", "email is already registered")
	}
	f.nextID++
	user := &model.User{ID: f.nextID, Email: email, PasswordHash: passwordHash}
	f.users[email] = user
	return user, nil
}

func (f *fakeAuthStore) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, errs.NotFound("user")
	}
	return user, nil
}

func (f *fakeAuthStore) UserByID(ctx context.Context, id int64) (*model.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, errs.NotFound("user")
}

func (f *fakeAuthStore) InsertAuthToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	f.tokens[tokenHash] = &tokenRecord{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeAuthStore) AuthTokenUserID(ctx context.Context, tokenHash string) (int64, error) {
	record, ok := f.tokens[tokenHash]
	if !ok || record.revoked || !record.expiresAt.After(time.Now()) {
		return 0, errs.NotFound("auth token")
	}
	return record.userID, nil
}

func (f *fakeAuthStore) RevokeAuthToken(ctx context.Context, tokenHash string) error {
	record, ok := f.tokens[tokenHash]
	if !ok {
		return errs.NotFound("auth token")
	}
	record.revoked = true
	return nil
}

func (f *fakeAuthStore) RevokeUserTokens(ctx context.Context, userID int64) error {
	for _, record := range f.tokens {
		if record.userID == userID {
			record.revoked = true
		}
	}
	return nil
}

func (f *fakeAuthStore) PurgeExpiredTokens(ctx context.Context, olderThan time.Duration) (int64, error) {
	var purged int64
	cutoff := time.Now().Add(-olderThan)
	for hash, record := range f.tokens {
		if record.expiresAt.Before(cutoff) {
			delete(f.tokens, hash)
			purged++
		}
	}
	return purged, nil
}

var testSecret = []byte("test-secret-test-secret-test-key")

func registered(t *testing.T, svc *Service) *model.User {
	t.Helper()
	user, err := svc.Register(context.Background(), &RegisterRequest{
		Email:     "Ada@Example.com",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterNormalizesAndHashes(t *testing.T) {
	store := newFakeAuthStore()
	svc := NewService(store, testSecret, time.Hour)

	user := registered(t, svc)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newFakeAuthStore(), testSecret, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Email: "not-an-email", Password: "longenough", FirstName: "A", LastName: "B"})
	assert.True(t, errs.IsValidation(err))

	_, err = svc.Register(ctx, &RegisterRequest{Email: "a@example.com", Password: "short", FirstName: "A", LastName: "B"})
	assert.True(t, errs.IsValidation(err))

	_, err = svc.Register(ctx, &RegisterRequest{Email: "a@example.com", Password: "longenough", FirstName: " ", LastName: "B"})
	assert.True(t, errs.IsValidation(err))
}

func TestLoginAuthenticateRoundTrip(t *testing.T) {
	store := newFakeAuthStore()
	svc := NewService(store, testSecret, time.Hour)
	ctx := context.Background()

	user := registered(t, svc)

	token, loggedIn, err := svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	resolved, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	store := newFakeAuthStore()
	svc := NewService(store, testSecret, time.Hour)
	ctx := context.Background()

	registered(t, svc)

	_, _, badPassword := svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "wrong password"})
	_, _, badEmail := svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "correct horse"})

	require.Error(t, badPassword)
	require.Error(t, badEmail)
	assert.True(t, errs.IsForbidden(badPassword))
	assert.True(t, errs.IsForbidden(badEmail))
	assert.Equal(t, badPassword.Error(), badEmail.Error())
}

func TestAuthenticateRejectsRevokedToken(t *testing.T) {
	store := newFakeAuthStore()
	svc := NewService(store, testSecret, time.Hour)
	ctx := context.Background()

	registered(t, svc)
	token, _, err := svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	// The JWT is still validly signed, but the server-side record is gone.
	_, err = svc.Authenticate(ctx, token)
	assert.True(t, errs.IsForbidden(err))

	// Logging out twice is harmless.
	assert.NoError(t, svc.Logout(ctx, token))
}

func TestAuthenticateRejectsForgedToken(t *testing.T) {
	store := newFakeAuthStore()
	svc := NewService(store, testSecret, time.Hour)
	forger := NewService(store, []byte("attacker-controlled-secret-12345"), time.Hour)
	ctx := context.Background()

	registered(t, svc)
	forged, _, err := forger.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, forged)
	assert.True(t, errs.IsForbidden(err))
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	store := newFakeAuthStore()
	svc := NewService(store, testSecret, time.Hour)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	ctx := context.Background()

	registered(t, svc)
	token, _, err := svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Authenticate(ctx, token)
	assert.True(t, errs.IsForbidden(err))
}

func TestRevokeAll(t *testing.T) {
	store := newFakeAuthStore()
	svc := NewService(store, testSecret, time.Hour)
	ctx := context.Background()

	user := registered(t, svc)
	first, _, err := svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)
	second, _, err := svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAll(ctx, user.ID))

	_, err = svc.Authenticate(ctx, first)
	assert.True(t, errs.IsForbidden(err))
	_, err = svc.Authenticate(ctx, second)
	assert.True(t, errs.IsForbidden(err))
}

func TestHashTokenStable(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}
