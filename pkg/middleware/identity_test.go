package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/model"
)

type fakeAuthenticator struct {
	users map[string]*model.User
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, token string) (*model.User, error) {
	user, ok := f.users[token]
	if !ok {
		return nil, errs.Forbidden("invalid token")
	}
	return user, nil
}

type nilReader struct{}

func (nilReader) MemberSpaceIDs(ctx context.Context, userID int64) ([]int64, error)       { return nil, nil }
func (nilReader) MemberChannelIDs(ctx context.Context, userID int64) ([]int64, error)     { return nil, nil }
func (nilReader) SpaceMemberUserIDs(ctx context.Context, spaceIDs []int64) ([]int64, error) { return nil, nil }
func (nilReader) PublicUserIDs(ctx context.Context) ([]int64, error)                      { return nil, nil }
func (nilReader) NonPrivateSpaceIDs(ctx context.Context) ([]int64, error)                 { return nil, nil }

func identityChain(authn Authenticator, next http.Handler) http.Handler {
	return Identity(authn, nilReader{})(next)
}

func TestIdentityWithValidToken(t *testing.T) {
	authn := &fakeAuthenticator{users: map[string]*model.User{"good": {ID: 7}}}

	var seen int64 = -1
	handler := identityChain(authn, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idc := IdentityFrom(r.Context())
		require.NotNil(t, idc)
		seen = idc.ActorID()
	}))

	req := httptest.NewRequest(http.MethodGet, "/spaces", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), seen)
}

func TestIdentityWithInvalidToken(t *testing.T) {
	authn := &fakeAuthenticator{users: map[string]*model.User{}}

	handler := identityChain(authn, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/spaces", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentityWithoutTokenIsAnonymous(t *testing.T) {
	authn := &fakeAuthenticator{users: map[string]*model.User{}}

	var authenticated = true
	handler := identityChain(authn, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idc := IdentityFrom(r.Context())
		require.NotNil(t, idc)
		authenticated = idc.Authenticated()
	}))

	req := httptest.NewRequest(http.MethodGet, "/spaces", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, authenticated)
}

func TestRequireAuth(t *testing.T) {
	authn := &fakeAuthenticator{users: map[string]*model.User{"good": {ID: 7}}}
	handler := identityChain(authn, RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	// Anonymous requests are rejected before the handler.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/spaces", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/spaces", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, bearerToken(req))

	req.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", bearerToken(req))

	req.Header.Set("Authorization", "bearer abc")
	assert.Equal(t, "abc", bearerToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, bearerToken(req))

	req.Header.Set("Authorization", "Bearer")
	assert.Empty(t, bearerToken(req))
}
