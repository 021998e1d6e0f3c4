package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cloutcoin/internal/backend"
	"cloutcoin/internal/database"
	"cloutcoin/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfiles struct {
	tokens []string
	err    error
}

func (f *fakeProfiles) GetProfile(ctx context.Context, creds backend.Credentials) (*model.Profile, error) {
	token, _ := creds.Token(ctx)
	f.tokens = append(f.tokens, token)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Profile{ID: "u1", Username: "ada", Email: "ada@example.com"}, nil
}

func newTestService(t *testing.T) (*Service, *database.Database, *fakeProfiles) {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	profiles := &fakeProfiles{}
	return NewService(db, profiles, zerolog.Nop()), db, profiles
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestOpenStoresTokenAndProfile(t *testing.T) {
	svc, db, profiles := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Open(ctx, "Bearer opaque-token")
	require.NoError(t, err)
	assert.Equal(t, []string{"opaque-token"}, profiles.tokens)
	assert.Equal(t, "ada", sess.Profile().Username)

	token, err := db.Get(ctx, "session:"+sess.ID()+":token")
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", token)

	loaded, err := svc.Load(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, sess.Profile(), loaded.Profile())

	got, err := loaded.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", got)
}

func TestOpenRejectsBadTokens(t *testing.T) {
	svc, _, profiles := newTestService(t)
	ctx := context.Background()

	_, err := svc.Open(ctx, "  ")
	assert.ErrorIs(t, err, ErrEmptyToken)

	_, err = svc.Open(ctx, signedToken(t, time.Now().Add(-time.Hour)))
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Empty(t, profiles.tokens)

	profiles.err = backend.ErrUnauthorized
	_, err = svc.Open(ctx, "opaque")
	assert.ErrorIs(t, err, backend.ErrUnauthorized)
}

func TestInvalidateClearsBothKeys(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Open(ctx, "opaque")
	require.NoError(t, err)

	require.NoError(t, sess.Invalidate(ctx))
	require.NoError(t, sess.Invalidate(ctx))
	assert.True(t, sess.Invalidated())
	assert.Equal(t, model.Profile{}, sess.Profile())

	_, err = db.Get(ctx, "session:"+sess.ID()+":token")
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = db.Get(ctx, "session:"+sess.ID()+":profile")
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = sess.Token(ctx)
	assert.ErrorIs(t, err, ErrInvalidated)

	_, err = svc.Load(ctx, sess.ID())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestExpiredTokenInvalidatesSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	exp := time.Now().Add(time.Hour)
	sess, err := svc.Open(ctx, signedToken(t, exp))
	require.NoError(t, err)

	_, err = sess.Token(ctx)
	require.NoError(t, err)

	svc.now = func() time.Time { return exp.Add(time.Minute) }
	_, err = sess.Token(ctx)
	assert.True(t, errors.Is(err, ErrTokenExpired))
	assert.True(t, sess.Invalidated())

	_, err = svc.Load(ctx, sess.ID())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLoadUnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Open(ctx, "opaque")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateProfile(ctx, sess, model.Profile{ID: "u1", Username: "ada2"}))
	assert.Equal(t, "ada2", sess.Profile().Username)

	loaded, err := svc.Load(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, "ada2", loaded.Profile().Username)
}
