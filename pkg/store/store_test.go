package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/model"
)

// staticReader feeds the identity context fixed visibility sets so the scoped
// query shapes are deterministic.
type staticReader struct {
	memberSpaces   []int64
	memberChannels []int64
	publicUsers    []int64
	openSpaces     []int64
}

func (r *staticReader) MemberSpaceIDs(ctx context.Context, userID int64) ([]int64, error) {
	return r.memberSpaces, nil
}

func (r *staticReader) MemberChannelIDs(ctx context.Context, userID int64) ([]int64, error) {
	return r.memberChannels, nil
}

func (r *staticReader) SpaceMemberUserIDs(ctx context.Context, spaceIDs []int64) ([]int64, error) {
	return nil, nil
}

func (r *staticReader) PublicUserIDs(ctx context.Context) ([]int64, error) {
	return r.publicUsers, nil
}

func (r *staticReader) NonPrivateSpaceIDs(ctx context.Context) ([]int64, error) {
	return r.openSpaces, nil
}

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func memberOf(spaceIDs ...int64) *identity.Context {
	return identity.New(&model.User{ID: 10}, &staticReader{memberSpaces: spaceIDs})
}

var spaceColumnNames = []string{
	"id", "name", "bio", "website", "phone_number",
	"latitude", "longitude", "address", "privacy", "owner_id",
	"created_by", "updated_by", "deleted_by",
	"created_at", "updated_at", "deleted_at",
}

func spaceRow(id int64, name string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(spaceColumnNames).AddRow(
		id, name, nil, nil, nil,
		nil, nil, nil, "public", int64(10),
		int64(10), int64(10), nil,
		now, now, nil,
	)
}

func TestGetSpaceComposesScopePredicate(t *testing.T) {
	store, mock := newTestStore(t)
	idc := memberOf(1)

	mock.ExpectQuery(`SELECT .+ FROM spaces WHERE spaces\.id = ANY\(\$1\) AND spaces\.deleted_at IS NULL AND spaces\.id = \$2`).
		WithArgs(pq.Array([]int64{1}), int64(1)).
		WillReturnRows(spaceRow(1, "engineering"))

	space, err := store.GetSpace(context.Background(), idc, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), space.ID)
	assert.Equal(t, "engineering", space.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSpaceInvisibleReadsAsNotFound(t *testing.T) {
	store, mock := newTestStore(t)
	idc := memberOf() // belongs to nothing

	mock.ExpectQuery(`SELECT .+ FROM spaces WHERE`).
		WillReturnRows(sqlmock.NewRows(spaceColumnNames))

	_, err := store.GetSpace(context.Background(), idc, 1)
	assert.True(t, errs.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSpaceBundlesMemberAndOwnerRole(t *testing.T) {
	store, mock := newTestStore(t)
	idc := memberOf()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO spaces`).
		WithArgs("engineering", nil, nil, nil, nil, nil, nil, model.PrivacyPrivate, int64(10), int64(10)).
		WillReturnRows(spaceRow(1, "engineering"))
	mock.ExpectQuery(`INSERT INTO space_members`).
		WithArgs(int64(1), int64(10), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(`INSERT INTO space_member_roles`).
		WithArgs(int64(1), int64(10), int64(7), "owner", int64(10)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	space, err := store.CreateSpace(context.Background(), idc, &model.CreateSpaceRequest{
		Name:    "engineering",
		Privacy: model.PrivacyPrivate,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), space.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSpaceRequiresActor(t *testing.T) {
	store, _ := newTestStore(t)
	idc := identity.New(nil, &staticReader{})

	_, err := store.CreateSpace(context.Background(), idc, &model.CreateSpaceRequest{Name: "x", Privacy: model.PrivacyPublic})
	assert.True(t, errs.IsForbidden(err))
}

func TestDeleteSpaceStampsActor(t *testing.T) {
	store, mock := newTestStore(t)
	idc := memberOf(1)

	mock.ExpectExec(`UPDATE spaces\s+SET deleted_at = NOW\(\), deleted_by = \$1, updated_at = NOW\(\), updated_by = \$2\s+WHERE id = \$3 AND deleted_at IS NULL`).
		WithArgs(int64(10), int64(10), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.DeleteSpace(context.Background(), idc, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSpaceAlreadyDeleted(t *testing.T) {
	store, mock := newTestStore(t)
	idc := memberOf(1)

	mock.ExpectExec(`UPDATE spaces`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteSpace(context.Background(), idc, 1)
	assert.True(t, errs.IsNotFound(err))
}

func TestCreateSpaceMemberUniqueViolation(t *testing.T) {
	store, mock := newTestStore(t)
	idc := memberOf(1)

	mock.ExpectQuery(`INSERT INTO space_members`).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := store.CreateSpaceMember(context.Background(), idc, 1, &model.CreateSpaceMemberRequest{UserID: 20})
	assert.True(t, errs.IsConflict(err))
}

func TestTransferSpaceOwnershipLostRace(t *testing.T) {
	store, mock := newTestStore(t)
	idc := memberOf(1)

	mock.ExpectBegin()
	// Another transfer won: the locked owner role belongs to someone else.
	mock.ExpectQuery(`SELECT id, user_id FROM space_member_roles`).
		WithArgs(int64(1), "owner").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(int64(3), int64(99)))
	mock.ExpectRollback()

	_, err := store.TransferSpaceOwnership(context.Background(), idc, 1, 5, 7)
	assert.True(t, errs.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferSpaceOwnershipToSelf(t *testing.T) {
	store, mock := newTestStore(t)
	idc := memberOf(1)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, user_id FROM space_member_roles`).
		WithArgs(int64(1), "owner").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(int64(7), int64(10)))
	mock.ExpectRollback()

	// The target role is the owner role itself.
	_, err := store.TransferSpaceOwnership(context.Background(), idc, 1, 5, 7)
	assert.True(t, errs.IsConflict(err))
}

func TestPurgeExpiredTokens(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec(`DELETE FROM auth_tokens`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	purged, err := store.PurgeExpiredTokens(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), purged)
}
