package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhearth/hearth/pkg/model"
)

// fakeReader counts calls so the tests can assert memoization.
type fakeReader struct {
	memberSpaces   []int64
	memberChannels []int64
	peerUsers      []int64
	publicUsers    []int64
	openSpaces     []int64

	memberSpaceCalls int
	peerUserCalls    int
	publicUserCalls  int
	openSpaceCalls   int
}

func (f *fakeReader) MemberSpaceIDs(ctx context.Context, userID int64) ([]int64, error) {
	f.memberSpaceCalls++
	return f.memberSpaces, nil
}

func (f *fakeReader) MemberChannelIDs(ctx context.Context, userID int64) ([]int64, error) {
	return f.memberChannels, nil
}

func (f *fakeReader) SpaceMemberUserIDs(ctx context.Context, spaceIDs []int64) ([]int64, error) {
	f.peerUserCalls++
	return f.peerUsers, nil
}

func (f *fakeReader) PublicUserIDs(ctx context.Context) ([]int64, error) {
	f.publicUserCalls++
	return f.publicUsers, nil
}

func (f *fakeReader) NonPrivateSpaceIDs(ctx context.Context) ([]int64, error) {
	f.openSpaceCalls++
	return f.openSpaces, nil
}

func actor(id int64) *model.User {
	return &model.User{ID: id}
}

func TestSpaceIDsMemoized(t *testing.T) {
	reader := &fakeReader{memberSpaces: []int64{3, 1, 3, 2}}
	idc := New(actor(10), reader)
	ctx := context.Background()

	ids, err := idc.SpaceIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	// Second call must not hit the reader again.
	_, err = idc.SpaceIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reader.memberSpaceCalls)
}

func TestResetDiscardsMemoizedSets(t *testing.T) {
	reader := &fakeReader{memberSpaces: []int64{1}}
	idc := New(actor(10), reader)
	ctx := context.Background()

	_, err := idc.SpaceIDs(ctx)
	require.NoError(t, err)

	reader.memberSpaces = []int64{1, 2}
	idc.Reset()

	ids, err := idc.SpaceIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
	assert.Equal(t, 2, reader.memberSpaceCalls)
}

func TestVisibleUserIDsUnion(t *testing.T) {
	reader := &fakeReader{
		memberSpaces: []int64{1},
		peerUsers:    []int64{20, 30},
		publicUsers:  []int64{30, 40},
	}
	idc := New(actor(10), reader)

	ids, err := idc.VisibleUserIDs(context.Background())
	require.NoError(t, err)

	// Peers, public users and the actor themself, deduplicated and sorted.
	assert.Equal(t, []int64{10, 20, 30, 40}, ids)
}

func TestVisibleUserIDsAnonymous(t *testing.T) {
	reader := &fakeReader{publicUsers: []int64{40, 20}}
	idc := New(nil, reader)

	ids, err := idc.VisibleUserIDs(context.Background())
	require.NoError(t, err)

	// Anonymous identities only see public users; the member derivations are
	// never consulted.
	assert.Equal(t, []int64{20, 40}, ids)
	assert.Equal(t, 0, reader.memberSpaceCalls)
	assert.Equal(t, 0, reader.peerUserCalls)
}

func TestVisibleSpaceIDsUnion(t *testing.T) {
	reader := &fakeReader{
		memberSpaces: []int64{5, 1},
		openSpaces:   []int64{2, 5},
	}
	idc := New(actor(10), reader)

	ids, err := idc.VisibleSpaceIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 5}, ids)
}

func TestCanSeeSpace(t *testing.T) {
	reader := &fakeReader{memberSpaces: []int64{1}, openSpaces: []int64{2}}
	idc := New(actor(10), reader)
	ctx := context.Background()

	visible, err := idc.CanSeeSpace(ctx, 1)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = idc.CanSeeSpace(ctx, 2)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = idc.CanSeeSpace(ctx, 3)
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestBelongsToChannel(t *testing.T) {
	reader := &fakeReader{memberChannels: []int64{7}}
	idc := New(actor(10), reader)
	ctx := context.Background()

	in, err := idc.BelongsToChannel(ctx, 7)
	require.NoError(t, err)
	assert.True(t, in)

	in, err = idc.BelongsToChannel(ctx, 8)
	require.NoError(t, err)
	assert.False(t, in)
}

func TestAnonymousContext(t *testing.T) {
	reader := &fakeReader{}
	idc := New(nil, reader)
	ctx := context.Background()

	assert.False(t, idc.Authenticated())
	assert.Nil(t, idc.Actor())
	assert.Equal(t, model.SystemActorID, idc.ActorID())

	spaces, err := idc.SpaceIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, spaces)

	channels, err := idc.ChannelIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, channels)
	assert.Equal(t, 0, reader.memberSpaceCalls)
}
