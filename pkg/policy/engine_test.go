package policy

import (
	"context"

	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/model"
	"github.com/openhearth/hearth/pkg/roles"
)

// fakeStore backs the engine with in-memory membership state.
type fakeStore struct {
	spaceMembers   map[[2]int64]*model.SpaceMember   // (spaceID, userID)
	channelMembers map[[2]int64]*model.ChannelMember // (channelID, userID)
	memberRoles    map[int64]bool                    // memberID -> has role row
	userPrivacy    map[int64]bool                    // userID -> has privacy row
	spacePrivacy   map[int64]bool                    // spaceID -> has privacy row
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		spaceMembers:   make(map[[2]int64]*model.SpaceMember),
		channelMembers: make(map[[2]int64]*model.ChannelMember),
		memberRoles:    make(map[int64]bool),
		userPrivacy:    make(map[int64]bool),
		spacePrivacy:   make(map[int64]bool),
	}
}

func (f *fakeStore) addSpaceMember(spaceID, userID int64, role roles.Role) *model.SpaceMember {
	member := &model.SpaceMember{
		ID:      int64(len(f.spaceMembers) + 1),
		SpaceID: spaceID,
		UserID:  userID,
		Role:    role,
	}
	f.spaceMembers[[2]int64{spaceID, userID}] = member
	return member
}

func (f *fakeStore) addChannelMember(channelID, userID int64, role roles.Role) *model.ChannelMember {
	member := &model.ChannelMember{
		ID:        int64(len(f.channelMembers) + 1),
		ChannelID: channelID,
		UserID:    userID,
		Role:      role,
	}
	f.channelMembers[[2]int64{channelID, userID}] = member
	return member
}

func (f *fakeStore) SpaceMembershipUnscoped(ctx context.Context, spaceID, userID int64) (*model.SpaceMember, error) {
	return f.spaceMembers[[2]int64{spaceID, userID}], nil
}

func (f *fakeStore) ChannelMembershipUnscoped(ctx context.Context, channelID, userID int64) (*model.ChannelMember, error) {
	return f.channelMembers[[2]int64{channelID, userID}], nil
}

func (f *fakeStore) SpaceHasMemberUser(ctx context.Context, spaceID, userID int64) (bool, error) {
	return f.spaceMembers[[2]int64{spaceID, userID}] != nil, nil
}

func (f *fakeStore) MemberHasRoleRow(ctx context.Context, memberID int64) (bool, error) {
	return f.memberRoles[memberID], nil
}

func (f *fakeStore) UserPrivacyExists(ctx context.Context, userID int64) (bool, error) {
	return f.userPrivacy[userID], nil
}

func (f *fakeStore) SpacePrivacyExists(ctx context.Context, spaceID int64) (bool, error) {
	return f.spacePrivacy[spaceID], nil
}

func authedAs(userID int64) *identity.Context {
	return identity.New(&model.User{ID: userID}, nil)
}

func anonymous() *identity.Context {
	return identity.New(nil, nil)
}
