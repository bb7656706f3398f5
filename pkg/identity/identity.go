// Package identity holds the per-request identity context: the current actor
// and the visibility sets derived from it.
//
// A Context must be constructed fresh for every logical operation (the HTTP
// middleware builds one per request). All derived values are memoized and
// computed at most once per Context; Reset discards them. Sharing a Context
// across unrelated operations without Reset is a correctness bug: the
// memoized sets would leak one actor's visibility into another operation.
package identity

import (
	"context"
	"sort"

	"github.com/openhearth/hearth/pkg/model"
)

// TrustedReader is the narrow, unscoped query surface the identity context
// needs to derive visibility sets. Implementations bypass row scoping on
// purpose (the sets are the input of row scoping) but must still exclude
// soft-deleted rows. It is never reachable from untrusted input paths.
type TrustedReader interface {
	// MemberSpaceIDs returns the ids of spaces the user actively belongs to.
	MemberSpaceIDs(ctx context.Context, userID int64) ([]int64, error)
	// MemberChannelIDs returns the ids of channels the user actively belongs to.
	MemberChannelIDs(ctx context.Context, userID int64) ([]int64, error)
	// SpaceMemberUserIDs returns the user ids of all active members of the
	// given spaces.
	SpaceMemberUserIDs(ctx context.Context, spaceIDs []int64) ([]int64, error)
	// PublicUserIDs returns the ids of users whose privacy setting marks
	// them public.
	PublicUserIDs(ctx context.Context) ([]int64, error)
	// NonPrivateSpaceIDs returns the ids of spaces with privacy public or
	// protected.
	NonPrivateSpaceIDs(ctx context.Context) ([]int64, error)
}

// Context carries the actor and memoized visibility sets for one operation.
// It is not safe for concurrent use; one Context serves one request.
type Context struct {
	actor  *model.User
	reader TrustedReader

	spaceIDs        []int64
	channelIDs      []int64
	visibleUserIDs  []int64
	visibleSpaceIDs []int64

	haveSpaces        bool
	haveChannels      bool
	haveVisibleUsers  bool
	haveVisibleSpaces bool
}

// New creates a Context for the given actor. The actor may be nil for public
// endpoints.
func New(actor *model.User, reader TrustedReader) *Context {
	return &Context{actor: actor, reader: reader}
}

// Reset discards every memoized set. It must be called whenever a Context is
// reused across logical operations (e.g. between test cases).
func (c *Context) Reset() {
	c.spaceIDs = nil
	c.channelIDs = nil
	c.visibleUserIDs = nil
	c.visibleSpaceIDs = nil
	c.haveSpaces = false
	c.haveChannels = false
	c.haveVisibleUsers = false
	c.haveVisibleSpaces = false
}

// Actor returns the current actor, or nil for unauthenticated operations.
func (c *Context) Actor() *model.User {
	return c.actor
}

// ActorID returns the current actor's id, or model.SystemActorID when there
// is no actor.
func (c *Context) ActorID() int64 {
	if c.actor == nil {
		return model.SystemActorID
	}
	return c.actor.ID
}

// Authenticated reports whether an actor is present.
func (c *Context) Authenticated() bool {
	return c.actor != nil
}

// SpaceIDs returns the ids of spaces the actor belongs to, computed at most
// once per Context.
func (c *Context) SpaceIDs(ctx context.Context) ([]int64, error) {
	if c.haveSpaces {
		return c.spaceIDs, nil
	}
	if c.actor == nil {
		c.spaceIDs, c.haveSpaces = []int64{}, true
		return c.spaceIDs, nil
	}
	ids, err := c.reader.MemberSpaceIDs(ctx, c.actor.ID)
	if err != nil {
		return nil, err
	}
	c.spaceIDs, c.haveSpaces = dedupe(ids), true
	return c.spaceIDs, nil
}

// ChannelIDs returns the ids of channels the actor belongs to, computed at
// most once per Context.
func (c *Context) ChannelIDs(ctx context.Context) ([]int64, error) {
	if c.haveChannels {
		return c.channelIDs, nil
	}
	if c.actor == nil {
		c.channelIDs, c.haveChannels = []int64{}, true
		return c.channelIDs, nil
	}
	ids, err := c.reader.MemberChannelIDs(ctx, c.actor.ID)
	if err != nil {
		return nil, err
	}
	c.channelIDs, c.haveChannels = dedupe(ids), true
	return c.channelIDs, nil
}

// VisibleUserIDs returns the union of: users sharing a space with the actor,
// users whose privacy setting is public, and the actor themself.
func (c *Context) VisibleUserIDs(ctx context.Context) ([]int64, error) {
	if c.haveVisibleUsers {
		return c.visibleUserIDs, nil
	}

	publicIDs, err := c.reader.PublicUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	union := publicIDs
	if c.actor != nil {
		spaceIDs, err := c.SpaceIDs(ctx)
		if err != nil {
			return nil, err
		}
		peerIDs, err := c.reader.SpaceMemberUserIDs(ctx, spaceIDs)
		if err != nil {
			return nil, err
		}
		union = append(union, peerIDs...)
		union = append(union, c.actor.ID)
	}

	c.visibleUserIDs, c.haveVisibleUsers = dedupe(union), true
	return c.visibleUserIDs, nil
}

// VisibleSpaceIDs returns the union of the actor's spaces and every space
// with privacy public or protected.
func (c *Context) VisibleSpaceIDs(ctx context.Context) ([]int64, error) {
	if c.haveVisibleSpaces {
		return c.visibleSpaceIDs, nil
	}

	openIDs, err := c.reader.NonPrivateSpaceIDs(ctx)
	if err != nil {
		return nil, err
	}

	union := openIDs
	if c.actor != nil {
		belonged, err := c.SpaceIDs(ctx)
		if err != nil {
			return nil, err
		}
		union = append(union, belonged...)
	}

	c.visibleSpaceIDs, c.haveVisibleSpaces = dedupe(union), true
	return c.visibleSpaceIDs, nil
}

// CanSeeUser reports whether the given user id is in the actor's visible set.
func (c *Context) CanSeeUser(ctx context.Context, userID int64) (bool, error) {
	ids, err := c.VisibleUserIDs(ctx)
	if err != nil {
		return false, err
	}
	return contains(ids, userID), nil
}

// CanSeeSpace reports whether the given space id is in the actor's visible set.
func (c *Context) CanSeeSpace(ctx context.Context, spaceID int64) (bool, error) {
	ids, err := c.VisibleSpaceIDs(ctx)
	if err != nil {
		return false, err
	}
	return contains(ids, spaceID), nil
}

// BelongsToSpace reports whether the actor is an active member of the space.
func (c *Context) BelongsToSpace(ctx context.Context, spaceID int64) (bool, error) {
	ids, err := c.SpaceIDs(ctx)
	if err != nil {
		return false, err
	}
	return contains(ids, spaceID), nil
}

// BelongsToChannel reports whether the actor is an active member of the channel.
func (c *Context) BelongsToChannel(ctx context.Context, channelID int64) (bool, error) {
	ids, err := c.ChannelIDs(ctx)
	if err != nil {
		return false, err
	}
	return contains(ids, channelID), nil
}

// dedupe returns a sorted copy of ids with duplicates removed. Sorting keeps
// derived sets deterministic across re-derivations.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func contains(ids []int64, id int64) bool {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	return i < len(ids) && ids[i] == id
}
