package api

import (
	"net/http"
	"strconv"

	"github.com/openhearth/hearth/pkg/audit"
	"github.com/openhearth/hearth/pkg/httputil"
	"github.com/openhearth/hearth/pkg/model"
)

func (s *Server) resolveChannelMember(w http.ResponseWriter, r *http.Request) (*model.ChannelMember, bool) {
	memberID, ok := httputil.ParsePathInt64OrError(w, r, "member")
	if !ok {
		return nil, false
	}
	member, err := s.store.GetChannelMember(r.Context(), identityFrom(r), memberID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return nil, false
	}
	return member, true
}

func (s *Server) listChannelMembers(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	channel, ok := s.resolveChannel(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, "channel_member", "view", s.policy.ViewChannel(space, channel)) {
		return
	}
	members, err := s.store.ListChannelMembers(r.Context(), identityFrom(r), channel.ID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, members)
}

func (s *Server) createChannelMember(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	channel, ok := s.resolveChannel(w, r)
	if !ok {
		return
	}
	var req model.CreateChannelMemberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	requested, err := req.Validate()
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "channel_member", "create", s.policy.CreateChannelMember(r.Context(), idc, space, channel, req.UserID, requested)) {
		return
	}
	member, err := s.store.CreateChannelMember(r.Context(), idc, channel.ID, req.UserID, requested)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, member)
}

func (s *Server) getChannelMember(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	channel, ok := s.resolveChannel(w, r)
	if !ok {
		return
	}
	member, ok := s.resolveChannelMember(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, "channel_member", "view", s.policy.ViewChannelMember(space, channel, member)) {
		return
	}
	httputil.WriteSuccess(w, member)
}

func (s *Server) updateChannelMember(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	channel, ok := s.resolveChannel(w, r)
	if !ok {
		return
	}
	member, ok := s.resolveChannelMember(w, r)
	if !ok {
		return
	}
	var req model.RoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	requested, err := req.ParseRole()
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "channel_member", "update", s.policy.UpdateChannelMember(r.Context(), idc, space, channel, member, requested)) {
		return
	}
	updated, err := s.store.UpdateChannelMemberRole(r.Context(), idc, member.ID, requested)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, updated)
}

func (s *Server) transferChannelOwnership(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	channel, ok := s.resolveChannel(w, r)
	if !ok {
		return
	}
	member, ok := s.resolveChannelMember(w, r)
	if !ok {
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "channel_member", "transfer_ownership", s.policy.TransferChannelOwnership(r.Context(), idc, space, channel, member)) {
		return
	}
	promoted, err := s.store.TransferChannelOwnership(r.Context(), idc, channel.ID, member.ID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if s.audit != nil {
		actorID := idc.ActorID()
		s.audit.Record(r.Context(), audit.Event{
			EventType:    audit.EventOwnershipTransfer,
			UserID:       &actorID,
			ResourceType: "channel",
			ResourceID:   strconv.FormatInt(channel.ID, 10),
			Status:       audit.StatusAllowed,
			Detail:       "ownership transferred to user " + strconv.FormatInt(member.UserID, 10),
		})
	}
	httputil.WriteSuccess(w, promoted)
}

func (s *Server) deleteChannelMember(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	channel, ok := s.resolveChannel(w, r)
	if !ok {
		return
	}
	member, ok := s.resolveChannelMember(w, r)
	if !ok {
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "channel_member", "delete", s.policy.DeleteChannelMember(r.Context(), idc, space, channel, member)) {
		return
	}
	if err := s.store.DeleteChannelMember(r.Context(), idc, member.ID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.recordDeletion(r, "channel_member", member.ID)
	httputil.WriteNoContent(w)
}
