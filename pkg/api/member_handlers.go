package api

import (
	"net/http"

	"github.com/openhearth/hearth/pkg/httputil"
	"github.com/openhearth/hearth/pkg/model"
)

// resolveSpaceMember loads the route member through the scoped read. The
// parent chain check stays in the policy.
func (s *Server) resolveSpaceMember(w http.ResponseWriter, r *http.Request) (*model.SpaceMember, bool) {
	memberID, ok := httputil.ParsePathInt64OrError(w, r, "member")
	if !ok {
		return nil, false
	}
	member, err := s.store.GetSpaceMember(r.Context(), identityFrom(r), memberID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return nil, false
	}
	return member, true
}

func (s *Server) listSpaceMembers(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	members, err := s.store.ListSpaceMembers(r.Context(), identityFrom(r), space.ID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, members)
}

func (s *Server) createSpaceMember(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	var req model.CreateSpaceMemberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "space_member", "create", s.policy.CreateSpaceMember(r.Context(), idc, space, &req)) {
		return
	}
	member, err := s.store.CreateSpaceMember(r.Context(), idc, space.ID, &req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, member)
}

func (s *Server) getSpaceMember(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	member, ok := s.resolveSpaceMember(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, "space_member", "view", s.policy.ViewSpaceMember(space, member)) {
		return
	}
	httputil.WriteSuccess(w, member)
}

func (s *Server) updateSpaceMember(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	member, ok := s.resolveSpaceMember(w, r)
	if !ok {
		return
	}
	var req model.UpdateSpaceMemberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "space_member", "update", s.policy.UpdateSpaceMember(idc, space, member)) {
		return
	}
	updated, err := s.store.UpdateSpaceMember(r.Context(), idc, member.ID, &req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, updated)
}

func (s *Server) deleteSpaceMember(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	member, ok := s.resolveSpaceMember(w, r)
	if !ok {
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "space_member", "delete", s.policy.DeleteSpaceMember(r.Context(), idc, space, member)) {
		return
	}
	if err := s.store.DeleteSpaceMember(r.Context(), idc, member.ID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.recordDeletion(r, "space_member", member.ID)
	httputil.WriteNoContent(w)
}
