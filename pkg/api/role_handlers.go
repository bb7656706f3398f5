package api

import (
	"net/http"
	"strconv"

	"github.com/openhearth/hearth/pkg/audit"
	"github.com/openhearth/hearth/pkg/httputil"
	"github.com/openhearth/hearth/pkg/model"
)

func (s *Server) resolveSpaceMemberRole(w http.ResponseWriter, r *http.Request) (*model.SpaceMemberRole, bool) {
	roleID, ok := httputil.ParsePathInt64OrError(w, r, "role")
	if !ok {
		return nil, false
	}
	role, err := s.store.GetSpaceMemberRole(r.Context(), identityFrom(r), roleID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return nil, false
	}
	return role, true
}

func (s *Server) listSpaceMemberRoles(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	member, ok := s.resolveSpaceMember(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, "space_member_role", "view", s.policy.ViewSpaceMember(space, member)) {
		return
	}
	memberRoles, err := s.store.ListSpaceMemberRoles(r.Context(), identityFrom(r), member.ID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, memberRoles)
}

func (s *Server) createSpaceMemberRole(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	member, ok := s.resolveSpaceMember(w, r)
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
	if !s.authorize(w, r, "space_member_role", "create", s.policy.CreateSpaceMemberRole(r.Context(), idc, space, member, requested)) {
		return
	}
	created, err := s.store.CreateSpaceMemberRole(r.Context(), idc, member, requested)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, created)
}

func (s *Server) getSpaceMemberRole(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	member, ok := s.resolveSpaceMember(w, r)
	if !ok {
		return
	}
	role, ok := s.resolveSpaceMemberRole(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, "space_member_role", "view", s.policy.ViewSpaceMemberRole(space, member, role)) {
		return
	}
	httputil.WriteSuccess(w, role)
}

func (s *Server) updateSpaceMemberRole(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	member, ok := s.resolveSpaceMember(w, r)
	if !ok {
		return
	}
	role, ok := s.resolveSpaceMemberRole(w, r)
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
	if !s.authorize(w, r, "space_member_role", "update", s.policy.UpdateSpaceMemberRole(r.Context(), idc, space, member, role, requested)) {
		return
	}
	updated, err := s.store.UpdateSpaceMemberRole(r.Context(), idc, role.ID, requested)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, updated)
}

func (s *Server) transferSpaceOwnership(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	member, ok := s.resolveSpaceMember(w, r)
	if !ok {
		return
	}
	role, ok := s.resolveSpaceMemberRole(w, r)
	if !ok {
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "space_member_role", "transfer_ownership", s.policy.TransferSpaceOwnership(r.Context(), idc, space, member, role)) {
		return
	}
	promoted, err := s.store.TransferSpaceOwnership(r.Context(), idc, space.ID, member.ID, role.ID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if s.audit != nil {
		actorID := idc.ActorID()
		s.audit.Record(r.Context(), audit.Event{
			EventType:    audit.EventOwnershipTransfer,
			UserID:       &actorID,
			ResourceType: "space",
			ResourceID:   strconv.FormatInt(space.ID, 10),
			Status:       audit.StatusAllowed,
			Detail:       "ownership transferred to user " + strconv.FormatInt(member.UserID, 10),
		})
	}
	httputil.WriteSuccess(w, promoted)
}

func (s *Server) deleteSpaceMemberRole(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	member, ok := s.resolveSpaceMember(w, r)
	if !ok {
		return
	}
	role, ok := s.resolveSpaceMemberRole(w, r)
	if !ok {
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "space_member_role", "delete", s.policy.DeleteSpaceMemberRole(r.Context(), idc, space, member, role)) {
		return
	}
	if err := s.store.DeleteSpaceMemberRole(r.Context(), idc, role.ID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.recordDeletion(r, "space_member_role", role.ID)
	httputil.WriteNoContent(w)
}
