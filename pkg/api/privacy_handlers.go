package api

import (
	"net/http"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/httputil"
	"github.com/openhearth/hearth/pkg/model"
)

// resolveSpacePrivacySetting loads the space's active setting and verifies it
// matches the route id. A space carries at most one active setting row.
func (s *Server) resolveSpacePrivacySetting(w http.ResponseWriter, r *http.Request, space *model.Space) (*model.SpacePrivacySetting, bool) {
	settingID, ok := httputil.ParsePathInt64OrError(w, r, "setting")
	if !ok {
		return nil, false
	}
	setting, err := s.store.GetSpacePrivacy(r.Context(), identityFrom(r), space.ID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return nil, false
	}
	if setting.ID != settingID {
		httputil.WriteDomainError(w, errs.NotFound("space privacy setting"))
		return nil, false
	}
	return setting, true
}

func (s *Server) getSpacePrivacy(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	setting, err := s.store.GetSpacePrivacy(r.Context(), identityFrom(r), space.ID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, setting)
}

func (s *Server) createSpacePrivacy(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	var req model.UpsertSpacePrivacyRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "space_privacy_setting", "create", s.policy.CreateSpacePrivacy(r.Context(), idc, space)) {
		return
	}
	setting, err := s.store.CreateSpacePrivacy(r.Context(), idc, space.ID, &req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, setting)
}

func (s *Server) getSpacePrivacyByID(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	setting, ok := s.resolveSpacePrivacySetting(w, r, space)
	if !ok {
		return
	}
	if !s.authorize(w, r, "space_privacy_setting", "view", s.policy.ViewSpacePrivacy(space, setting)) {
		return
	}
	httputil.WriteSuccess(w, setting)
}

func (s *Server) updateSpacePrivacy(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	setting, ok := s.resolveSpacePrivacySetting(w, r, space)
	if !ok {
		return
	}
	var req model.UpsertSpacePrivacyRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "space_privacy_setting", "update", s.policy.UpdateSpacePrivacy(r.Context(), idc, space, setting)) {
		return
	}
	updated, err := s.store.UpdateSpacePrivacy(r.Context(), idc, setting.ID, &req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, updated)
}

func (s *Server) deleteSpacePrivacy(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	setting, ok := s.resolveSpacePrivacySetting(w, r, space)
	if !ok {
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "space_privacy_setting", "delete", s.policy.DeleteSpacePrivacy(r.Context(), idc, space, setting)) {
		return
	}
	if err := s.store.DeleteSpacePrivacy(r.Context(), idc, setting.ID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.recordDeletion(r, "space_privacy_setting", setting.ID)
	httputil.WriteNoContent(w)
}
