package api

import (
	"net/http"

	"github.com/openhearth/hearth/pkg/httputil"
	"github.com/openhearth/hearth/pkg/model"
)

// User satellite record handlers. GETs rely on the scoped reads, which
// already restrict rows to visible users; mutations additionally consult the
// policy so cross-user writes fail with the right status.

func (s *Server) getUserProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user")
	if !ok {
		return
	}
	profile, err := s.store.GetUserProfile(r.Context(), identityFrom(r), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, profile)
}

func (s *Server) createUserProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user")
	if !ok {
		return
	}
	var req model.UpdateUserProfileRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "user_profile", "create", s.policy.CreateUserProfile(idc, userID)) {
		return
	}
	profile, err := s.store.CreateUserProfile(r.Context(), idc, userID, &req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, profile)
}

func (s *Server) updateUserProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user")
	if !ok {
		return
	}
	idc := identityFrom(r)
	profile, err := s.store.GetUserProfile(r.Context(), idc, userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	var req model.UpdateUserProfileRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !s.authorize(w, r, "user_profile", "update", s.policy.UpdateUserProfile(idc, userID, profile)) {
		return
	}
	updated, err := s.store.UpdateUserProfile(r.Context(), idc, userID, &req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, updated)
}

func (s *Server) deleteUserProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user")
	if !ok {
		return
	}
	idc := identityFrom(r)
	profile, err := s.store.GetUserProfile(r.Context(), idc, userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if !s.authorize(w, r, "user_profile", "delete", s.policy.DeleteUserProfile(idc, userID, profile)) {
		return
	}
	if err := s.store.DeleteUserProfile(r.Context(), idc, profile.ID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.recordDeletion(r, "user_profile", profile.ID)
	httputil.WriteNoContent(w)
}

func (s *Server) uploadProfileImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user")
	if !ok {
		return
	}
	idc := identityFrom(r)
	profile, err := s.store.GetUserProfile(r.Context(), idc, userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if !s.authorize(w, r, "user_profile", "update", s.policy.UpdateUserProfile(idc, userID, profile)) {
		return
	}
	s.handleImageUpload(w, r, model.ContainerUserProfile, profile.ID)
}

func (s *Server) getUserSetting(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user")
	if !ok {
		return
	}
	setting, err := s.store.GetUserSetting(r.Context(), identityFrom(r), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, setting)
}

func (s *Server) createUserSetting(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user")
	if !ok {
		return
	}
	var req model.UpsertUserSettingRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "user_setting", "create", s.policy.CreateUserSetting(idc, userID)) {
		return
	}
	setting, err := s.store.CreateUserSetting(r.Context(), idc, userID, &req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, setting)
}

func (s *Server) updateUserSetting(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user")
	if !ok {
		return
	}
	idc := identityFrom(r)
	setting, err := s.store.GetUserSetting(r.Context(), idc, userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	var req model.UpsertUserSettingRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !s.authorize(w, r, "user_setting", "update", s.policy.UpdateUserSetting(idc, userID, setting)) {
		return
	}
	updated, err := s.store.UpdateUserSetting(r.Context(), idc, setting.ID, &req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, updated)
}

func (s *Server) deleteUserSetting(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user")
	if !ok {
		return
	}
	idc := identityFrom(r)
	setting, err := s.store.GetUserSetting(r.Context(), idc, userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if !s.authorize(w, r, "user_setting", "delete", s.policy.DeleteUserSetting(idc, userID, setting)) {
		return
	}
	if err := s.store.DeleteUserSetting(r.Context(), idc, setting.ID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.recordDeletion(r, "user_setting", setting.ID)
	httputil.WriteNoContent(w)
}

func (s *Server) restoreUserSetting(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user")
	if !ok {
		return
	}
	idc := identityFrom(r)
	deleted, err := s.store.DeletedUserSetting(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if !s.authorize(w, r, "user_setting", "restore", s.policy.RestoreUserSetting(idc, userID, deleted)) {
		return
	}
	restored, err := s.store.RestoreUserSetting(r.Context(), idc, deleted.ID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, restored)
}

func (s *Server) getUserPrivacy(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user")
	if !ok {
		return
	}
	privacy, err := s.store.GetUserPrivacy(r.Context(), identityFrom(r), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, privacy)
}

func (s *Server) createUserPrivacy(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user")
	if !ok {
		return
	}
	var req model.UpsertUserPrivacyRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "user_privacy_setting", "create", s.policy.CreateUserPrivacy(r.Context(), idc, userID)) {
		return
	}
	privacy, err := s.store.CreateUserPrivacy(r.Context(), idc, userID, &req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, privacy)
}

func (s *Server) updateUserPrivacy(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user")
	if !ok {
		return
	}
	idc := identityFrom(r)
	privacy, err := s.store.GetUserPrivacy(r.Context(), idc, userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	var req model.UpsertUserPrivacyRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !s.authorize(w, r, "user_privacy_setting", "update", s.policy.UpdateUserPrivacy(idc, userID, privacy)) {
		return
	}
	updated, err := s.store.UpdateUserPrivacy(r.Context(), idc, privacy.ID, &req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, updated)
}

func (s *Server) deleteUserPrivacy(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user")
	if !ok {
		return
	}
	idc := identityFrom(r)
	privacy, err := s.store.GetUserPrivacy(r.Context(), idc, userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if !s.authorize(w, r, "user_privacy_setting", "delete", s.policy.DeleteUserPrivacy(idc, userID, privacy)) {
		return
	}
	if err := s.store.DeleteUserPrivacy(r.Context(), idc, privacy.ID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.recordDeletion(r, "user_privacy_setting", privacy.ID)
	httputil.WriteNoContent(w)
}
