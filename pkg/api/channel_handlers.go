package api

import (
	"net/http"

	"github.com/openhearth/hearth/pkg/httputil"
	"github.com/openhearth/hearth/pkg/model"
)

func (s *Server) resolveChannel(w http.ResponseWriter, r *http.Request) (*model.Channel, bool) {
	channelID, ok := httputil.ParsePathInt64OrError(w, r, "channel")
	if !ok {
		return nil, false
	}
	channel, err := s.store.GetChannel(r.Context(), identityFrom(r), channelID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return nil, false
	}
	return channel, true
}

func (s *Server) listChannels(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	channels, err := s.store.ListChannels(r.Context(), identityFrom(r), space.ID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, channels)
}

func (s *Server) createChannel(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	var req model.CreateChannelRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "channel", "create", s.policy.CreateChannel(r.Context(), idc, space)) {
		return
	}
	channel, err := s.store.CreateChannel(r.Context(), idc, space.ID, &req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, channel)
}

func (s *Server) getChannel(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	channel, ok := s.resolveChannel(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, "channel", "view", s.policy.ViewChannel(space, channel)) {
		return
	}
	httputil.WriteSuccess(w, channel)
}

func (s *Server) updateChannel(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	channel, ok := s.resolveChannel(w, r)
	if !ok {
		return
	}
	var req model.UpdateChannelRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "channel", "update", s.policy.UpdateChannel(r.Context(), idc, space, channel)) {
		return
	}
	updated, err := s.store.UpdateChannel(r.Context(), idc, channel.ID, &req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, updated)
}

func (s *Server) deleteChannel(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	channel, ok := s.resolveChannel(w, r)
	if !ok {
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "channel", "delete", s.policy.DeleteChannel(idc, space, channel)) {
		return
	}
	if err := s.store.DeleteChannel(r.Context(), idc, channel.ID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.recordDeletion(r, "channel", channel.ID)
	httputil.WriteNoContent(w)
}
