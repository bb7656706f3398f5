package api

import (
	"net/http"
	"strconv"

	"github.com/openhearth/hearth/pkg/audit"
	"github.com/openhearth/hearth/pkg/httputil"
	"github.com/openhearth/hearth/pkg/model"
)

// resolveSpace loads the route space through the scoped read, writing the
// error response on failure.
func (s *Server) resolveSpace(w http.ResponseWriter, r *http.Request) (*model.Space, bool) {
	spaceID, ok := httputil.ParsePathInt64OrError(w, r, "space")
	if !ok {
		return nil, false
	}
	space, err := s.store.GetSpace(r.Context(), identityFrom(r), spaceID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return nil, false
	}
	return space, true
}

func (s *Server) listSpaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := s.store.ListSpaces(r.Context(), identityFrom(r))
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, spaces)
}

func (s *Server) createSpace(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSpaceRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "space", "create", s.policy.CreateSpace(idc)) {
		return
	}
	space, err := s.store.CreateSpace(r.Context(), idc, &req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, space)
}

func (s *Server) getSpace(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	httputil.WriteSuccess(w, space)
}

func (s *Server) updateSpace(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	var req model.UpdateSpaceRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "space", "update", s.policy.UpdateSpace(r.Context(), idc, space)) {
		return
	}
	updated, err := s.store.UpdateSpace(r.Context(), idc, space.ID, &req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, updated)
}

func (s *Server) deleteSpace(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "space", "delete", s.policy.DeleteSpace(idc, space)) {
		return
	}
	if err := s.store.DeleteSpace(r.Context(), idc, space.ID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.recordDeletion(r, "space", space.ID)
	httputil.WriteNoContent(w)
}

func (s *Server) uploadSpaceImage(w http.ResponseWriter, r *http.Request) {
	space, ok := s.resolveSpace(w, r)
	if !ok {
		return
	}
	idc := identityFrom(r)
	if !s.authorize(w, r, "space", "update", s.policy.UpdateSpace(r.Context(), idc, space)) {
		return
	}
	s.handleImageUpload(w, r, model.ContainerSpace, space.ID)
}

func (s *Server) recordDeletion(r *http.Request, resource string, id int64) {
	if s.audit == nil {
		return
	}
	actorID := identityFrom(r).ActorID()
	s.audit.Record(r.Context(), audit.Event{
		EventType:    audit.EventEntityDeleted,
		UserID:       &actorID,
		ResourceType: resource,
		ResourceID:   strconv.FormatInt(id, 10),
		Status:       audit.StatusAllowed,
	})
}
