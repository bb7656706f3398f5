// Package api exposes the HTTP surface: auth, spaces, channels, memberships,
// roles, privacy settings, user satellite records and attachment uploads.
//
// Every handler follows the same shape: decode and validate the body (422),
// resolve route entities through scoped reads (404 when invisible), consult
// the policy engine (403, or 404 on parent mismatch), then mutate through the
// store so the lifecycle hooks apply.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openhearth/hearth/pkg/audit"
	"github.com/openhearth/hearth/pkg/auth"
	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/httputil"
	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/middleware"
	"github.com/openhearth/hearth/pkg/observability"
	"github.com/openhearth/hearth/pkg/policy"
	"github.com/openhearth/hearth/pkg/storage"
	"github.com/openhearth/hearth/pkg/store"
)

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	router  *mux.Router
	store   *store.Store
	policy  *policy.Engine
	auth    *auth.Service
	files   storage.FileStore
	audit   *audit.Recorder
	logger  *observability.Logger
	metrics *observability.Metrics

	maxUploadBytes int64
}

// NewServer creates the API server and registers all routes.
func NewServer(st *store.Store, pol *policy.Engine, authsvc *auth.Service, files storage.FileStore, recorder *audit.Recorder, logger *observability.Logger, metrics *observability.Metrics, maxUploadBytes int64) *Server {
	s := &Server{
		router:         mux.NewRouter(),
		store:          st,
		policy:         pol,
		auth:           authsvc,
		files:          files,
		audit:          recorder,
		logger:         logger,
		metrics:        metrics,
		maxUploadBytes: maxUploadBytes,
	}
	s.setupRoutes()
	return s
}

// Router returns the configured router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Public auth routes
	s.router.HandleFunc("/auth/register", s.register).Methods("POST")
	s.router.HandleFunc("/auth/login", s.login).Methods("POST")

	// Everything else requires an authenticated identity
	protected := s.router.NewRoute().Subrouter()
	protected.Use(middleware.RequireAuth)

	protected.HandleFunc("/auth/logout", s.logout).Methods("POST")
	protected.HandleFunc("/auth/me", s.me).Methods("GET")

	// Space routes
	protected.HandleFunc("/spaces", s.listSpaces).Methods("GET")
	protected.HandleFunc("/spaces", s.createSpace).Methods("POST")
	protected.HandleFunc("/spaces/{space}", s.getSpace).Methods("GET")
	protected.HandleFunc("/spaces/{space}", s.updateSpace).Methods("PUT")
	protected.HandleFunc("/spaces/{space}", s.deleteSpace).Methods("DELETE")
	protected.HandleFunc("/spaces/{space}/images", s.uploadSpaceImage).Methods("POST")

	// Space member routes
	protected.HandleFunc("/spaces/{space}/members", s.listSpaceMembers).Methods("GET")
	protected.HandleFunc("/spaces/{space}/members", s.createSpaceMember).Methods("POST")
	protected.HandleFunc("/spaces/{space}/members/{member}", s.getSpaceMember).Methods("GET")
	protected.HandleFunc("/spaces/{space}/members/{member}", s.updateSpaceMember).Methods("PUT")
	protected.HandleFunc("/spaces/{space}/members/{member}", s.deleteSpaceMember).Methods("DELETE")

	// Space member role routes
	protected.HandleFunc("/spaces/{space}/members/{member}/roles", s.listSpaceMemberRoles).Methods("GET")
	protected.HandleFunc("/spaces/{space}/members/{member}/roles", s.createSpaceMemberRole).Methods("POST")
	protected.HandleFunc("/spaces/{space}/members/{member}/roles/{role}", s.getSpaceMemberRole).Methods("GET")
	protected.HandleFunc("/spaces/{space}/members/{member}/roles/{role}", s.updateSpaceMemberRole).Methods("PUT")
	protected.HandleFunc("/spaces/{space}/members/{member}/roles/{role}", s.deleteSpaceMemberRole).Methods("DELETE")
	protected.HandleFunc("/spaces/{space}/members/{member}/roles/{role}/transfer-ownership", s.transferSpaceOwnership).Methods("PUT")

	// Space privacy setting routes
	protected.HandleFunc("/spaces/{space}/privacy-settings", s.getSpacePrivacy).Methods("GET")
	protected.HandleFunc("/spaces/{space}/privacy-settings", s.createSpacePrivacy).Methods("POST")
	protected.HandleFunc("/spaces/{space}/privacy-settings/{setting}", s.getSpacePrivacyByID).Methods("GET")
	protected.HandleFunc("/spaces/{space}/privacy-settings/{setting}", s.updateSpacePrivacy).Methods("PUT")
	protected.HandleFunc("/spaces/{space}/privacy-settings/{setting}", s.deleteSpacePrivacy).Methods("DELETE")

	// Channel routes
	protected.HandleFunc("/spaces/{space}/channels", s.listChannels).Methods("GET")
	protected.HandleFunc("/spaces/{space}/channels", s.createChannel).Methods("POST")
	protected.HandleFunc("/spaces/{space}/channels/{channel}", s.getChannel).Methods("GET")
	protected.HandleFunc("/spaces/{space}/channels/{channel}", s.updateChannel).Methods("PUT")
	protected.HandleFunc("/spaces/{space}/channels/{channel}", s.deleteChannel).Methods("DELETE")

	// Channel member routes
	protected.HandleFunc("/spaces/{space}/channels/{channel}/members", s.listChannelMembers).Methods("GET")
	protected.HandleFunc("/spaces/{space}/channels/{channel}/members", s.createChannelMember).Methods("POST")
	protected.HandleFunc("/spaces/{space}/channels/{channel}/members/{member}", s.getChannelMember).Methods("GET")
	protected.HandleFunc("/spaces/{space}/channels/{channel}/members/{member}", s.updateChannelMember).Methods("PUT")
	protected.HandleFunc("/spaces/{space}/channels/{channel}/members/{member}", s.deleteChannelMember).Methods("DELETE")
	protected.HandleFunc("/spaces/{space}/channels/{channel}/members/{member}/transfer-ownership", s.transferChannelOwnership).Methods("PUT")

	// User satellite record routes
	protected.HandleFunc("/users/{user}/profile", s.getUserProfile).Methods("GET")
	protected.HandleFunc("/users/{user}/profile", s.createUserProfile).Methods("POST")
	protected.HandleFunc("/users/{user}/profile", s.updateUserProfile).Methods("PUT")
	protected.HandleFunc("/users/{user}/profile", s.deleteUserProfile).Methods("DELETE")
	protected.HandleFunc("/users/{user}/profile/images", s.uploadProfileImage).Methods("POST")

	protected.HandleFunc("/users/{user}/settings", s.getUserSetting).Methods("GET")
	protected.HandleFunc("/users/{user}/settings", s.createUserSetting).Methods("POST")
	protected.HandleFunc("/users/{user}/settings", s.updateUserSetting).Methods("PUT")
	protected.HandleFunc("/users/{user}/settings", s.deleteUserSetting).Methods("DELETE")
	protected.HandleFunc("/users/{user}/settings/restore", s.restoreUserSetting).Methods("PUT")

	protected.HandleFunc("/users/{user}/privacy-settings", s.getUserPrivacy).Methods("GET")
	protected.HandleFunc("/users/{user}/privacy-settings", s.createUserPrivacy).Methods("POST")
	protected.HandleFunc("/users/{user}/privacy-settings", s.updateUserPrivacy).Methods("PUT")
	protected.HandleFunc("/users/{user}/privacy-settings", s.deleteUserPrivacy).Methods("DELETE")
}

// identityFrom extracts the request's identity context.
func identityFrom(r *http.Request) *identity.Context {
	return middleware.IdentityFrom(r.Context())
}

// authorize runs a policy decision, recording the outcome. Denials are
// audited; any error is translated to its HTTP status.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, entity, operation string, err error) bool {
	decision := "allow"
	if err != nil {
		decision = "deny"
	}
	if s.metrics != nil {
		s.metrics.PolicyDecisionsTotal.WithLabelValues(entity, operation, decision).Inc()
	}
	if err == nil {
		return true
	}
	if errs.IsForbidden(err) && s.audit != nil {
		var userID *int64
		if idc := identityFrom(r); idc != nil && idc.Authenticated() {
			id := idc.ActorID()
			userID = &id
		}
		s.audit.Record(r.Context(), audit.Event{
			EventType:    audit.EventPolicyDenied,
			UserID:       userID,
			ResourceType: entity,
			ResourceID:   operation,
			Status:       audit.StatusDenied,
			Detail:       err.Error(),
		})
	}
	httputil.WriteDomainError(w, err)
	return false
}
