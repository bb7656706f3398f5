package api

import (
	"net/http"

	"github.com/openhearth/hearth/pkg/audit"
	"github.com/openhearth/hearth/pkg/auth"
	"github.com/openhearth/hearth/pkg/contextkeys"
	"github.com/openhearth/hearth/pkg/httputil"
)

// loginResponse carries the issued token and the account it belongs to.
type loginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	user, err := s.auth.Register(r.Context(), &req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.recordAuthEvent(r, audit.EventRegister, &user.ID, audit.StatusAllowed, "")
	httputil.WriteCreated(w, user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	token, user, err := s.auth.Login(r.Context(), &req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.LoginsTotal.WithLabelValues("failure").Inc()
		}
		s.recordAuthEvent(r, audit.EventLogin, nil, audit.StatusDenied, req.Email)
		httputil.WriteUnauthorized(w, "invalid credentials")
		return
	}
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	}
	s.recordAuthEvent(r, audit.EventLogin, &user.ID, audit.StatusAllowed, "")
	httputil.WriteSuccess(w, loginResponse{Token: token, User: user})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token := contextkeys.GetToken(r.Context())
	if token == "" {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	if err := s.auth.Logout(r.Context(), token); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	idc := identityFrom(r)
	actorID := idc.ActorID()
	s.recordAuthEvent(r, audit.EventLogout, &actorID, audit.StatusAllowed, "")
	httputil.WriteNoContent(w)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, identityFrom(r).Actor())
}

func (s *Server) recordAuthEvent(r *http.Request, eventType string, userID *int64, status, detail string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(r.Context(), audit.Event{
		EventType: eventType,
		UserID:    userID,
		Status:    status,
		Detail:    detail,
	})
}
