package admin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
)

// AdminMiddlewareSuite covers the invariant that a wrong token never reaches the handler.
type AdminMiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestAdminMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AdminMiddlewareSuite))
}

func (s *AdminMiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *AdminMiddlewareSuite) serve(expected, sent, actor string) (called bool, capturedActor string, code int) {
	handler := RequireAdminToken(expected, s.logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			capturedActor = GetAdminActorID(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
	)
	req := httptest.NewRequest(http.MethodPost, "/admin/automation/run", nil)
	if sent != "" {
		req.Header.Set("X-Admin-Token", sent)
	}
	if actor != "" {
		req.Header.Set("X-Admin-Actor-ID", actor)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return called, capturedActor, w.Code
}

func (s *AdminMiddlewareSuite) TestTokenValidation() {
	s.Run("correct token passes to next handler", func() {
		called, _, code := s.serve("secret-admin-token", "secret-admin-token", "")
		s.True(called)
		s.Equal(http.StatusOK, code)
	})

	s.Run("wrong token returns 401 and blocks handler", func() {
		called, _, code := s.serve("secret-admin-token", "wrong-token", "")
		s.False(called)
		s.Equal(http.StatusUnauthorized, code)
	})

	s.Run("missing token returns 401", func() {
		called, _, code := s.serve("secret-admin-token", "", "")
		s.False(called)
		s.Equal(http.StatusUnauthorized, code)
	})

	s.Run("unconfigured token rejects everything", func() {
		called, _, code := s.serve("", "", "")
		s.False(called)
		s.Equal(http.StatusUnauthorized, code)
	})
}

func (s *AdminMiddlewareSuite) TestActorAttribution() {
	s.Run("actor header is captured", func() {
		_, actor, _ := s.serve("t", "t", "ops-alice")
		s.Equal("ops-alice", actor)
	})

	s.Run("missing actor header defaults", func() {
		_, actor, _ := s.serve("t", "t", "")
		s.Equal(DefaultActor, actor)
	})
}

func (s *AdminMiddlewareSuite) TestGetAdminActorID() {
	s.Empty(GetAdminActorID(context.Background()))
	ctx := context.WithValue(context.Background(), ContextKeyAdminActorID, "test-actor")
	s.Equal("test-actor", GetAdminActorID(ctx))
	ctx = context.WithValue(context.Background(), ContextKeyAdminActorID, 42)
	s.Empty(GetAdminActorID(ctx))
}
