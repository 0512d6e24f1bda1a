package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"FileCatalog/pkg/kit"
)

const (
	maxBodyBytes    = 1 << 20
	defaultTokenTTL = 15 * time.Minute
)

type Server struct {
	Log      *zap.Logger
	Admin    Admin
	JWT      *TokenMaker
	TokenTTL time.Duration
}

type loginReq struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req loginReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.User == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "user/password required", nil)
		return
	}

	if err := s.Admin.Verify(req.User, req.Password); err != nil {
		if s.Log != nil {
			s.Log.Warn("login rejected", zap.String("user", req.User))
		}
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	tok, err := s.JWT.New(s.Admin.User, RoleAdmin, ttl)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("token issue", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{AccessToken: tok, ExpiresIn: int64(ttl.Seconds())})
}
