package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kotae-dev/kotae/internal/auth"
	"github.com/kotae-dev/kotae/internal/models"
	"github.com/kotae-dev/kotae/internal/service"
)

// maxUploadBytes bounds a single multipart upload request.
const maxUploadBytes = 100 << 20

type contextKey string

const userContextKey contextKey = "user"

// requirePermission resolves the bearer session token, checks that the user's
// role grants perm, and stores the user in the request context.
func (s *Server) requirePermission(perm auth.Permission, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		user, err := s.sessions.Lookup(token)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "session expired or invalid")
			return
		}
		if !auth.HasPermission(user.Role, perm) {
			s.logger.Warn("permission denied",
				zap.String("user", user.Username),
				zap.String("role", string(user.Role)),
				zap.String("permission", string(perm)))
			s.respondError(w, http.StatusForbidden, "permission denied")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func userFrom(ctx context.Context) *auth.User {
	u, _ := ctx.Value(userContextKey).(*auth.User)
	return u
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err == auth.ErrInvalidCredentials {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		s.logger.Error("authentication failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	token := s.sessions.Create(*user)
	s.logger.Info("user logged in", zap.String("user", user.Username), zap.String("role", string(user.Role)))
	s.respondJSON(w, http.StatusOK, loginResponse{Token: token, User: *user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		s.sessions.Destroy(token)
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondError(w, http.StatusBadRequest, "no files provided")
		return
	}
	var files []service.UploadFile
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "failed to read upload: "+fh.Filename)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "failed to read upload: "+fh.Filename)
			return
		}
		files = append(files, service.UploadFile{Name: fh.Filename, Data: data})
	}

	user := userFrom(r.Context())
	s.logger.Debug("upload request", zap.String("user", user.Username), zap.Int("files", len(files)))
	report, err := s.svc.IngestFiles(r.Context(), files)
	if err != nil {
		s.logger.Error("ingestion failed", zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, report)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user := userFrom(r.Context())
	s.logger.Debug("ask request", zap.String("user", user.Username), zap.String("question", req.Question))
	resp, err := s.svc.Ask(r.Context(), req, &service.Identity{
		Actor:      user.Username,
		Department: user.Department,
	})
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.logger.Error("stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	s.logger.Info("clearing collection", zap.String("user", user.Username))
	if err := s.svc.ClearCollection(r.Context()); err != nil {
		s.logger.Error("clear failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleAuditList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	entries, err := s.sink.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("audit list failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	count, err := s.sink.Count(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":   count,
		"entries": entries,
	})
}

func (s *Server) handleAuditSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	entries, err := s.sink.Search(r.Context(), q, queryInt(r, "limit", 50))
	if err != nil {
		s.logger.Error("audit search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   q,
		"entries": entries,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
