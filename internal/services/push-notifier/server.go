package notifier

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/thisday-app/pushgate/internal/domain/notification"
	"github.com/thisday-app/pushgate/internal/domain/profile"
	"go.uber.org/zap"
)

// Server is the HTTP function surface invoked by the notifications-table
// trigger (and, behind CORS, by browser-originated calls).
type Server struct {
	Log *zap.Logger
	UC  *Handler
}

type pushResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

type errResponse struct {
	Error string `json:"error"`
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(permissiveCORS)
	r.Post("/v1/push", s.handlePush)
	return r
}

// handlePush never lets anything escape to the caller as a transport
// failure: the trigger that invoked us must not fail or retry its insert
// because a push went wrong.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.Log.Error("panic in push handler", zap.Any("panic", rec))
			writeJSON(w, http.StatusInternalServerError, errResponse{Error: "internal error"})
		}
	}()

	var ev notification.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: err.Error()})
		return
	}
	// The trigger payload types these as uuid; reject garbage before it
	// reaches the directory queries.
	if _, err := uuid.Parse(ev.RecipientID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: "invalid recipient_id: " + err.Error()})
		return
	}
	if _, err := uuid.Parse(ev.ActorID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: "invalid actor_id: " + err.Error()})
		return
	}

	sum, err := s.UC.HandleEvent(r.Context(), ev)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: err.Error()})
			return
		}
		s.Log.Error("push batch aborted", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, pushResponse{Message: sum.Message(), Errors: sum.Errors})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// permissiveCORS answers preflight with 204 and stamps every response. The
// function is called server-to-server in the normal path; the open policy
// only matters for browser-originated invocations.
func permissiveCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "authorization, content-type")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
