package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Freeeeeet/tutorpay/internal/service"
	"go.uber.org/zap"
)

const (
	minStudents = 1
	maxStudents = 6
)

type startSessionRequest struct {
	StudentIDs []string `json:"studentIds"`
}

type endSessionRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req startSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateStudentIDs(req.StudentIDs); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.sessions.StartSession(r.Context(), identity.UserID, req.StudentIDs)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req endSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeError(w, http.StatusBadRequest, `"sessionId" is required`)
		return
	}

	result, err := s.sessions.EndSession(r.Context(), req.SessionID, identity.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// writeServiceError показывает ошибки ядра как есть, остальные скрывает
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	domainErr, ok := service.AsError(err)
	if !ok {
		s.logger.Error("Session operation failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	status := http.StatusBadRequest
	switch domainErr.Kind {
	case service.KindConflict, service.KindState:
		status = http.StatusConflict
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindUnauthorized:
		status = http.StatusForbidden
	}
	writeError(w, status, domainErr.Message)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}

func validateStudentIDs(ids []string) error {
	if ids == nil {
		return errors.New(`"studentIds" is required`)
	}
	if len(ids) < minStudents {
		return fmt.Errorf(`"studentIds" must contain at least %d items`, minStudents)
	}
	if len(ids) > maxStudents {
		return fmt.Errorf(`"studentIds" must contain less than or equal to %d items`, maxStudents)
	}

	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf(`"studentIds[%d]" is not allowed to be empty`, i)
		}
		if seen[id] {
			return fmt.Errorf(`"studentIds[%d]" contains a duplicate value`, i)
		}
		seen[id] = true
	}
	return nil
}
