package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	adminerrors "dealerdesk/contexts/identity-access/account-admin-service/domain/errors"
	adminhttp "dealerdesk/contexts/identity-access/account-admin-service/transport/http"
)

func writeAdminError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, adminhttp.ErrorResponse{Code: code, Message: message})
}

// writeAdminDomainError maps the closed error taxonomy onto HTTP statuses.
// Sync failures surface as plain internal errors to callers; the distinction
// lives in logs and the sync-failure ledger, not in the response.
func writeAdminDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, adminerrors.ErrUnauthenticated):
		writeAdminError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, adminerrors.ErrInvalidTargetID):
		writeAdminError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, adminerrors.ErrPermissionDenied):
		writeAdminError(w, http.StatusForbidden, "permission_denied", adminerrors.ErrPermissionDenied.Error())
	case errors.Is(err, adminerrors.ErrSelfRoleChange),
		errors.Is(err, adminerrors.ErrSelfDisable),
		errors.Is(err, adminerrors.ErrLastManager):
		writeAdminError(w, http.StatusConflict, "failed_precondition", err.Error())
	case errors.Is(err, adminerrors.ErrUserNotFound):
		writeAdminError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeAdminError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func requireAdminAuthorization(w http.ResponseWriter, r *http.Request) bool {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		writeAdminError(w, http.StatusUnauthorized, "unauthenticated", "Authorization bearer token is required")
		return false
	}
	return true
}

func requireAdminRequestID(w http.ResponseWriter, r *http.Request) bool {
	if strings.TrimSpace(r.Header.Get("X-Request-Id")) == "" {
		writeAdminError(w, http.StatusBadRequest, "missing_request_id", "X-Request-Id header is required")
		return false
	}
	return true
}

func requireAdminCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	callerUID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if callerUID == "" {
		writeAdminError(w, http.StatusUnauthorized, "unauthenticated", "X-User-Id header is required")
		return "", false
	}
	return callerUID, true
}

func (s *Server) handleSetManagerRole(w http.ResponseWriter, r *http.Request) {
	if !requireAdminAuthorization(w, r) || !requireAdminRequestID(w, r) {
		return
	}
	callerUID, ok := requireAdminCaller(w, r)
	if !ok {
		return
	}
	targetUID := r.PathValue("uid")

	var req adminhttp.SetManagerRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAdminError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.accountAdmin.Handler.SetManagerRoleHandler(r.Context(), callerUID, targetUID, req)
	if err != nil {
		writeAdminDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetAccountDisabled(w http.ResponseWriter, r *http.Request) {
	if !requireAdminAuthorization(w, r) || !requireAdminRequestID(w, r) {
		return
	}
	callerUID, ok := requireAdminCaller(w, r)
	if !ok {
		return
	}
	targetUID := r.PathValue("uid")

	var req adminhttp.SetAccountDisabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAdminError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.accountAdmin.Handler.SetAccountDisabledHandler(r.Context(), callerUID, targetUID, req)
	if err != nil {
		writeAdminDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAuditEntries(w http.ResponseWriter, r *http.Request) {
	if !requireAdminAuthorization(w, r) || !requireAdminRequestID(w, r) {
		return
	}
	callerUID, ok := requireAdminCaller(w, r)
	if !ok {
		return
	}
	targetUID := r.PathValue("uid")

	limit := 0
	if limitRaw := r.URL.Query().Get("limit"); limitRaw != "" {
		value, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeAdminError(w, http.StatusBadRequest, "invalid_argument", "limit must be an integer")
			return
		}
		limit = value
	}

	resp, err := s.accountAdmin.Handler.ListAuditEntriesHandler(r.Context(), callerUID, targetUID, limit)
	if err != nil {
		writeAdminDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
