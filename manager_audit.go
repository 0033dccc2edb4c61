package authgate

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess     = "login_success"
	auditEventLoginFailure     = "login_failure"
	auditEventLoginRateLimited = "login_rate_limited"
	auditEventSessionEvicted   = "session_evicted"
	auditEventSessionExpired   = "session_expired"
	auditEventLogout           = "logout_session"
	auditEventUserCreated      = "user_created"
	auditEventUserStatusChange = "user_status_change"
	auditEventPermissionDenied = "permission_denied"
)

// AuditErrorCode is the stable error vocabulary emitted on audit
// events, decoupled from the Go error values.
type AuditErrorCode string

const (
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrSessionExpired     AuditErrorCode = "session_expired"
	auditErrSessionInactive    AuditErrorCode = "session_inactive"
	auditErrUserInactive       AuditErrorCode = "user_inactive"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrUserExists         AuditErrorCode = "user_exists"
	auditErrPermissionDenied   AuditErrorCode = "permission_denied"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (m *Manager) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if m == nil || m.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	m.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrExpiredSession):
		return auditErrSessionExpired
	case errors.Is(err, ErrInactiveSession):
		return auditErrSessionInactive
	case errors.Is(err, ErrInactiveUser):
		return auditErrUserInactive
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrUserExists):
		return auditErrUserExists
	case errors.Is(err, ErrPermissionDenied):
		return auditErrPermissionDenied
	default:
		return auditErrInternal
	}
}
