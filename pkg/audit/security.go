// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"time"

	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/sqlguard"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSQLInjectionAttempt is logged when libinjection detects SQL
	// injection patterns in free-text input (the question, a caller-supplied
	// previous question).
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventUnsafeQueryRejected is logged when the safety gate rejects
	// agent-generated SQL.
	EventUnsafeQueryRejected SecurityEventType = "unsafe_query_rejected"
)

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger
// namespace for easy filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogInjectionAttempt records a SQL injection fingerprint found in free-text
// input. Logged at WARN with full context; the request itself proceeds — the
// safety gate on generated SQL is the enforcement point, and flagging
// legitimate questions would break the product.
func (a *SecurityAuditor) LogInjectionAttempt(userID, clientIP string, result *sqlguard.InjectionCheckResult) {
	if result == nil {
		return
	}
	a.logger.Warn("SQL injection pattern in user input",
		zap.Time("timestamp", time.Now().UTC()),
		zap.String("event_type", string(EventSQLInjectionAttempt)),
		zap.String("severity", "warning"),
		zap.String("user_id", userID),
		zap.String("client_ip", clientIP),
		zap.String("field", result.Field),
		zap.String("fingerprint", result.Fingerprint),
		zap.String("value", result.Value),
	)
}

// LogUnsafeQuery records a safety-gate rejection of agent-generated SQL.
// Logged at ERROR with "critical" severity: the model produced a statement
// the gate had to stop, which operators should see even though the pipeline
// recovers by retrying.
func (a *SecurityAuditor) LogUnsafeQuery(userID string, sqlText string, reason error) {
	a.logger.Error("safety gate rejected generated SQL",
		zap.Time("timestamp", time.Now().UTC()),
		zap.String("event_type", string(EventUnsafeQueryRejected)),
		zap.String("severity", "critical"),
		zap.String("user_id", userID),
		zap.String("sql", sqlText),
		zap.Error(reason),
	)
}
