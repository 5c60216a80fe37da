package audit

import "fmt"

// SessionEvent records a bearer token that was rejected
type SessionEvent struct {
	ClientIP     string
	Method       string
	Path         string
	ErrorMessage string
}

func (e SessionEvent) MessageID() string {
	return "session"
}

func (e SessionEvent) Message() string {
	msg := fmt.Sprintf("rejected bearer token for %s %s", e.Method, e.Path)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e SessionEvent) Severity() Severity {
	return SeverityWarning
}

func (e SessionEvent) Facility() int {
	return FacilityAuth
}

func (e SessionEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"authenticator": "bearer",
		},
		SDIDSubject: {
			"path": e.Path,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "resolve",
			"result":    result(false),
		},
	}
}
