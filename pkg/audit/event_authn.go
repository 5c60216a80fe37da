package audit

import "fmt"

// AuthenticateEvent records a password sign-in attempt
type AuthenticateEvent struct {
	Email        string
	ClientIP     string
	Success      bool
	ErrorMessage string
	// CorruptRecord marks a failure caused by an unreadable stored hash
	// rather than by the caller.
	CorruptRecord bool
}

func (e AuthenticateEvent) MessageID() string {
	return "authn"
}

func (e AuthenticateEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated", e.Email)
	}
	msg := fmt.Sprintf("%s failed to authenticate", e.Email)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AuthenticateEvent) Severity() Severity {
	switch {
	case e.Success:
		return SeverityInfo
	case e.CorruptRecord:
		return SeverityError
	default:
		return SeverityWarning
	}
}

func (e AuthenticateEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AuthenticateEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"authenticator": "password",
			"user":          e.Email,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "authenticate",
			"result":    result(e.Success),
		},
	}
}
