package audit

import "fmt"

// RegistrationEvent records a self-service sign-up
type RegistrationEvent struct {
	Email        string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e RegistrationEvent) MessageID() string {
	return "register"
}

func (e RegistrationEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s registered", e.Email)
	}
	msg := fmt.Sprintf("%s failed to register", e.Email)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e RegistrationEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e RegistrationEvent) Facility() int {
	return FacilityAuth
}

func (e RegistrationEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {
			"user": e.Email,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "register",
			"result":    result(e.Success),
		},
	}
}
