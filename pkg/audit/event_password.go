package audit

import "fmt"

// PasswordEvent records an administrative password reset
type PasswordEvent struct {
	Email        string
	Operator     string
	Success      bool
	ErrorMessage string
}

func (e PasswordEvent) MessageID() string {
	return "password"
}

func (e PasswordEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s reset the password of %s", e.Operator, e.Email)
	}
	msg := fmt.Sprintf("%s failed to reset the password of %s", e.Operator, e.Email)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e PasswordEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e PasswordEvent) Facility() int {
	return FacilityAuthPriv
}

func (e PasswordEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Operator,
		},
		SDIDSubject: {
			"user": e.Email,
		},
		SDIDAction: {
			"operation": "reset-password",
			"result":    result(e.Success),
		},
	}
}
