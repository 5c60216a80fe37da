package audit

import "fmt"

// AuthorizationEvent records an ownership check on a book or library
type AuthorizationEvent struct {
	UserID   uint
	ClientIP string
	Resource string // e.g. "book:12"
	Action   string
	Allowed  bool
}

func (e AuthorizationEvent) MessageID() string {
	return "check"
}

func (e AuthorizationEvent) Message() string {
	if e.Allowed {
		return fmt.Sprintf("user %d checked %s on %s: allowed", e.UserID, e.Action, e.Resource)
	}
	return fmt.Sprintf("user %d checked %s on %s: denied", e.UserID, e.Action, e.Resource)
}

func (e AuthorizationEvent) Severity() Severity {
	if e.Allowed {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e AuthorizationEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AuthorizationEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": fmt.Sprintf("%d", e.UserID),
		},
		SDIDSubject: {
			"resource":  e.Resource,
			"privilege": e.Action,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "check",
			"result":    result(e.Allowed),
		},
	}
}
