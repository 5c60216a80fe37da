// Package audit writes security events as RFC5424 syslog lines.
//
// Sign-in attempts, rejected bearer tokens, ownership checks, registrations
// and password resets each have an event type. Log formats the event to
// DefaultLogger (stdout) and, when WBL_AUDIT_DATABASE_URL is set, also
// inserts it into the audit_messages table.
//
//	audit.Log(audit.AuthorizationEvent{
//	    UserID:   user.ID,
//	    Resource: "book:12",
//	    Action:   "delete",
//	    Allowed:  false,
//	})
//
// Set WBL_AUDIT_ENABLED=false to turn audit output off.
package audit
