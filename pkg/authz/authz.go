package authz

import (
	"errors"
	"fmt"

	"github.com/wildbranch/wbl-catalog/pkg/audit"
	"github.com/wildbranch/wbl-catalog/pkg/model"
)

// ErrAuthorizationDenied is returned by Check when the requester neither
// owns the target nor is a superuser.
var ErrAuthorizationDenied = errors.New("not enough permissions")

// Target identifies an owned record for a check
type Target struct {
	Kind    string
	ID      uint
	OwnerID uint
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

// BookTarget returns the check target for a book
func BookTarget(b *model.Book) Target {
	return Target{Kind: "book", ID: b.ID, OwnerID: b.OwnerID}
}

// LibraryTarget returns the check target for a library
func LibraryTarget(l *model.Library) Target {
	return Target{Kind: "library", ID: l.ID, OwnerID: l.OwnerID()}
}

// Authorizer decides whether a user may act on a record they may or may not own
type Authorizer struct {
	log func(audit.Event)
}

// New creates an Authorizer that reports checks to the audit log
func New() *Authorizer {
	return &Authorizer{log: audit.Log}
}

// Authorize allows the owner of a record and any superuser. A nil requester
// is denied. The same rule applies to every action.
func (a *Authorizer) Authorize(action Action, ownerID uint, requester *model.User) Decision {
	if requester == nil {
		return DecisionDeny
	}
	if requester.IsSuperuser || requester.ID == ownerID {
		return DecisionAllow
	}
	return DecisionDeny
}

// Check authorizes action on target and records the outcome. It returns an
// error wrapping ErrAuthorizationDenied on deny.
func (a *Authorizer) Check(action Action, target Target, requester *model.User, clientIP string) error {
	decision := a.Authorize(action, target.OwnerID, requester)

	var userID uint
	if requester != nil {
		userID = requester.ID
	}
	if a.log != nil {
		a.log(audit.AuthorizationEvent{
			UserID:   userID,
			ClientIP: clientIP,
			Resource: target.String(),
			Action:   action.String(),
			Allowed:  decision.Allowed(),
		})
	}

	if !decision.Allowed() {
		return fmt.Errorf("%w: %s %s", ErrAuthorizationDenied, action, target)
	}
	return nil
}
