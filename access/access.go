// Package access is the single authorization decision point for the
// marketplace. Every entry point resolves the acting user, then calls
// Authorize before touching domain state. The decision function is pure:
// it never reads storage and never mutates anything, so the full rule
// table is unit-testable in isolation.
package access

import (
	"fmt"

	"landmarket/identity"
)

// Action enumerates every operation the decision table knows about.
type Action string

const (
	// Listing surface.
	ActionReadListing   Action = "listing.read"
	ActionCreateListing Action = "listing.create"
	ActionEditListing   Action = "listing.edit"
	ActionDeleteListing Action = "listing.delete"
	ActionSubmitListing Action = "listing.submit"
	ActionMarkSold      Action = "listing.mark_sold"

	// Moderation surface.
	ActionApproveListing Action = "listing.approve"
	ActionRejectListing  Action = "listing.reject"
	ActionSetUserActive  Action = "user.set_active"
	ActionViewReports    Action = "reports.view"

	// Buyer surface.
	ActionCreateInquiry     Action = "inquiry.create"
	ActionAddFavorite       Action = "favorite.add"
	ActionRemoveFavorite    Action = "favorite.remove"
	ActionListFavorites     Action = "favorite.list"
	ActionManageSavedSearch Action = "savedsearch.manage"

	// Inquiry thread surface.
	ActionReadInquiry    Action = "inquiry.read"
	ActionRespondInquiry Action = "inquiry.respond"
)

// Reason is the machine-readable denial cause surfaced to the caller so the
// presentation layer can pick the right redirect without re-deriving intent.
type Reason string

const (
	ReasonUnauthenticated Reason = "Unauthenticated"
	ReasonAccountDisabled Reason = "AccountDisabled"
	ReasonWrongRole       Reason = "WrongRole"
	ReasonNotOwner        Reason = "NotOwner"
)

// Resource carries the facts the decision table needs about the target.
// OwnerID is the listing owner for listing and inquiry-thread actions;
// ActorSideID is the buyer on inquiry/favorite records. Zero values mean
// "no such fact" (e.g. creating a listing has no owner yet).
type Resource struct {
	OwnerID         string
	ActorSideID     string
	PubliclyVisible bool
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason Reason) Decision { return Decision{Reason: reason} }

// Error is a denial surfaced as a typed failure. Callers must pass the
// reason through verbatim; it is never downgraded to a generic error.
type Error struct {
	Action Action
	Reason Reason
}

func (e *Error) Error() string {
	return fmt.Sprintf("access: %s denied: %s", e.Action, e.Reason)
}

// Require is the error-returning form of Authorize for use at service
// entry points.
func Require(actor *identity.User, action Action, res Resource) error {
	if d := Authorize(actor, action, res); !d.Allowed {
		return &Error{Action: action, Reason: d.Reason}
	}
	return nil
}

// Authorize maps (actor, action, resource) to an allow/deny decision.
// Rules are evaluated in order; the first match wins. The table never
// checks listing state beyond public visibility: state-legality belongs
// to the lifecycle state machine.
func Authorize(actor *identity.User, action Action, res Resource) Decision {
	if actor == nil {
		if action == ActionReadListing && res.PubliclyVisible {
			return allow()
		}
		return deny(ReasonUnauthenticated)
	}
	if !actor.Active {
		return deny(ReasonAccountDisabled)
	}

	switch actor.Role {
	case identity.RoleAdmin:
		return authorizeAdmin(action)
	case identity.RoleSeller:
		return authorizeSeller(actor, action, res)
	case identity.RoleBuyer:
		return authorizeBuyer(actor, action, res)
	default:
		return deny(ReasonWrongRole)
	}
}

// Admins moderate through a distinct surface; they never impersonate
// sellers or buyers.
func authorizeAdmin(action Action) Decision {
	switch action {
	case ActionApproveListing, ActionRejectListing, ActionSetUserActive, ActionViewReports, ActionReadListing:
		return allow()
	default:
		return deny(ReasonWrongRole)
	}
}

func authorizeSeller(actor *identity.User, action Action, res Resource) Decision {
	switch action {
	case ActionCreateListing:
		return allow()
	case ActionEditListing, ActionDeleteListing, ActionSubmitListing, ActionMarkSold:
		if res.OwnerID != actor.ID {
			return deny(ReasonNotOwner)
		}
		return allow()
	case ActionReadListing:
		if res.PubliclyVisible || res.OwnerID == actor.ID {
			return allow()
		}
		return deny(ReasonNotOwner)
	case ActionReadInquiry, ActionRespondInquiry:
		if res.OwnerID != actor.ID {
			return deny(ReasonNotOwner)
		}
		return allow()
	default:
		return deny(ReasonWrongRole)
	}
}

func authorizeBuyer(actor *identity.User, action Action, res Resource) Decision {
	switch action {
	case ActionReadListing:
		if res.PubliclyVisible {
			return allow()
		}
		return deny(ReasonNotOwner)
	case ActionCreateInquiry, ActionAddFavorite, ActionRemoveFavorite, ActionListFavorites:
		return allow()
	case ActionReadInquiry, ActionManageSavedSearch:
		if res.ActorSideID != actor.ID {
			return deny(ReasonNotOwner)
		}
		return allow()
	default:
		return deny(ReasonWrongRole)
	}
}
