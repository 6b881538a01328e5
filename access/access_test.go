package access

import (
	"testing"

	"landmarket/identity"
)

func user(id string, role identity.Role, active bool) *identity.User {
	return &identity.User{ID: id, Role: role, Active: active}
}

func TestAuthorize_Unauthenticated(t *testing.T) {
	if d := Authorize(nil, ActionReadListing, Resource{PubliclyVisible: true}); !d.Allowed {
		t.Fatalf("expected anonymous read of visible listing to be allowed, got %s", d.Reason)
	}
	if d := Authorize(nil, ActionReadListing, Resource{}); d.Allowed || d.Reason != ReasonUnauthenticated {
		t.Fatalf("expected Unauthenticated for hidden listing, got %+v", d)
	}
	if d := Authorize(nil, ActionCreateInquiry, Resource{PubliclyVisible: true}); d.Allowed || d.Reason != ReasonUnauthenticated {
		t.Fatalf("expected Unauthenticated for mutation, got %+v", d)
	}
}

func TestAuthorize_DisabledAccountBeatsRole(t *testing.T) {
	// A deactivated seller is denied even on their own listing.
	seller := user("s1", identity.RoleSeller, false)
	d := Authorize(seller, ActionSubmitListing, Resource{OwnerID: "s1"})
	if d.Allowed || d.Reason != ReasonAccountDisabled {
		t.Fatalf("expected AccountDisabled, got %+v", d)
	}

	admin := user("a1", identity.RoleAdmin, false)
	if d := Authorize(admin, ActionApproveListing, Resource{}); d.Allowed || d.Reason != ReasonAccountDisabled {
		t.Fatalf("expected AccountDisabled for disabled admin, got %+v", d)
	}
}

func TestAuthorize_AdminSurface(t *testing.T) {
	admin := user("a1", identity.RoleAdmin, true)

	for _, action := range []Action{ActionApproveListing, ActionRejectListing, ActionSetUserActive, ActionViewReports} {
		if d := Authorize(admin, action, Resource{}); !d.Allowed {
			t.Fatalf("expected admin allowed for %s, got %s", action, d.Reason)
		}
	}

	// Admins do not impersonate sellers or buyers.
	for _, action := range []Action{ActionCreateListing, ActionEditListing, ActionAddFavorite, ActionCreateInquiry} {
		if d := Authorize(admin, action, Resource{}); d.Allowed || d.Reason != ReasonWrongRole {
			t.Fatalf("expected WrongRole for admin on %s, got %+v", action, d)
		}
	}
}

func TestAuthorize_SellerOwnership(t *testing.T) {
	seller := user("s1", identity.RoleSeller, true)

	cases := []struct {
		action Action
		res    Resource
		want   Decision
	}{
		{ActionCreateListing, Resource{}, Decision{Allowed: true}},
		{ActionEditListing, Resource{OwnerID: "s1"}, Decision{Allowed: true}},
		{ActionEditListing, Resource{OwnerID: "s2"}, Decision{Reason: ReasonNotOwner}},
		{ActionDeleteListing, Resource{OwnerID: "s2"}, Decision{Reason: ReasonNotOwner}},
		{ActionSubmitListing, Resource{OwnerID: "s1"}, Decision{Allowed: true}},
		{ActionMarkSold, Resource{OwnerID: "s1"}, Decision{Allowed: true}},
		{ActionReadListing, Resource{OwnerID: "s1"}, Decision{Allowed: true}},
		{ActionReadListing, Resource{OwnerID: "s2", PubliclyVisible: true}, Decision{Allowed: true}},
		{ActionReadListing, Resource{OwnerID: "s2"}, Decision{Reason: ReasonNotOwner}},
		{ActionRespondInquiry, Resource{OwnerID: "s1", ActorSideID: "b1"}, Decision{Allowed: true}},
		{ActionRespondInquiry, Resource{OwnerID: "s2", ActorSideID: "b1"}, Decision{Reason: ReasonNotOwner}},
		{ActionApproveListing, Resource{OwnerID: "s1"}, Decision{Reason: ReasonWrongRole}},
		{ActionAddFavorite, Resource{PubliclyVisible: true}, Decision{Reason: ReasonWrongRole}},
		{ActionManageSavedSearch, Resource{ActorSideID: "s1"}, Decision{Reason: ReasonWrongRole}},
	}

	for _, tc := range cases {
		got := Authorize(seller, tc.action, tc.res)
		if got != tc.want {
			t.Errorf("%s on %+v: got %+v want %+v", tc.action, tc.res, got, tc.want)
		}
	}
}

func TestAuthorize_BuyerSurface(t *testing.T) {
	buyer := user("b1", identity.RoleBuyer, true)

	cases := []struct {
		action Action
		res    Resource
		want   Decision
	}{
		{ActionReadListing, Resource{OwnerID: "s1", PubliclyVisible: true}, Decision{Allowed: true}},
		{ActionReadListing, Resource{OwnerID: "s1"}, Decision{Reason: ReasonNotOwner}},
		{ActionCreateInquiry, Resource{OwnerID: "s1", PubliclyVisible: true}, Decision{Allowed: true}},
		{ActionAddFavorite, Resource{OwnerID: "s1", PubliclyVisible: true}, Decision{Allowed: true}},
		{ActionRemoveFavorite, Resource{ActorSideID: "b1"}, Decision{Allowed: true}},
		{ActionReadInquiry, Resource{OwnerID: "s1", ActorSideID: "b1"}, Decision{Allowed: true}},
		{ActionReadInquiry, Resource{OwnerID: "s1", ActorSideID: "b2"}, Decision{Reason: ReasonNotOwner}},
		{ActionManageSavedSearch, Resource{ActorSideID: "b1"}, Decision{Allowed: true}},
		{ActionManageSavedSearch, Resource{ActorSideID: "b2"}, Decision{Reason: ReasonNotOwner}},
		{ActionCreateListing, Resource{}, Decision{Reason: ReasonWrongRole}},
		{ActionApproveListing, Resource{}, Decision{Reason: ReasonWrongRole}},
		{ActionSetUserActive, Resource{}, Decision{Reason: ReasonWrongRole}},
	}

	for _, tc := range cases {
		got := Authorize(buyer, tc.action, tc.res)
		if got != tc.want {
			t.Errorf("%s on %+v: got %+v want %+v", tc.action, tc.res, got, tc.want)
		}
	}
}
