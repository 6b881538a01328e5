package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"landmarket/access"
	"landmarket/identity"
	"landmarket/notify"
)

const (
	minTitleLen       = 5
	maxTitleLen       = 200
	minDescriptionLen = 20
	maxPrice          = 999_999_999.99
	maxSizeAcres      = 99_999.99
	maxImages         = 10
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// AdminLister resolves the recipients of moderation-queue notifications.
type AdminLister interface {
	ListAdmins(ctx context.Context) ([]identity.User, error)
}

type Service struct {
	pool     TxBeginner
	repo     Repository
	admins   AdminLister
	notifier notify.Notifier
}

func NewService(pool TxBeginner, repo Repository, admins AdminLister, notifier notify.Notifier) *Service {
	return &Service{
		pool:     pool,
		repo:     repo,
		admins:   admins,
		notifier: notifier,
	}
}

type CreateParams struct {
	Title        string
	Description  string
	Price        float64
	SizeAcres    float64
	Location     string
	Address      string
	PropertyType PropertyType
}

// UpdateParams carries a partial edit; nil fields are left untouched.
type UpdateParams struct {
	Title        *string
	Description  *string
	Price        *float64
	SizeAcres    *float64
	Location     *string
	Address      *string
	PropertyType *PropertyType
}

type ListResult struct {
	Items []Land
	Total int
}

// Create stores a new draft owned by the actor. Field bounds are checked
// immediately; completeness is only enforced on submit.
func (s *Service) Create(ctx context.Context, actor *identity.User, params CreateParams) (Land, error) {
	if err := access.Require(actor, access.ActionCreateListing, access.Resource{}); err != nil {
		return Land{}, err
	}

	land := Land{
		OwnerID:      actor.ID,
		Title:        strings.TrimSpace(params.Title),
		Description:  strings.TrimSpace(params.Description),
		Price:        params.Price,
		SizeAcres:    params.SizeAcres,
		Location:     strings.TrimSpace(params.Location),
		Address:      strings.TrimSpace(params.Address),
		PropertyType: params.PropertyType,
		Status:       StatusDraft,
	}
	if err := validate(land, false); err != nil {
		return Land{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Land{}, fmt.Errorf("listing: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	created, err := s.repo.Create(ctx, tx, land)
	if err != nil {
		return Land{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Land{}, fmt.Errorf("listing: commit tx: %w", err)
	}
	return created, nil
}

// Get returns one listing. Anonymous and buyer reads are limited to
// publicly visible listings; owners and admins see every status.
func (s *Service) Get(ctx context.Context, actor *identity.User, id string) (Land, error) {
	land, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Land{}, err
	}

	res := access.Resource{OwnerID: land.OwnerID, PubliclyVisible: land.PubliclyVisible()}
	if err := access.Require(actor, access.ActionReadListing, res); err != nil {
		return Land{}, err
	}
	return land, nil
}

// Update applies a partial edit by the owner. Editing any significant
// field of an approved listing demotes it back to pending review.
func (s *Service) Update(ctx context.Context, actor *identity.User, id string, params UpdateParams) (Land, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Land{}, fmt.Errorf("listing: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	land, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return Land{}, err
	}
	res := access.Resource{OwnerID: land.OwnerID, PubliclyVisible: land.PubliclyVisible()}
	if err := access.Require(actor, access.ActionEditListing, res); err != nil {
		return Land{}, err
	}
	if land.Status == StatusSold {
		return Land{}, ErrNotEditable
	}

	edited, significant := applyEdit(land, params)
	// listings that passed the submit contract must not be edited back
	// below it, so completeness stays enforced once out of draft
	if err := validate(edited, land.Status != StatusDraft); err != nil {
		return Land{}, err
	}

	demoted := false
	if land.Status == StatusApproved && significant {
		edited.Status = StatusPending
		edited.AdminNotes = ""
		demoted = true
	}

	updated, err := s.repo.UpdateFields(ctx, tx, edited)
	if err != nil {
		return Land{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Land{}, fmt.Errorf("listing: commit tx: %w", err)
	}

	if demoted {
		s.notifyAdmins(ctx, notify.KindListingPending, map[string]any{
			"land_id":   updated.ID,
			"title":     updated.Title,
			"sender_id": actor.ID,
		})
	}
	return updated, nil
}

// Submit moves a draft or rejected listing into the moderation queue.
// Rejection notes are cleared so the next review starts clean.
func (s *Service) Submit(ctx context.Context, actor *identity.User, id string) (Land, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Land{}, fmt.Errorf("listing: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	land, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return Land{}, err
	}
	res := access.Resource{OwnerID: land.OwnerID, PubliclyVisible: land.PubliclyVisible()}
	if err := access.Require(actor, access.ActionSubmitListing, res); err != nil {
		return Land{}, err
	}
	if land.Status != StatusDraft && land.Status != StatusRejected {
		return Land{}, &StateTransitionError{From: land.Status, To: StatusPending}
	}
	var verr *ValidationError
	if err := validate(land, true); err != nil && !errors.As(err, &verr) {
		return Land{}, err
	}
	count, err := s.repo.CountImages(ctx, tx, id)
	if err != nil {
		return Land{}, err
	}
	if count == 0 {
		if verr == nil {
			verr = &ValidationError{}
		}
		verr.Fields = append(verr.Fields, "images")
	}
	if verr != nil {
		return Land{}, verr
	}

	updated, err := s.repo.UpdateStatus(ctx, tx, id, StatusPending, "")
	if err != nil {
		return Land{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Land{}, fmt.Errorf("listing: commit tx: %w", err)
	}

	s.notifyAdmins(ctx, notify.KindListingPending, map[string]any{
		"land_id":   updated.ID,
		"title":     updated.Title,
		"sender_id": actor.ID,
	})
	return updated, nil
}

// Approve publishes a pending listing.
func (s *Service) Approve(ctx context.Context, actor *identity.User, id string) (Land, error) {
	return s.moderate(ctx, actor, id, access.ActionApproveListing, StatusApproved, "")
}

// Reject returns a pending listing to its owner with mandatory notes.
func (s *Service) Reject(ctx context.Context, actor *identity.User, id, notes string) (Land, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return Land{}, &ValidationError{Fields: []string{"admin_notes"}}
	}
	return s.moderate(ctx, actor, id, access.ActionRejectListing, StatusRejected, notes)
}

func (s *Service) moderate(ctx context.Context, actor *identity.User, id string, action access.Action, to Status, notes string) (Land, error) {
	if err := access.Require(actor, action, access.Resource{}); err != nil {
		return Land{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Land{}, fmt.Errorf("listing: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	land, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return Land{}, err
	}
	if land.Status != StatusPending {
		return Land{}, &StateTransitionError{From: land.Status, To: to}
	}

	updated, err := s.repo.UpdateStatus(ctx, tx, id, to, notes)
	if err != nil {
		return Land{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Land{}, fmt.Errorf("listing: commit tx: %w", err)
	}

	payload := map[string]any{
		"land_id":   updated.ID,
		"title":     updated.Title,
		"sender_id": actor.ID,
	}
	kind := notify.KindListingApproved
	if to == StatusRejected {
		kind = notify.KindListingRejected
		payload["admin_notes"] = notes
	}
	s.send(ctx, updated.OwnerID, kind, payload)
	return updated, nil
}

// MarkSold closes out an approved listing. Sold is terminal.
func (s *Service) MarkSold(ctx context.Context, actor *identity.User, id string) (Land, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Land{}, fmt.Errorf("listing: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	land, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return Land{}, err
	}
	res := access.Resource{OwnerID: land.OwnerID, PubliclyVisible: land.PubliclyVisible()}
	if err := access.Require(actor, access.ActionMarkSold, res); err != nil {
		return Land{}, err
	}
	if land.Status != StatusApproved {
		return Land{}, &StateTransitionError{From: land.Status, To: StatusSold}
	}

	updated, err := s.repo.UpdateStatus(ctx, tx, id, StatusSold, land.AdminNotes)
	if err != nil {
		return Land{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Land{}, fmt.Errorf("listing: commit tx: %w", err)
	}
	return updated, nil
}

// Delete removes the listing in any status. Inquiries, favorites, and
// images cascade away with it.
func (s *Service) Delete(ctx context.Context, actor *identity.User, id string) error {
	land, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	res := access.Resource{OwnerID: land.OwnerID, PubliclyVisible: land.PubliclyVisible()}
	if err := access.Require(actor, access.ActionDeleteListing, res); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, land.OwnerID)
}

// Search is the public discovery surface: approved listings only, no
// authentication required.
func (s *Service) Search(ctx context.Context, filters Filters) (ListResult, error) {
	if filters.SortBy == "" {
		filters.SortBy = SortByCreated
		filters.Descending = true
	}
	if len(filters.PropertyTypes) > 0 {
		valid := make([]PropertyType, 0, len(filters.PropertyTypes))
		for _, t := range filters.PropertyTypes {
			if ValidPropertyType(t) {
				valid = append(valid, t)
			}
		}
		filters.PropertyTypes = valid
	}

	items, total, err := s.repo.Search(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

// ListMine returns the actor's own listings across every status.
func (s *Service) ListMine(ctx context.Context, actor *identity.User, filters OwnerFilters) (ListResult, error) {
	res := access.Resource{}
	if actor != nil {
		res.OwnerID = actor.ID
	}
	if err := access.Require(actor, access.ActionEditListing, res); err != nil {
		return ListResult{}, err
	}
	filters.OwnerID = actor.ID

	items, total, err := s.repo.ListByOwner(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

// ListForModeration returns the admin review queue.
func (s *Service) ListForModeration(ctx context.Context, actor *identity.User, filters ModerationFilters) (ListResult, error) {
	if err := access.Require(actor, access.ActionApproveListing, access.Resource{}); err != nil {
		return ListResult{}, err
	}

	items, total, err := s.repo.ListForModeration(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

// Stats returns per-status listing counts: global for admins, scoped to
// the actor's own listings for sellers.
func (s *Service) Stats(ctx context.Context, actor *identity.User) (map[Status]int, error) {
	if actor != nil && actor.Role == identity.RoleAdmin {
		if err := access.Require(actor, access.ActionViewReports, access.Resource{}); err != nil {
			return nil, err
		}
		return s.repo.StatusCounts(ctx, "")
	}
	res := access.Resource{}
	if actor != nil {
		res.OwnerID = actor.ID
	}
	if err := access.Require(actor, access.ActionEditListing, res); err != nil {
		return nil, err
	}
	return s.repo.StatusCounts(ctx, actor.ID)
}

type AddImageParams struct {
	Ref       string
	AltText   string
	IsPrimary bool
}

// AddImage appends a gallery image. The first image of a listing always
// becomes primary regardless of the flag.
func (s *Service) AddImage(ctx context.Context, actor *identity.User, landID string, params AddImageParams) (Image, error) {
	if strings.TrimSpace(params.Ref) == "" {
		return Image{}, &ValidationError{Fields: []string{"ref"}}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Image{}, fmt.Errorf("listing: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	land, err := s.repo.GetForUpdate(ctx, tx, landID)
	if err != nil {
		return Image{}, err
	}
	res := access.Resource{OwnerID: land.OwnerID, PubliclyVisible: land.PubliclyVisible()}
	if err := access.Require(actor, access.ActionEditListing, res); err != nil {
		return Image{}, err
	}

	count, err := s.repo.CountImages(ctx, tx, landID)
	if err != nil {
		return Image{}, err
	}
	if count >= maxImages {
		return Image{}, &ValidationError{Fields: []string{"images"}}
	}

	img := Image{
		LandID:    landID,
		Ref:       strings.TrimSpace(params.Ref),
		AltText:   strings.TrimSpace(params.AltText),
		IsPrimary: params.IsPrimary || count == 0,
	}
	created, err := s.repo.AddImage(ctx, tx, img)
	if err != nil {
		return Image{}, err
	}
	if created.IsPrimary {
		if err := s.repo.SetPrimaryImage(ctx, tx, landID, created.ID); err != nil {
			return Image{}, err
		}
	}
	if err := s.repo.NormalizePrimary(ctx, tx, landID); err != nil {
		return Image{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Image{}, fmt.Errorf("listing: commit tx: %w", err)
	}
	return created, nil
}

// DeleteImage drops one gallery image and repairs the primary flag if the
// primary was removed.
func (s *Service) DeleteImage(ctx context.Context, actor *identity.User, landID, imageID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("listing: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	land, err := s.repo.GetForUpdate(ctx, tx, landID)
	if err != nil {
		return err
	}
	res := access.Resource{OwnerID: land.OwnerID, PubliclyVisible: land.PubliclyVisible()}
	if err := access.Require(actor, access.ActionEditListing, res); err != nil {
		return err
	}

	if err := s.repo.DeleteImage(ctx, tx, landID, imageID); err != nil {
		return err
	}
	if err := s.repo.NormalizePrimary(ctx, tx, landID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("listing: commit tx: %w", err)
	}
	return nil
}

// SetPrimaryImage promotes one image and demotes the rest.
func (s *Service) SetPrimaryImage(ctx context.Context, actor *identity.User, landID, imageID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("listing: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	land, err := s.repo.GetForUpdate(ctx, tx, landID)
	if err != nil {
		return err
	}
	res := access.Resource{OwnerID: land.OwnerID, PubliclyVisible: land.PubliclyVisible()}
	if err := access.Require(actor, access.ActionEditListing, res); err != nil {
		return err
	}

	if err := s.repo.SetPrimaryImage(ctx, tx, landID, imageID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("listing: commit tx: %w", err)
	}
	return nil
}

// applyEdit merges params into land and reports whether a significant
// field changed. Significant fields are the ones buyers make decisions
// on: price, size, location, property type, and description.
func applyEdit(land Land, params UpdateParams) (Land, bool) {
	significant := false

	if params.Title != nil {
		land.Title = strings.TrimSpace(*params.Title)
	}
	if params.Address != nil {
		land.Address = strings.TrimSpace(*params.Address)
	}
	if params.Description != nil {
		v := strings.TrimSpace(*params.Description)
		if v != land.Description {
			significant = true
		}
		land.Description = v
	}
	if params.Price != nil && *params.Price != land.Price {
		land.Price = *params.Price
		significant = true
	}
	if params.SizeAcres != nil && *params.SizeAcres != land.SizeAcres {
		land.SizeAcres = *params.SizeAcres
		significant = true
	}
	if params.Location != nil {
		v := strings.TrimSpace(*params.Location)
		if v != land.Location {
			significant = true
		}
		land.Location = v
	}
	if params.PropertyType != nil && *params.PropertyType != land.PropertyType {
		land.PropertyType = *params.PropertyType
		significant = true
	}
	return land, significant
}

// validate checks field bounds. With complete set it additionally requires
// every mandatory field, which is the submit-for-review contract.
func validate(land Land, complete bool) error {
	var bad []string

	if land.Title != "" && (len(land.Title) < minTitleLen || len(land.Title) > maxTitleLen) {
		bad = append(bad, "title")
	}
	if land.Description != "" && len(land.Description) < minDescriptionLen {
		bad = append(bad, "description")
	}
	if land.Price < 0 || land.Price > maxPrice {
		bad = append(bad, "price")
	}
	if land.SizeAcres < 0 || land.SizeAcres > maxSizeAcres {
		bad = append(bad, "size_acres")
	}
	if land.PropertyType != "" && !ValidPropertyType(land.PropertyType) {
		bad = append(bad, "property_type")
	}

	if complete {
		if land.Title == "" {
			bad = append(bad, "title")
		}
		if land.Description == "" {
			bad = append(bad, "description")
		}
		if land.Price <= 0 {
			bad = append(bad, "price")
		}
		if land.SizeAcres <= 0 {
			bad = append(bad, "size_acres")
		}
		if land.Location == "" {
			bad = append(bad, "location")
		}
		if land.PropertyType == "" {
			bad = append(bad, "property_type")
		}
	}

	if len(bad) > 0 {
		return &ValidationError{Fields: dedupe(bad)}
	}
	return nil
}

func dedupe(fields []string) []string {
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func (s *Service) send(ctx context.Context, recipientID string, kind notify.EventKind, payload map[string]any) {
	if s.notifier == nil {
		return
	}
	// Post-commit and best effort: a failed notification never rolls back
	// the transition it describes.
	_ = s.notifier.Notify(ctx, recipientID, kind, payload)
}

func (s *Service) notifyAdmins(ctx context.Context, kind notify.EventKind, payload map[string]any) {
	if s.notifier == nil || s.admins == nil {
		return
	}
	admins, err := s.admins.ListAdmins(ctx)
	if err != nil {
		return
	}
	for _, admin := range admins {
		s.send(ctx, admin.ID, kind, payload)
	}
}
