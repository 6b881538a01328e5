package listing

import "time"

// Status is the moderation lifecycle of a listing.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusSold     Status = "sold"
)

// PropertyType tags what kind of land is being sold.
type PropertyType string

const (
	PropertyResidential  PropertyType = "residential"
	PropertyCommercial   PropertyType = "commercial"
	PropertyAgricultural PropertyType = "agricultural"
	PropertyRecreational PropertyType = "recreational"
)

// ValidPropertyType reports whether t is one of the known tags.
func ValidPropertyType(t PropertyType) bool {
	switch t {
	case PropertyResidential, PropertyCommercial, PropertyAgricultural, PropertyRecreational:
		return true
	default:
		return false
	}
}

// Land is a property listing. Ownership is permanent: OwnerID is set at
// creation and never reassigned.
type Land struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string
	Price        float64
	SizeAcres    float64
	Location     string
	Address      string
	PropertyType PropertyType
	Status       Status
	AdminNotes   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Images       []Image
}

// IsApproved is derived, never stored independently: true iff the listing
// passed moderation, including after it sold.
func (l Land) IsApproved() bool {
	return l.Status == StatusApproved || l.Status == StatusSold
}

// PubliclyVisible reports whether buyers may discover the listing. Sold
// listings stay retrievable by direct reference but drop out of search.
func (l Land) PubliclyVisible() bool {
	return l.Status == StatusApproved
}

// Image is a gallery entry owned by exactly one listing; rows cascade away
// with the listing. Exactly one image is primary once any exist.
type Image struct {
	ID        string
	LandID    string
	Ref       string
	AltText   string
	IsPrimary bool
	Position  int
	CreatedAt time.Time
}

// SortKey selects the primary search ordering.
type SortKey string

const (
	SortByPrice   SortKey = "price"
	SortBySize    SortKey = "size"
	SortByCreated SortKey = "created_at"
)

// Filters is the search contract over publicly visible listings. Zero
// values mean "no constraint".
type Filters struct {
	Query         string
	Location      string
	PropertyTypes []PropertyType
	PriceMin      float64
	PriceMax      float64
	SizeMin       float64
	SizeMax       float64
	SortBy        SortKey
	Descending    bool
	Page          int
	PageSize      int
}

// OwnerFilters narrows a seller's own listings view.
type OwnerFilters struct {
	OwnerID  string
	Status   Status
	Query    string
	Page     int
	PageSize int
}

// ModerationFilters narrows the admin queue over all listings.
type ModerationFilters struct {
	Status   Status
	Query    string
	Page     int
	PageSize int
}
