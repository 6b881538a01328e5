package inquiry

import "time"

// Inquiry is a buyer's question about one listing. The seller may respond
// exactly once; the response is immutable after that.
type Inquiry struct {
	ID             string
	LandID         string
	BuyerID        string
	Subject        string
	Message        string
	ContactPhone   *string
	SellerResponse *string
	RespondedAt    *time.Time
	ReadAt         *time.Time
	CreatedAt      time.Time
}

// Responded reports whether the seller already used their single response.
func (i Inquiry) Responded() bool {
	return i.SellerResponse != nil
}

// LandRef is the slice of the listing an inquiry decision needs.
type LandRef struct {
	ID      string
	OwnerID string
	Title   string
	Visible bool
}

// Filters pages through an inquiry list, newest first.
type Filters struct {
	OnlyUnread     bool
	OnlyUnanswered bool
	Page           int
	PageSize       int
}
