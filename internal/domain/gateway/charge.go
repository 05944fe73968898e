package gateway

// ChargeRequest is the gateway-neutral description of one charge attempt.
// Field names follow the gateway's transaction payload.
type ChargeRequest struct {
	Amount            int64             `json:"amount"`
	PaymentMethod     string            `json:"payment_method"`
	PostbackURL       string            `json:"postback_url,omitempty"`
	Async             bool              `json:"async"`
	CardHash          string            `json:"card_hash,omitempty"`
	CardID            string            `json:"card_id,omitempty"`
	Customer          Customer          `json:"customer"`
	Metadata          Metadata          `json:"metadata"`
	AntifraudMetadata AntifraudMetadata `json:"antifraud_metadata"`
}

type Customer struct {
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	DocumentNumber string          `json:"document_number"`
	Address        CustomerAddress `json:"address"`
	Phone          Phone           `json:"phone"`
}

type CustomerAddress struct {
	Street       string `json:"street"`
	StreetNumber string `json:"street_number"`
	Neighborhood string `json:"neighborhood"`
	Zipcode      string `json:"zipcode"`
}

type Phone struct {
	DDI    string `json:"ddi"`
	DDD    string `json:"ddd"`
	Number string `json:"number"`
}

// Metadata correlates the gateway transaction back to our records.
type Metadata struct {
	PaymentID      string  `json:"payment_id"`
	ProjectID      string  `json:"project_id"`
	PlatformID     string  `json:"platform_id"`
	SubscriptionID *string `json:"subscription_id"`
	UserID         string  `json:"user_id"`
	CatalogedAt    string  `json:"cataloged_at"`
}

// AntifraudMetadata is the evidence document submitted for fraud scoring.
type AntifraudMetadata struct {
	SessionID    string         `json:"session_id"`
	IP           string         `json:"ip"`
	Platform     string         `json:"platform"`
	Register     Register       `json:"register"`
	Billing      Party          `json:"billing"`
	Buyer        Party          `json:"buyer"`
	Shipping     Shipping       `json:"shipping"`
	ShoppingCart []CartItem     `json:"shopping_cart"`
	Discounts    []Discount     `json:"discounts"`
	OtherFees    []Fee          `json:"other_fees"`
	Events       []EventListing `json:"events"`
}

type Register struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	RegisteredAt       string `json:"registered_at"`
	LoginSource        string `json:"login_source"`
	CompanyGroup       string `json:"company_group"`
	ClassificationCode string `json:"classification_code"`
}

type Party struct {
	Customer     PartyCustomer    `json:"customer"`
	Address      AntifraudAddress `json:"address"`
	PhoneNumbers []Phone          `json:"phone_numbers"`
}

type Shipping struct {
	Party
	ShippingMethod string `json:"shipping_method"`
	Fee            int64  `json:"fee"`
	Favorite       bool   `json:"favorite"`
}

type PartyCustomer struct {
	Name           string `json:"name"`
	DocumentNumber string `json:"document_number"`
	BornAt         string `json:"born_at"`
	Gender         string `json:"gender"`
}

type AntifraudAddress struct {
	Country       string `json:"country"`
	State         string `json:"state"`
	City          string `json:"city"`
	Zipcode       string `json:"zipcode"`
	Neighborhood  string `json:"neighborhood"`
	Street        string `json:"street"`
	StreetNumber  string `json:"street_number"`
	Complementary string `json:"complementary"`
	Latitude      string `json:"latitude"`
	Longitude     string `json:"longitude"`
}

type CartItem struct {
	Name                      string `json:"name"`
	Type                      string `json:"type"`
	Quantity                  string `json:"quantity"`
	UnitPrice                 int64  `json:"unit_price"`
	TotalAdditions            int64  `json:"totalAdditions"`
	TotalDiscounts            int64  `json:"totalDiscounts"`
	EventID                   string `json:"event_id"`
	TicketTypeID              string `json:"ticket_type_id"`
	TicketOwnerName           string `json:"ticket_owner_name"`
	TicketOwnerDocumentNumber string `json:"ticket_owner_document_number"`
}

type Discount struct {
	Type   string `json:"type"`
	Code   string `json:"code"`
	Amount int64  `json:"amount"`
}

type Fee struct {
	Type   string `json:"type"`
	Amount int64  `json:"amount"`
}

// EventListing describes the project being funded as an antifraud "event".
type EventListing struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Date        string       `json:"date"`
	VenueName   string       `json:"venue_name"`
	Address     VenueAddress `json:"address"`
	TicketTypes []TicketType `json:"ticket_types"`
}

type VenueAddress struct {
	Country       string  `json:"country"`
	State         string  `json:"state"`
	City          string  `json:"city"`
	Zipcode       string  `json:"zipcode"`
	Neighborhood  string  `json:"neighborhood"`
	Street        string  `json:"street"`
	StreetNumber  string  `json:"street_number"`
	Complementary string  `json:"complementary"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
}

type TicketType struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	Batch            string `json:"batch"`
	Price            int64  `json:"price"`
	AvailableNumber  int64  `json:"available_number"`
	TotalNumber      int64  `json:"total_number"`
	IdentityVerified string `json:"identity_verified"`
	AssignedSeats    string `json:"assigned_seats"`
}
