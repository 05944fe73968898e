package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Smilefounder/services-core/internal/domain/gateway"
	"github.com/Smilefounder/services-core/internal/domain/payment"
	"github.com/Smilefounder/services-core/internal/domain/project"
	domain "github.com/Smilefounder/services-core/internal/domain/settlement"
)

const (
	antifraudPlatform    = "web"
	antifraudLoginSource = "registered"
	cartItemType         = "contribution"
	venueCountry         = "Brasil"
	// eventTypeFull is what the antifraud provider calls an all-or-nothing project.
	eventTypeFull = "full"
)

// BuildCharge maps a snapshot to the charge request and its antifraud evidence.
// It does no I/O and depends only on its arguments.
func BuildCharge(snap *domain.Snapshot, postbackURL string) gateway.ChargeRequest {
	p := snap.Payment
	c := p.Data.Customer

	phone := gateway.Phone{DDI: c.Phone.DDI, DDD: c.Phone.DDD, Number: c.Phone.Number}
	address := gateway.AntifraudAddress{
		Country:       c.Address.Country,
		State:         c.Address.State,
		City:          c.Address.City,
		Zipcode:       c.Address.Zipcode,
		Neighborhood:  c.Address.Neighborhood,
		Street:        c.Address.Street,
		StreetNumber:  c.Address.StreetNumber,
		Complementary: c.Address.Complementary,
	}

	req := gateway.ChargeRequest{
		Amount:        p.Data.Amount,
		PaymentMethod: string(p.Data.PaymentMethod),
		PostbackURL:   postbackURL,
		Async:         false,
		Customer: gateway.Customer{
			Name:           c.Name,
			Email:          c.Email,
			DocumentNumber: c.DocumentNumber,
			Address: gateway.CustomerAddress{
				Street:       c.Address.Street,
				StreetNumber: c.Address.StreetNumber,
				Neighborhood: c.Address.Neighborhood,
				Zipcode:      c.Address.Zipcode,
			},
			Phone: phone,
		},
		Metadata: gateway.Metadata{
			PaymentID:      p.ID,
			ProjectID:      p.ProjectID,
			PlatformID:     p.PlatformID,
			SubscriptionID: p.SubscriptionID,
			UserID:         p.UserID,
			CatalogedAt:    p.CreatedAt,
		},
		AntifraudMetadata: gateway.AntifraudMetadata{
			SessionID: p.ID,
			IP:        p.Data.CurrentIP,
			Platform:  antifraudPlatform,
			Register: gateway.Register{
				ID:           p.UserID,
				Email:        c.Email,
				RegisteredAt: snap.Buyer.CreatedAt,
				LoginSource:  antifraudLoginSource,
			},
			Billing: gateway.Party{
				Customer:     gateway.PartyCustomer{Name: c.Name, DocumentNumber: p.Data.CreditCardOwnerDocument},
				Address:      address,
				PhoneNumbers: []gateway.Phone{phone},
			},
			Buyer: gateway.Party{
				Customer:     gateway.PartyCustomer{Name: c.Name, DocumentNumber: c.DocumentNumber},
				Address:      address,
				PhoneNumbers: []gateway.Phone{phone},
			},
			Shipping: gateway.Shipping{
				Party: gateway.Party{
					Customer:     gateway.PartyCustomer{Name: c.Name, DocumentNumber: c.DocumentNumber},
					Address:      address,
					PhoneNumbers: []gateway.Phone{phone},
				},
			},
			ShoppingCart: []gateway.CartItem{{
				Name:                      cartItemName(p.Data.Amount, snap.Project.Data.Name),
				Type:                      cartItemType,
				Quantity:                  "1",
				UnitPrice:                 p.Data.Amount,
				EventID:                   snap.Project.ID,
				TicketTypeID:              "0",
				TicketOwnerName:           c.Name,
				TicketOwnerDocumentNumber: c.DocumentNumber,
			}},
			Discounts: []gateway.Discount{{Type: "other"}},
			OtherFees: []gateway.Fee{{}},
			Events:    []gateway.EventListing{projectEvent(snap)},
		},
	}

	if p.Data.PaymentMethod == payment.MethodCreditCard {
		if p.Data.CardHash != "" {
			req.CardHash = p.Data.CardHash
		} else {
			req.CardID = p.Data.CardID
		}
	}

	return req
}

func projectEvent(snap *domain.Snapshot) gateway.EventListing {
	proj := snap.Project
	owner := snap.ProjectOwner

	venue := gateway.VenueAddress{Country: venueCountry}
	if a := owner.Data.Address; a != nil {
		venue.State = a.State
		venue.City = a.City
		venue.Zipcode = a.Zipcode
		venue.Neighborhood = a.Neighborhood
		venue.Street = a.Street
		venue.StreetNumber = a.StreetNumber
		venue.Complementary = a.Complementary
	}

	return gateway.EventListing{
		ID:        proj.ID,
		Name:      proj.Data.Name,
		Type:      eventType(proj.Mode),
		Date:      proj.Data.ExpiresAt,
		VenueName: owner.Data.Name,
		Address:   venue,
		TicketTypes: []gateway.TicketType{{
			ID:    snap.Payment.ID,
			Price: snap.Payment.Data.Amount,
		}},
	}
}

func eventType(mode project.Mode) string {
	if mode == project.ModeAllOrNothing {
		return eventTypeFull
	}
	return string(mode)
}

// cartItemName renders e.g. "50.5 - My Project" for 5050 minor units.
func cartItemName(amount int64, projectName string) string {
	return fmt.Sprintf("%s - %s", decimal.New(amount, -2).String(), projectName)
}
