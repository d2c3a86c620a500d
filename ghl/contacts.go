package ghl

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
)

// Lead is one quote applicant pushed into the CRM.
type Lead struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	State      string
	QuoteCount int
	BestPrice  string
}

type upsertContactRequest struct {
	FirstName    string            `json:"firstName,omitempty"`
	LastName     string            `json:"lastName,omitempty"`
	Email        string            `json:"email,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	LocationID   string            `json:"locationId"`
	Tags         []string          `json:"tags,omitempty"`
	CustomFields []customFieldPair `json:"customFields,omitempty"`
}

type customFieldPair struct {
	ID    string `json:"id"`
	Value string `json:"field_value"`
}

type upsertContactResponse struct {
	Contact struct {
		ID string `json:"id"`
	} `json:"contact"`
	New bool `json:"new"`
}

// SyncLead upserts the applicant as a contact and drops them into the
// quote pipeline. Quote detail lands in custom fields.
func (c *Client) SyncLead(ctx context.Context, lead Lead) error {
	req := upsertContactRequest{
		FirstName:  lead.FirstName,
		LastName:   lead.LastName,
		Email:      lead.Email,
		Phone:      lead.Phone,
		LocationID: c.locationID,
		Tags:       []string{"auto-quote"},
	}

	if c.customFields.QuoteCount != "" {
		req.CustomFields = append(req.CustomFields, customFieldPair{
			ID: c.customFields.QuoteCount, Value: strconv.Itoa(lead.QuoteCount)})
	}
	if c.customFields.BestPrice != "" && lead.BestPrice != "" {
		req.CustomFields = append(req.CustomFields, customFieldPair{
			ID: c.customFields.BestPrice, Value: lead.BestPrice})
	}
	if c.customFields.State != "" && lead.State != "" {
		req.CustomFields = append(req.CustomFields, customFieldPair{
			ID: c.customFields.State, Value: lead.State})
	}

	body, err := c.do(ctx, "POST", "/contacts/upsert", req)
	if err != nil {
		return err
	}

	var resp upsertContactResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("ghl: unmarshal contact response: %w", err)
	}

	if resp.New {
		log.Printf("GHL: created contact %s for %s %s", resp.Contact.ID, lead.FirstName, lead.LastName)
	} else {
		log.Printf("GHL: updated contact %s for %s %s", resp.Contact.ID, lead.FirstName, lead.LastName)
	}

	return c.placeInPipeline(ctx, resp.Contact.ID, lead)
}
