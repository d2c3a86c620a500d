package ghl

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
)

// placeInPipeline makes sure the contact has an opportunity sitting in the
// new-lead stage. Existing opportunities are left where an agent moved them.
func (c *Client) placeInPipeline(ctx context.Context, contactID string, lead Lead) error {
	if c.pipelineID == "" || c.newLeadStage == "" {
		return nil // pipeline sync not configured
	}

	searchPath := fmt.Sprintf("/opportunities/search?location_id=%s&pipeline_id=%s&contact_id=%s",
		url.QueryEscape(c.locationID), url.QueryEscape(c.pipelineID), url.QueryEscape(contactID))
	body, err := c.do(ctx, "GET", searchPath, nil)
	if err != nil {
		return c.createOpportunity(ctx, contactID, lead)
	}

	type oppSearchResp struct {
		Opportunities []struct {
			ID string `json:"id"`
		} `json:"opportunities"`
	}
	var resp oppSearchResp
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Opportunities) == 0 {
		return c.createOpportunity(ctx, contactID, lead)
	}

	log.Printf("GHL: contact %s already has opportunity %s, leaving it", contactID, resp.Opportunities[0].ID)
	return nil
}

func (c *Client) createOpportunity(ctx context.Context, contactID string, lead Lead) error {
	name := fmt.Sprintf("Auto quote - %s %s", lead.FirstName, lead.LastName)
	if lead.BestPrice != "" {
		name += " (" + lead.BestPrice + ")"
	}

	req := map[string]interface{}{
		"pipelineId":      c.pipelineID,
		"locationId":      c.locationID,
		"contactId":       contactID,
		"pipelineStageId": c.newLeadStage,
		"name":            name,
		"status":          "open",
	}
	if _, err := c.do(ctx, "POST", "/opportunities/", req); err != nil {
		return fmt.Errorf("ghl: create opportunity: %w", err)
	}

	log.Printf("GHL: created opportunity for contact %s", contactID)
	return nil
}
