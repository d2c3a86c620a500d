package sms

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
)

// TwilioClient sends SMS messages via the Twilio REST API.
type TwilioClient struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// NewTwilioClient creates a new Twilio SMS client. Returns nil if credentials are missing.
func NewTwilioClient(accountSID, authToken, fromNumber string) *TwilioClient {
	if accountSID == "" || authToken == "" || fromNumber == "" {
		return nil
	}
	return &TwilioClient{
		AccountSID: accountSID,
		AuthToken:  authToken,
		FromNumber: fromNumber,
	}
}

// twilioResponse represents the Twilio API response.
type twilioResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// SendSMS sends a text message to the given phone number.
// The `to` number must be in E.164 format (e.g., +15551234567).
func (c *TwilioClient) SendSMS(to, body string) error {
	if c == nil {
		return fmt.Errorf("twilio: client not configured")
	}

	apiURL := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", c.AccountSID)

	formData := url.Values{
		"To":   {to},
		"From": {c.FromNumber},
		"Body": {body},
	}

	req, err := http.NewRequest(http.MethodPost, apiURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return fmt.Errorf("twilio: build request: %w", err)
	}

	req.SetBasicAuth(c.AccountSID, c.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("twilio: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		var tr twilioResponse
		json.Unmarshal(respBody, &tr)
		return fmt.Errorf("twilio: HTTP %d: %s (code %d)", resp.StatusCode, tr.ErrorMessage, tr.ErrorCode)
	}

	var tr twilioResponse
	json.Unmarshal(respBody, &tr)
	log.Printf("SMS sent to %s (SID: %s, status: %s)", to, tr.SID, tr.Status)
	return nil
}

// SendQuoteReady texts the applicant that their quotes came back.
func (c *TwilioClient) SendQuoteReady(to string, quoteCount int, bestPrice string) error {
	if c == nil {
		return nil
	}
	body := fmt.Sprintf("Your auto insurance quotes are ready! We found %d options for you.", quoteCount)
	if bestPrice != "" {
		body = fmt.Sprintf("Your auto insurance quotes are ready! We found %d options starting at %s. An agent will call you shortly.", quoteCount, bestPrice)
	}
	return c.SendSMS(normalizeE164(to), body)
}

// normalizeE164 makes a best-effort E.164 number out of a US phone string.
func normalizeE164(phone string) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	switch {
	case len(digits) == 10:
		return "+1" + string(digits)
	case len(digits) == 11 && digits[0] == '1':
		return "+" + string(digits)
	case strings.HasPrefix(phone, "+"):
		return phone
	default:
		return "+" + string(digits)
	}
}
