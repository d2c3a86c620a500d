package email

import (
	"fmt"
	"log"
	"strings"

	"github.com/resend/resend-go/v3"

	"quote-funnel-go/funnel"
)

// Client sends transactional emails via Resend.
type Client struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewClient returns a configured Resend client, or nil if not configured.
func NewClient(apiKey, fromEmail, fromName string) *Client {
	if apiKey == "" || fromEmail == "" {
		return nil
	}
	if fromName == "" {
		fromName = "Quote Desk"
	}
	return &Client{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// Send sends an email to the given address.
func (c *Client) Send(toEmail, toName, subject, htmlBody string) error {
	if c == nil {
		return fmt.Errorf("email: client not configured")
	}

	from := fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail)

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlBody,
	}

	sent, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("email: resend send: %w", err)
	}

	log.Printf("Email sent to %s (%s): %s [id=%s]", toEmail, toName, subject, sent.Id)
	return nil
}

// SendQuoteSummary mails the applicant the quotes their run produced.
func (c *Client) SendQuoteSummary(toEmail, toName string, quotes []funnel.QuoteRecord) error {
	if len(quotes) == 0 {
		return nil
	}
	subject := fmt.Sprintf("Your auto insurance quotes are ready (%d found)", len(quotes))

	var rows strings.Builder
	for _, q := range quotes {
		if q.Tag != "" {
			continue
		}
		carrier := q.Carrier
		if carrier == "" {
			carrier = "Carrier"
		}
		term := q.Term
		if term == "" {
			term = "per term"
		}
		rows.WriteString(fmt.Sprintf(`
      <tr>
        <td style="padding: 8px; border-bottom: 1px solid #eee;">%s</td>
        <td style="padding: 8px; border-bottom: 1px solid #eee;"><strong>%s</strong> %s</td>
        <td style="padding: 8px; border-bottom: 1px solid #eee;">%s</td>
      </tr>`, carrier, q.Price, term, q.Vehicle))
	}

	html := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: #2c5f8a; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0;">
    <h1 style="margin: 0;">Your Quotes Are Ready</h1>
  </div>
  <div style="padding: 20px; background: #f9f9f9; border-radius: 0 0 8px 8px;">
    <p>Hi <strong>%s</strong>,</p>
    <p>We compared carriers for you and found <strong>%d quotes</strong>:</p>
    <table style="width: 100%%; border-collapse: collapse; background: white; border-radius: 4px;">
      <tr>
        <th style="padding: 8px; text-align: left; border-bottom: 2px solid #ddd;">Carrier</th>
        <th style="padding: 8px; text-align: left; border-bottom: 2px solid #ddd;">Premium</th>
        <th style="padding: 8px; text-align: left; border-bottom: 2px solid #ddd;">Vehicle</th>
      </tr>%s
    </table>
    <p>An agent will reach out shortly to walk you through the options.</p>
    <hr style="border: none; border-top: 1px solid #ddd; margin: 20px 0;">
    <p style="color: #999; font-size: 12px;">You're receiving this because you requested an auto insurance quote.</p>
  </div>
</div>`, toName, len(quotes), rows.String())

	return c.Send(toEmail, toName, subject, html)
}
