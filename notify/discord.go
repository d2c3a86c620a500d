// Package notify posts run summaries to an ops Discord channel.
package notify

import (
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"quote-funnel-go/funnel"
)

// Discord is the ops-channel notifier. Nil when not configured; every
// method is safe to call on a nil receiver.
type Discord struct {
	session   *discordgo.Session
	channelID string
}

// New connects a Discord session for run notifications. Returns nil if the
// token or channel is missing.
func New(token, channelID string) (*Discord, error) {
	if token == "" || channelID == "" {
		return nil, nil
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("notify: discordgo session: %w", err)
	}
	// Notifications only need the REST API; no gateway intents, no Open().
	return &Discord{session: session, channelID: channelID}, nil
}

// RunSummary posts one run's outcome as an embed.
func (d *Discord) RunSummary(applicant string, result funnel.RunResult) {
	if d == nil {
		return
	}

	color := 0x2ecc71
	title := "Funnel run completed"
	if !result.Success {
		color = 0xe74c3c
		title = "Funnel run failed"
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Applicant", Value: applicant, Inline: true},
		{Name: "Quotes", Value: fmt.Sprintf("%d", result.QuotesFound), Inline: true},
	}
	if result.CurrentStage != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Last location", Value: result.CurrentStage, Inline: false,
		})
	}
	if len(result.Errors) > 0 {
		errText := strings.Join(result.Errors, "\n")
		if len(errText) > 1000 {
			errText = errText[:1000] + "..."
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Errors", Value: errText, Inline: false,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: result.Message,
		Color:       color,
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: "run " + result.RunID},
	}

	if _, err := d.session.ChannelMessageSendEmbed(d.channelID, embed); err != nil {
		log.Printf("notify: discord send: %v", err)
	}
}
