package notify

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"guild-tracker/internal/api"
	"guild-tracker/internal/domain"
)

const (
	colorMain    = 0x5865F2
	colorSub     = 0x57F287
	colorDefault = 0x99AAB5

	screenshotName = "screenshot"
	footerText     = "Guild damage tracker"
)

func guildColor(g domain.Guild) int {
	switch g {
	case domain.GuildMain:
		return colorMain
	case domain.GuildSub:
		return colorSub
	default:
		return colorDefault
	}
}

// BuildMessage renders ev as a webhook message. Inline screenshots are
// returned as an attachment referenced from the embed.
func BuildMessage(ev DamageRecorded) (api.WebhookMessage, *api.Attachment) {
	name := ev.DisplayName
	if name == "" {
		name = "Unknown player"
	}

	var title, description string
	fields := []api.EmbedField{
		{Name: "Player", Value: name, Inline: true},
		{Name: "Guild", Value: strings.ToUpper(string(ev.Guild)), Inline: true},
		{Name: "Type", Value: string(ev.Kind), Inline: true},
	}

	switch ev.Kind {
	case domain.KindInitial:
		title = "Season baseline recorded"
		description = fmt.Sprintf("%s registered a starting total of **%s**.", name, formatDamage(ev.TotalDamage))
		fields = append(fields, api.EmbedField{Name: "Total damage", Value: formatDamage(ev.TotalDamage), Inline: true})
	default:
		title = "New damage ticket"
		description = fmt.Sprintf("%s dealt **%s** damage.", name, formatDamage(ev.TicketDamage))
		fields = append(fields, api.EmbedField{Name: "Ticket damage", Value: formatDamage(ev.TicketDamage), Inline: true})
	}

	fields = append(fields, api.EmbedField{Name: "Season total", Value: formatDamage(ev.AccumulatedTotal), Inline: true})
	if ev.Rank > 0 {
		fields = append(fields, api.EmbedField{Name: "Overall rank", Value: "#" + strconv.Itoa(ev.Rank), Inline: true})
	}

	captured := ev.CapturedAt
	if captured.IsZero() {
		captured = time.Now()
	}

	embed := api.Embed{
		Title:       title,
		Description: description,
		Color:       guildColor(ev.Guild),
		Fields:      fields,
		Footer:      &api.EmbedFooter{Text: footerText},
		Timestamp:   captured.UTC().Format(time.RFC3339),
	}
	if ev.AvatarURL != "" {
		embed.Thumbnail = &api.EmbedImage{URL: ev.AvatarURL}
	}

	var file *api.Attachment
	switch {
	case strings.HasPrefix(ev.ScreenshotRef, "http://"), strings.HasPrefix(ev.ScreenshotRef, "https://"):
		embed.Image = &api.EmbedImage{URL: ev.ScreenshotRef}
	case strings.HasPrefix(ev.ScreenshotRef, "data:"):
		if att, ok := attachmentFromDataURL(ev.ScreenshotRef); ok {
			file = att
			embed.Image = &api.EmbedImage{URL: "attachment://" + att.Filename}
		}
	}

	return api.WebhookMessage{Embeds: []api.Embed{embed}}, file
}

func attachmentFromDataURL(ref string) (*api.Attachment, bool) {
	meta, data, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, false
	}
	contentType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, false
	}

	ext := "png"
	if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "" {
		ext = sub
	}
	return &api.Attachment{
		Filename:    screenshotName + "." + ext,
		ContentType: contentType,
		Data:        raw,
	}, true
}

// formatDamage groups digits by thousands: 1080000 -> 1,080,000.
func formatDamage(d domain.Damage) string {
	s := strconv.FormatInt(d.Int64(), 10)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	b.WriteString(sign)
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
