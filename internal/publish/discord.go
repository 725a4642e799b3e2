// Package publish posts rendered maps to a Discord channel.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"livelox_dl/internal/geo"
	"livelox_dl/internal/logging"
	"livelox_dl/internal/version"
)

// maxUploadSize is the attachment limit for bots without boosted servers.
const maxUploadSize = 25 << 20

const embedColor = 0x990099

// ErrNotConfigured is returned by NewDiscord when the token or channel is
// missing.
var ErrNotConfigured = errors.New("discord publishing not configured")

// Map describes one rendered map.
type Map struct {
	ClassID   int
	EventName string
	MapName   string
	Courses   []string
	Bounds    geo.Quad
	Filename  string
	Data      []byte
}

// MessageSender is the part of a discordgo session used for publishing.
type MessageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord uploads maps to one channel.
type Discord struct {
	sender    MessageSender
	channelID string
}

// NewDiscord opens a REST-only bot session. No gateway connection is made.
func NewDiscord(token, channelID string) (*Discord, error) {
	token = strings.TrimSpace(token)
	channelID = strings.TrimSpace(channelID)
	if token == "" || channelID == "" {
		return nil, ErrNotConfigured
	}
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	dg.UserAgent = version.UserAgent()
	return NewDiscordWithSender(dg, channelID), nil
}

func NewDiscordWithSender(sender MessageSender, channelID string) *Discord {
	return &Discord{sender: sender, channelID: channelID}
}

// Publish posts m with its image attached.
func (d *Discord) Publish(ctx context.Context, m Map) error {
	if len(m.Data) == 0 {
		return errors.New("no image to publish")
	}
	if len(m.Data) > maxUploadSize {
		return fmt.Errorf("image of %d bytes exceeds the %d byte upload limit", len(m.Data), maxUploadSize)
	}

	attachment := attachmentName(m.Filename)
	_, err := d.sender.ChannelMessageSendComplex(d.channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{buildEmbed(m, attachment)},
		Files: []*discordgo.File{{
			Name:        attachment,
			ContentType: "image/jpeg",
			Reader:      bytes.NewReader(m.Data),
		}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send map to channel %s: %w", d.channelID, err)
	}

	log := logging.GetFromContext(ctx)
	log.Info().Str("channel", d.channelID).Msg("map published to discord")
	return nil
}

func buildEmbed(m Map, attachment string) *discordgo.MessageEmbed {
	title := m.EventName
	if title == "" {
		title = m.MapName
	}
	courses := "-"
	if len(m.Courses) > 0 {
		courses = truncate(strings.Join(m.Courses, ", "), 1024)
	}
	tl, br := m.Bounds[geo.TopLeft], m.Bounds[geo.BottomRight]

	return &discordgo.MessageEmbed{
		Title: truncate(title, 256),
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Map", Value: orDash(m.MapName), Inline: true},
			{Name: "Class", Value: strconv.Itoa(m.ClassID), Inline: true},
			{Name: "Courses", Value: courses, Inline: false},
			{Name: "Top left", Value: tl.String(), Inline: true},
			{Name: "Bottom right", Value: br.String(), Inline: true},
		},
		Image: &discordgo.MessageEmbedImage{
			URL: "attachment://" + attachment,
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: version.Name + " " + version.Version,
		},
	}
}

// attachmentName keeps Discord's attachment:// reference resolvable; spaces
// break it.
func attachmentName(filename string) string {
	if filename == "" {
		return "map.jpeg"
	}
	return strings.ReplaceAll(filename, " ", "_")
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
