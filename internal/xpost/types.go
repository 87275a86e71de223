package xpost

import (
	"context"
	"strings"
)

// Request defines the message payload shared across all providers.
type Request struct {
	Message   string
	Tags      []string
	ImagePath string
	ImageAlt  string
}

// Poster abstracts a social network that can publish content.
type Poster interface {
	Name() string
	Post(ctx context.Context, req Request) error
}

// Hashtags renders tags as "#a #b", skipping blanks.
func Hashtags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimLeft(strings.TrimSpace(tag), "#")
		if tag == "" {
			continue
		}
		parts = append(parts, "#"+tag)
	}
	return strings.Join(parts, " ")
}

// FormatStatus joins the message and its hashtags with a blank line.
func FormatStatus(req Request) string {
	message := strings.TrimSpace(req.Message)
	tags := Hashtags(req.Tags)
	switch {
	case tags == "":
		return message
	case message == "":
		return tags
	default:
		return message + "\n\n" + tags
	}
}
