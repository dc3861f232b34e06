package domain

import (
	"fmt"
	"time"
)

// SourceType enumerates supported content origins.
type SourceType string

const (
	SourceTypeFeed    SourceType = "FEED"
	SourceTypeVideo   SourceType = "VIDEO_CHANNEL"
	SourceTypeMailbox SourceType = "MAILBOX"
)

// FeedConfig points at a syndication feed endpoint.
type FeedConfig struct {
	FeedURL string `json:"feedUrl"`
}

// ChannelConfig identifies a video channel whose upload feed is polled.
type ChannelConfig struct {
	ChannelID string `json:"channelId"`
}

// MailboxConfig carries IMAP connection details and the folders to scan.
type MailboxConfig struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	Folders  []string `json:"folders"`
	TLS      bool     `json:"tls"`
}

// SourceConfig is a tagged variant: exactly one member is populated,
// matching the owning source's type.
type SourceConfig struct {
	Feed    *FeedConfig    `json:"feed,omitempty"`
	Channel *ChannelConfig `json:"channel,omitempty"`
	Mailbox *MailboxConfig `json:"mailbox,omitempty"`
}

// Validate checks that the variant set matches the declared source type.
func (c SourceConfig) Validate(t SourceType) error {
	switch t {
	case SourceTypeFeed:
		if c.Feed == nil || c.Feed.FeedURL == "" {
			return fmt.Errorf("feed source requires a feed url")
		}
	case SourceTypeVideo:
		if c.Channel == nil || c.Channel.ChannelID == "" {
			return fmt.Errorf("video source requires a channel id")
		}
	case SourceTypeMailbox:
		if c.Mailbox == nil || c.Mailbox.Host == "" || len(c.Mailbox.Folders) == 0 {
			return fmt.Errorf("mailbox source requires host and at least one folder")
		}
	default:
		return fmt.Errorf("unknown source type %q", t)
	}
	return nil
}

// Source is a configured origin of content items.
type Source struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        SourceType   `json:"type"`
	Config      SourceConfig `json:"config"`
	Active      bool         `json:"active"`
	LastChecked *time.Time   `json:"lastChecked,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// SourceRef is the snapshot of a source embedded into summaries.
type SourceRef struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Type SourceType `json:"type"`
}

// Ref returns the embeddable snapshot of the source.
func (s Source) Ref() SourceRef {
	return SourceRef{ID: s.ID, Name: s.Name, Type: s.Type}
}
