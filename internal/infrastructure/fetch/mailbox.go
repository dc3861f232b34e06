package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// mailboxLookback bounds how far back the unseen-message search reaches.
const mailboxLookback = 7 * 24 * time.Hour

// MailboxFetcher pulls unseen messages from the configured IMAP folders and
// normalizes them into items. HTML-only bodies are reduced to plain text.
type MailboxFetcher struct {
	logger *slog.Logger
}

var _ ports.Fetcher = (*MailboxFetcher)(nil)

// NewMailboxFetcher builds the IMAP adapter.
func NewMailboxFetcher(logger *slog.Logger) *MailboxFetcher {
	return &MailboxFetcher{logger: logger}
}

// Fetch connects, scans each configured folder for unseen mail within the
// lookback window, and returns the normalized messages. A folder that fails
// to open is skipped; connection-level failures abort the run.
func (f *MailboxFetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error) {
	cfg := src.Config.Mailbox
	if cfg == nil {
		return nil, fmt.Errorf("source %s has no mailbox config", src.ID)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var (
		c   *client.Client
		err error
	)
	if cfg.TLS {
		c, err = client.DialTLS(addr, nil)
	} else {
		c, err = client.Dial(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial imap %s: %w", addr, err)
	}
	defer c.Logout()

	// The IMAP client has no context support; map the caller's deadline
	// onto its command timeout.
	if deadline, ok := ctx.Deadline(); ok {
		c.Timeout = time.Until(deadline)
	}

	if err := c.Login(cfg.Username, cfg.Password); err != nil {
		return nil, fmt.Errorf("imap login %s: %w", cfg.Username, err)
	}

	var items []domain.Item
	for _, folder := range cfg.Folders {
		folderItems, err := f.fetchFolder(c, folder)
		if err != nil {
			f.warn("skip folder", "folder", folder, "error", err)
			continue
		}
		items = append(items, folderItems...)
	}
	return items, nil
}

func (f *MailboxFetcher) fetchFolder(c *client.Client, folder string) ([]domain.Item, error) {
	if _, err := c.Select(folder, true); err != nil {
		return nil, fmt.Errorf("open folder: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Since = time.Now().Add(-mailboxLookback)

	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(ids) == 0 {
		f.debug("no new messages", "folder", folder)
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}, messages)
	}()

	var items []domain.Item
	for msg := range messages {
		items = append(items, normalizeMessage(msg, section))
	}
	if err := <-done; err != nil {
		return items, fmt.Errorf("fetch messages: %w", err)
	}

	f.debug("processed messages", "folder", folder, "count", len(items))
	return items, nil
}

func normalizeMessage(msg *imap.Message, section *imap.BodySectionName) domain.Item {
	item := domain.Item{
		Title:       "No Subject",
		PublishedAt: time.Now(),
	}

	if env := msg.Envelope; env != nil {
		if env.Subject != "" {
			item.Title = env.Subject
		}
		if !env.Date.IsZero() {
			item.PublishedAt = env.Date
		}
		if len(env.From) > 0 {
			item.Author = formatAddress(env.From[0])
		}
	}

	if body := msg.GetBody(section); body != nil {
		item.Content = extractText(body)
	}
	return item
}

// extractText walks the MIME parts preferring text/plain; an HTML-only
// message is stripped to its text content.
func extractText(body io.Reader) string {
	mr, err := mail.CreateReader(body)
	if err != nil {
		return ""
	}

	var plain, html string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := header.ContentType()
		if err != nil {
			continue
		}
		payload, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		switch contentType {
		case "text/plain":
			if plain == "" {
				plain = string(payload)
			}
		case "text/html":
			if html == "" {
				html = string(payload)
			}
		}
	}

	if plain != "" {
		return plain
	}
	return htmlToText(html)
}

func htmlToText(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}

func formatAddress(addr *imap.Address) string {
	if addr.PersonalName != "" {
		return fmt.Sprintf("%s <%s>", addr.PersonalName, addr.Address())
	}
	return addr.Address()
}

func (f *MailboxFetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}

func (f *MailboxFetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
