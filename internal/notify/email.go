package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
	"github.com/wneessen/go-mail"

	"github.com/kpauljoseph/annotanki/pkg/logger"
	"github.com/kpauljoseph/annotanki/pkg/models"
)

const (
	DefaultSMTPPort = 587
	DefaultTimeout  = 30 * time.Second

	dateLayout = "2006-01-02"
)

var ErrNoFlashcards = errors.New("no flashcards to email")

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	// From defaults to Username.
	From    string
	Timeout time.Duration
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Notifier mails a summary of newly created flashcards over SMTP with
// mandatory STARTTLS.
type Notifier struct {
	from     string
	client   sender
	policy   *bluemonday.Policy
	markdown *converter.Converter
	now      func() time.Time
	logger   *logger.Logger
}

func New(cfg Config, logger *logger.Logger) (*Notifier, error) {
	if cfg.Port == 0 {
		cfg.Port = DefaultSMTPPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &Notifier{
		from:   cfg.From,
		client: client,
		policy: bluemonday.UGCPolicy(),
		markdown: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		now:    time.Now,
		logger: logger,
	}, nil
}

// SendSummary emails the cards to the given address. It returns
// ErrNoFlashcards without contacting the server when cards is empty.
func (n *Notifier) SendSummary(ctx context.Context, to string, cards []models.Flashcard) error {
	if len(cards) == 0 {
		n.logger.Info("No flashcards to email")
		return ErrNoFlashcards
	}

	msg, err := n.Compose(to, cards)
	if err != nil {
		return err
	}

	n.logger.Debug("Sending summary of %d flashcards to %s", len(cards), to)
	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send summary email: %w", err)
	}
	return nil
}

// Compose builds the summary message: an HTML body with a plain-text
// alternative derived from it.
func (n *Notifier) Compose(to string, cards []models.Flashcard) (*mail.Msg, error) {
	now := n.now()

	html, err := n.RenderHTML(cards, now)
	if err != nil {
		return nil, err
	}
	text, err := n.markdown.ConvertString(html)
	if err != nil {
		return nil, fmt.Errorf("failed to render plain-text summary: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, fmt.Errorf("failed to set sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("failed to set recipient address: %w", err)
	}
	msg.Subject("Daily Learning Summary - " + now.Format(dateLayout))
	msg.SetDateWithValue(now)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	return msg, nil
}

type cardView struct {
	Number int
	Front  template.HTML
	Back   template.HTML
	Tags   string
}

// RenderHTML renders the summary body. Card fields may carry markup, such as
// the source link of a web annotation, so they are sanitised rather than
// escaped.
func (n *Notifier) RenderHTML(cards []models.Flashcard, date time.Time) (string, error) {
	views := make([]cardView, 0, len(cards))
	for i, card := range cards {
		views = append(views, cardView{
			Number: i + 1,
			Front:  template.HTML(n.policy.Sanitize(card.Front)),
			Back:   template.HTML(n.policy.Sanitize(card.Back)),
			Tags:   card.TagLine(),
		})
	}

	var buf bytes.Buffer
	err := summaryTemplate.Execute(&buf, struct {
		Date  string
		Count int
		Cards []cardView
	}{
		Date:  date.Format(dateLayout),
		Count: len(cards),
		Cards: views,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render summary: %w", err)
	}
	return buf.String(), nil
}

var summaryTemplate = template.Must(template.New("summary").Parse(`<html><body>
<h2>Today's Learning Summary ({{.Date}})</h2>
<p>Processed {{.Count}} flashcards:</p><hr>
{{range .Cards}}<div style="margin: 20px 0; border-left: 4px solid #3498db; padding-left: 10px;">
<h3>Card #{{.Number}}</h3>
<p><strong>Front:</strong> {{.Front}}</p>
<p><strong>Back:</strong> {{.Back}}</p>
<p><strong>Tags:</strong> {{.Tags}}</p>
</div>
{{end}}<hr><p>Generated by your Learning System</p>
</body></html>
`))
