package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"painsignal/internal/models"

	"github.com/resend/resend-go/v2"
)

var emailBody = template.Must(template.New("email").Parse(`<h1>New Pain Point Submission</h1>
<p><strong>ID:</strong> {{.ID}}</p>
<p><strong>Description:</strong></p>
<pre>{{.Description}}</pre>
<hr>
<h2>Classification Results:</h2>
{{with .Classification}}<ul>
  <li><strong>Industry:</strong> {{.Industry}}</li>
  <li><strong>Sentiment:</strong> {{.Sentiment}}</li>
  <li><strong>Confidence Score:</strong> {{.ConfidenceScore}}</li>
  <li><strong>Confidence Explanation:</strong> {{.ConfidenceExplanation}}</li>
</ul>{{end}}
<p><em>Submitted At: {{.SubmittedAt}}</em></p>
`))

// emailSender is the part of the Resend client used here.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// EmailSink sends one email per record through Resend.
type EmailSink struct {
	sender emailSender
	from   string
	to     string
}

// NewResendSink creates an email sink backed by the Resend API.
func NewResendSink(apiKey, from, to string) *EmailSink {
	client := resend.NewClient(apiKey)
	return &EmailSink{sender: client.Emails, from: from, to: to}
}

func (s *EmailSink) Name() string { return "email" }

// Send delivers the record as an HTML email.
func (s *EmailSink) Send(ctx context.Context, rec *models.PainPointRecord) error {
	subject, html, err := renderEmail(rec)
	if err != nil {
		return err
	}

	_, err = s.sender.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{s.to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("resend request failed: %w", err)
	}
	return nil
}

func renderEmail(rec *models.PainPointRecord) (string, string, error) {
	industry := rec.Industry
	if industry == "" {
		industry = "Unknown Industry"
	}
	subject := "New Pain Point Submitted: " + industry

	submitted := rec.CreatedAt
	if t, err := time.Parse(models.TimestampLayout, rec.CreatedAt); err == nil {
		submitted = t.Format(time.RFC1123)
	}

	var buf bytes.Buffer
	err := emailBody.Execute(&buf, struct {
		ID             string
		Description    string
		Classification models.Classification
		SubmittedAt    string
	}{rec.ID, rec.Description, rec.Classification(), submitted})
	if err != nil {
		return "", "", fmt.Errorf("failed to render email: %w", err)
	}

	return subject, buf.String(), nil
}
