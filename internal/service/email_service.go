package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"chunkreading/internal/models"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client      *sesv2.Client
	fromEmail   string
	fromName    string
	notifyEmail string
	enabled     bool
	debug       bool
}

// NewEmailService creates a new email service. Completion notices go to
// notifyEmail; the service is disabled when either address is empty.
func NewEmailService(awsRegion, fromEmail, fromName, notifyEmail string, debug bool) (*EmailService, error) {
	if fromEmail == "" || notifyEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL or NOTIFY_EMAIL not configured")
		if debug {
			log.Println("[DEBUG] Email service will skip sending all emails")
		}
		return &EmailService{
			enabled: false,
			debug:   debug,
		}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service with AWS SES")
		log.Printf("[DEBUG] AWS Region: %s", awsRegion)
		log.Printf("[DEBUG] From Email: %s", fromEmail)
		log.Printf("[DEBUG] From Name: %s", fromName)
		log.Printf("[DEBUG] Notify Email: %s", notifyEmail)
	}

	// Load AWS configuration
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		if debug {
			log.Printf("[DEBUG] Failed to load AWS config: %v", err)
		}
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(cfg)

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:      client,
		fromEmail:   fromEmail,
		fromName:    fromName,
		notifyEmail: notifyEmail,
		enabled:     true,
		debug:       debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendPassageCompleted tells the configured recipient that a learner passed
// every sentence of a passage
func (s *EmailService) SendPassageCompleted(ctx context.Context, studentID string, passage *models.Passage, stats *models.Statistics) error {
	if s.debug {
		log.Printf("[DEBUG] SendPassageCompleted called: student=%s, passage=%s", studentID, passage.ID)
	}

	if !s.enabled {
		log.Printf("Skipping email send (service disabled): passage %s completed by %s", passage.ID, studentID)
		return nil
	}

	subject, htmlBody, textBody := passageCompletedContent(studentID, passage, stats)

	if s.debug {
		log.Printf("[DEBUG] Sending completion email: subject=%s, to=%s", subject, s.notifyEmail)
		log.Printf("[DEBUG] HTML body length: %d bytes", len(htmlBody))
		log.Printf("[DEBUG] Text body length: %d bytes", len(textBody))
	}

	return s.sendEmail(ctx, s.notifyEmail, subject, htmlBody, textBody)
}

func passageCompletedContent(studentID string, passage *models.Passage, stats *models.Statistics) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("Passage completed: %s", passage.Title)

	var rows, lines strings.Builder
	for _, st := range stats.Sentences {
		structural, translation := scoreText(st.StructuralScore), scoreText(st.TranslationScore)
		fmt.Fprintf(&rows, "\t\t\t\t<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			st.Index+1, html.EscapeString(st.Sentence), structural, translation)
		fmt.Fprintf(&lines, "%d. %s (structure %s, translation %s)\n",
			st.Index+1, st.Sentence, structural, translation)
	}

	htmlBody = fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #4a90e2; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		table { width: 100%%; border-collapse: collapse; }
		td { border-bottom: 1px solid #ddd; padding: 6px; font-size: 14px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Passage Completed</h1>
		</div>
		<div class="content">
			<p>Learner <strong>%s</strong> passed every sentence of <strong>%s</strong>.</p>
			<p>Average structure: %d, average translation: %d, overall: %d</p>
			<table>
%s			</table>
		</div>
		<div class="footer">
			<p>This is an automated email from Chunk Reading. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, html.EscapeString(studentID), html.EscapeString(passage.Title),
		stats.AverageStructural, stats.AverageTranslation, stats.AverageOverall, rows.String())

	textBody = fmt.Sprintf(`Learner %s passed every sentence of "%s".

Average structure: %d, average translation: %d, overall: %d

%s
---
This is an automated email from Chunk Reading. Please do not reply.
`, studentID, passage.Title, stats.AverageStructural, stats.AverageTranslation, stats.AverageOverall, lines.String())

	return subject, htmlBody, textBody
}

func scoreText(score *int) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *score)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	if s.debug {
		log.Printf("[DEBUG] sendEmail called: to=%s, subject=%s", toEmail, subject)
	}

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		log.Printf("[DEBUG] From address: %s", fromAddress)
		log.Printf("[DEBUG] To address: %s", toEmail)
		log.Printf("[DEBUG] Subject: %s", subject)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if s.debug {
		log.Printf("[DEBUG] Calling SES SendEmail API...")
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		if s.debug {
			log.Printf("[DEBUG] SES SendEmail failed: %v", err)
		}
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug {
		log.Printf("[DEBUG] SES SendEmail succeeded")
		if result.MessageId != nil {
			log.Printf("[DEBUG] Message ID: %s", *result.MessageId)
		}
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
