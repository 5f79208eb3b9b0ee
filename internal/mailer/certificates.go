// Package mailer delivers completion certificates by email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"aidlink/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

type CertificateMailer struct {
	client *mail.Client
	from   string
	logger *logrus.Logger
}

func New(config *types.Config, logger *logrus.Logger) (*CertificateMailer, error) {
	client, err := mail.NewClient(
		config.EmailServerHost,
		mail.WithPort(config.EmailServerPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(config.EmailServerUser),
		mail.WithPassword(config.EmailServerPassword),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	from := config.EmailFrom
	if from == "" {
		from = config.EmailServerUser
	}

	return &CertificateMailer{client: client, from: from, logger: logger}, nil
}

// IssueCertificate renders the certificate mail for the volunteer and
// sends it. Called after an approval has committed; the caller owns
// the partial-failure policy.
func (m *CertificateMailer) IssueCertificate(ctx context.Context, email, name, programName string) error {
	body, err := buildCertificateHTML(certificateData{Name: name, ProgramName: programName})
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(email); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject("Certificate")
	msg.SetBodyString(mail.TypeTextPlain, buildCertificateText(name, programName))
	msg.AddAlternativeString(mail.TypeTextHTML, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send certificate: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"email":   email,
		"program": programName,
	}).Info("certificate issued")

	return nil
}

type certificateData struct {
	Name        string
	ProgramName string
}

func buildCertificateText(name, programName string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Congratulations %s!\n\n", name))
	buf.WriteString(fmt.Sprintf("This certifies your completion of the aid program %q.\n", programName))
	buf.WriteString("Thank you for volunteering.\n")
	return buf.String()
}

func buildCertificateHTML(data certificateData) (string, error) {
	var buf bytes.Buffer
	if err := certificateTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render certificate: %w", err)
	}
	return buf.String(), nil
}

var certificateTemplate = template.Must(template.New("certificate").Parse(certificateHTMLTemplate))

const certificateHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Certificate</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px; text-align: center;">
              <h1 style="margin: 0 0 16px; font-size: 24px; color: #1f2937;">Congratulations {{.Name}}!</h1>
              <p style="margin: 0 0 8px; font-size: 16px; color: #4b5563;">Here is your certificate:</p>
              <p style="margin: 0; font-size: 18px; font-weight: 600; color: #1f2937;">Certificate of completion: {{.ProgramName}}</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
