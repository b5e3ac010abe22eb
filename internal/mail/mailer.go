// Package mail sends the application's transactional emails (invitations,
// password resets, verification) over SMTP with STARTTLS.
package mail

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog/log"
)

type Config struct {
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	FromName  string
	FromEmail string
}

type Mailer struct {
	cfg Config
}

func NewMailer(cfg Config) *Mailer {
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" || cfg.SMTPPass == "" {
		log.Warn().Msg("SMTP not fully configured; outgoing email will fail until it is")
	}
	return &Mailer{cfg: cfg}
}

func (m *Mailer) send(to, subject string, html []byte) error {
	e := email.NewEmail()
	e.From = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromEmail)
	e.To = []string{to}
	e.Subject = subject
	e.HTML = html

	auth := smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	return e.SendWithStartTLS(
		fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort),
		auth,
		&tls.Config{ServerName: m.cfg.SMTPHost},
	)
}

// SendSafe sends an email and converts a delivery failure into a boolean, for
// callers that treat the mail as best-effort.
func (m *Mailer) SendSafe(to, subject string, html []byte) bool {
	if err := m.send(to, subject, html); err != nil {
		log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("failed to send email")
		return false
	}
	log.Info().Str("to", to).Str("subject", subject).Msg("email sent")
	return true
}

type templateData struct {
	AppName   string
	Recipient string
	Title     string
	Message   string
	ActionURL string
	Action    string
	Footnote  string
}

// parsed once; a broken template fails at init, not per email
var baseTmpl = template.Must(template.New("mail").Parse(baseTemplate))

func (m *Mailer) render(data templateData) []byte {
	data.AppName = "DayPlaner"
	var buf bytes.Buffer
	if err := baseTmpl.Execute(&buf, data); err != nil {
		log.Error().Err(err).Msg("failed to render email template")
		return nil
	}
	return buf.Bytes()
}

// SendInvitation emails an organisation invite with its accept link.
func (m *Mailer) SendInvitation(to, orgName, invitedBy, role, inviteURL string) bool {
	html := m.render(templateData{
		Recipient: to,
		Title:     fmt.Sprintf("You're invited to join %s", orgName),
		Message: fmt.Sprintf("%s invited you to join %s as %s. The invitation is valid for 7 days.",
			invitedBy, orgName, role),
		ActionURL: inviteURL,
		Action:    "Accept invitation",
		Footnote:  "If you weren't expecting this invitation you can ignore this email.",
	})
	return m.SendSafe(to, fmt.Sprintf("You're invited to join %s", orgName), html)
}

// SendPasswordReset emails a password reset link.
func (m *Mailer) SendPasswordReset(to, username, resetURL string) bool {
	html := m.render(templateData{
		Recipient: username,
		Title:     "Reset your password",
		Message:   "You requested a password reset. The link below is valid for one hour.",
		ActionURL: resetURL,
		Action:    "Reset password",
		Footnote:  "If you didn't request a reset, your password is unchanged and you can ignore this email.",
	})
	return m.SendSafe(to, "Password reset request", html)
}

// SendVerification emails an address confirmation link.
func (m *Mailer) SendVerification(to, username, verifyURL string) bool {
	html := m.render(templateData{
		Recipient: username,
		Title:     "Verify your email address",
		Message:   "Please confirm that this address belongs to your account.",
		ActionURL: verifyURL,
		Action:    "Verify email",
		Footnote:  "If you didn't create an account, you can ignore this email.",
	})
	return m.SendSafe(to, "Verify your email address", html)
}

const baseTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
</head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; background-color: #f8fafc; color: #333;">
<div style="max-width: 600px; margin: 40px auto; background: #ffffff; border-radius: 8px; overflow: hidden;">
	<div style="background: #4f46e5; color: white; padding: 32px; text-align: center;">
		<h1 style="margin: 0; font-size: 24px;">{{.AppName}}</h1>
		<p style="margin: 8px 0 0; opacity: 0.9;">{{.Title}}</p>
	</div>
	<div style="padding: 32px;">
		<p>Hello {{.Recipient}},</p>
		<p>{{.Message}}</p>
		<p style="text-align: center; margin: 32px 0;">
			<a href="{{.ActionURL}}" style="background: #4f46e5; color: white; padding: 12px 24px; border-radius: 6px; text-decoration: none;">{{.Action}}</a>
		</p>
		<p style="font-size: 13px; color: #718096;">{{.Footnote}}</p>
	</div>
	<div style="background: #f7fafc; padding: 20px; text-align: center; font-size: 13px; color: #718096;">
		<p style="margin: 0;">This is an automated message, please do not reply.</p>
	</div>
</div>
</body>
</html>`
