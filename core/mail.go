package core

import (
	"bytes"
	"net/mail"
	"path/filepath"
	"strings"
	texttmpl "text/template"
)

var emailTemplates map[string]*texttmpl.Template // {name: template}

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
	}

	// ContextData is the root object available to every email template.
	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// Render resolves the message's text content, either straight from BodyStr or
// by executing the named template. A missing template leaves the content
// empty; senders skip empty messages.
func (m *EmailMessage) Render(conf *Config) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if m.TemplateName == "" {
		return nil
	}
	tmpl, ok := emailTemplates[m.TemplateName]
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	data := ContextData{FrontendBaseURL: conf.FrontendBaseURL, Data: m.TemplateData}
	if err := tmpl.Execute(&buff, data); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" }

// ParseEmailTemplates loads all *.txt templates under assets/templates/email.
func ParseEmailTemplates(conf *Config, logger Logger) {
	emailTemplates = make(map[string]*texttmpl.Template)

	rp := filepath.Join(conf.WorkDir, "assets", "templates", "email")
	fps, err := filepath.Glob(filepath.Join(rp, "*.txt"))
	if err != nil {
		logger.Error("parsing email templates", err)
		return
	}

	for _, fp := range fps {
		name := strings.TrimSuffix(filepath.Base(fp), ".txt")
		tmpl, err := texttmpl.ParseFiles(fp)
		if err != nil {
			logger.Error("parsing email template "+fp, err)
			continue
		}
		emailTemplates[name] = tmpl
	}
}
