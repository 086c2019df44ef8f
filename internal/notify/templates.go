package notify

import (
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	"sync"
	"text/template"
)

type executor interface {
	Execute(w io.Writer, data any) error
}

// TemplateStore compiles and renders named templates. Email bodies go
// through html/template, chat messages through text/template.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[string]executor
}

// NewTemplateStore seeds the store with the built-in templates.
func NewTemplateStore() *TemplateStore {
	store := &TemplateStore{
		templates: make(map[string]executor),
	}
	_ = store.RegisterText(TemplateSubmissionReceived,
		`{{.SubmitterName}} submitted "{{.FilmTitle}}" ({{.Duration}}) for <{{.EventURL}}|{{.EventTitle}}>`)
	_ = store.RegisterHTML(TemplateFileRequestClaimed, fileRequestLayout(`
<div style="text-align: center; margin: 30px 0;">
  <a href="{{.SubmissionsURL}}" style="`+buttonStyle+`">Add Your Video Link</a>
</div>`))
	_ = store.RegisterHTML(TemplateFileRequestUnclaimed, fileRequestLayout(`
<div style="background: #e0e7ff; border-left: 4px solid #667eea; padding: 16px; margin: 24px 0;">
  <p style="margin: 0 0 12px; font-weight: 600;">Claim Your Account</p>
  <p style="margin: 0 0 12px;">You're already in the filmmaker directory! Claim your account to manage your submissions and filmmaker profile.</p>
  <div style="text-align: center;"><a href="{{.ClaimProfileURL}}" style="`+buttonStyle+`">Claim Your Account</a></div>
</div>`))
	_ = store.RegisterHTML(TemplateFileRequestNotInDirectory, fileRequestLayout(`
<div style="background: #f3f4f6; border-left: 4px solid #6b7280; padding: 16px; margin: 24px 0;">
  <p style="margin: 0 0 12px; font-weight: 600;">Provide Your Video Link</p>
  <ul style="margin: 0 0 16px; padding-left: 20px;">
    <li><strong>Reply to this email</strong> with your video link, or</li>
    <li><strong>Create an account</strong> to manage your submissions online and be added to our directory</li>
  </ul>
  <div style="text-align: center;"><a href="{{.SignupURL}}" style="`+buttonStyle+`">Create Account</a></div>
</div>`))
	return store
}

const buttonStyle = "display: inline-block; background: #667eea; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none; font-weight: 600;"

func fileRequestLayout(action string) string {
	return `<h2 style="margin-top: 0;">Congratulations! Your Film Has Been Selected</h2>
<p>Hi {{.Name}},</p>
<p>Great news! Your film <strong>{{.FilmTitle}}</strong> has been selected to be shown at <strong>{{.EventTitle}}</strong> on {{.EventDate}}.</p>
<p>To ensure the best possible viewing experience, we need you to provide a link to your full-resolution video file.</p>
<ul>
  <li>Format: MP4 or MOV</li>
  <li>Resolution: 1080p or higher</li>
  <li>Upload to: Google Drive, Dropbox, WeTransfer, etc.</li>
</ul>` + action + `
<p>Please send your link before {{.Deadline}}.</p>`
}

// RegisterText adds or replaces a plain text template.
func (s *TemplateStore) RegisterText(name, body string) error {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(body)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", name, err)
	}
	s.put(name, tmpl)
	return nil
}

// RegisterHTML adds or replaces a template whose output is escaped for HTML.
func (s *TemplateStore) RegisterHTML(name, body string) error {
	tmpl, err := htmltemplate.New(name).Option("missingkey=zero").Parse(body)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", name, err)
	}
	s.put(name, tmpl)
	return nil
}

func (s *TemplateStore) put(name string, tmpl executor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[name] = tmpl
}

// Render executes the template with the provided data.
func (s *TemplateStore) Render(name string, data any) (string, error) {
	s.mu.RLock()
	tmpl, ok := s.templates[name]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("template %s not found", name)
	}
	var out strings.Builder
	if err := tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return out.String(), nil
}
