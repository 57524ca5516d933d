package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

// WelcomeSubject is the subject line of the registration email.
const WelcomeSubject = "Welcome to Files Manager"

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<div>
  <h3>Hello {{.}},</h3>
  <p>Welcome to Files Manager, a simple file management API. We hope it meets your needs.</p>
</div>`))

// WelcomeBody renders the registration email for address.
func WelcomeBody(address string) (string, error) {
	var buf bytes.Buffer
	if err := welcomeTmpl.Execute(&buf, address); err != nil {
		return "", fmt.Errorf("render welcome: %w", err)
	}
	return buf.String(), nil
}
