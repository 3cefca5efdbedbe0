package templates

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template names accepted in EmailJob.Template.
const (
	Welcome       = "welcome"
	ResetPassword = "reset_password"
)

var welcomeTpl = template.Must(template.New(Welcome).Parse(`
<html>
  <body style="font-family:sans-serif">
    <h2>Welcome to apidex, {{.Username}}!</h2>
    <p>Your account is ready. Sign in and start cataloguing your APIs.</p>
  </body>
</html>
`))

var resetPasswordTpl = template.Must(template.New(ResetPassword).Parse(`
<html>
  <body style="font-family:sans-serif">
    <h2>Reset your password</h2>
    <p>Hi {{.Username}},</p>
    <p>A password reset was requested for this account{{if .IP}} from {{.IP}}{{end}}.
       If that was you, use the link below. It expires in {{.ExpiresIn}}.</p>
    <p><a href="{{.ResetURL}}">{{.ResetURL}}</a></p>
    <p>If you did not request this, you can ignore this email.</p>
  </body>
</html>
`))

// Render renders the named template with data and returns subject, text and
// HTML bodies.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	var tpl *template.Template
	switch name {
	case Welcome:
		tpl = welcomeTpl
		subject = "Welcome to apidex"
		text = "Your apidex account is ready."
	case ResetPassword:
		tpl = resetPasswordTpl
		subject = "Reset your password"
		text = fmt.Sprintf("Reset your password: %v", data["ResetURL"])
	default:
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", "", "", err
	}
	return subject, text, buf.String(), nil
}
