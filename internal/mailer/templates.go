package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

type emailData struct {
	Name string
	Link string
}

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Verify Your Email</title></head>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; background-color: #f4f4f4; margin: 0; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 10px; overflow: hidden;">
    <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; text-align: center;">
      <h1>Welcome to SkillSwap!</h1>
      <p>Verify your email to get started</p>
    </div>
    <div style="padding: 40px 30px;">
      <p>Hi {{.Name}},</p>
      <p>Thanks for joining SkillSwap. Click the button below to verify your email address:</p>
      <p style="text-align: center;">
        <a href="{{.Link}}" style="display: inline-block; background: #667eea; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; font-weight: bold;">Verify Email</a>
      </p>
      <p style="background: #fff3cd; padding: 15px; border-radius: 5px; color: #856404;">This link expires in 24 hours. If you didn't create a SkillSwap account, you can ignore this email.</p>
    </div>
  </div>
</body>
</html>`))

var resetTmpl = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Reset Your Password</title></head>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; background-color: #f4f4f4; margin: 0; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 10px; overflow: hidden;">
    <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; text-align: center;">
      <h1>Password Reset</h1>
    </div>
    <div style="padding: 40px 30px;">
      <p>Hi {{.Name}},</p>
      <p>We received a request to reset your SkillSwap password. Click the button below to choose a new one:</p>
      <p style="text-align: center;">
        <a href="{{.Link}}" style="display: inline-block; background: #667eea; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; font-weight: bold;">Reset Password</a>
      </p>
      <p style="background: #fff3cd; padding: 15px; border-radius: 5px; color: #856404;">This link expires in 1 hour. If you didn't request a reset, your password is still safe and you can ignore this email.</p>
    </div>
  </div>
</body>
</html>`))

func VerificationEmail(name, link string) (subject, htmlBody, textBody string, err error) {
	htmlBody, err = render(verificationTmpl, emailData{Name: name, Link: link})
	if err != nil {
		return "", "", "", err
	}

	textBody = fmt.Sprintf(
		"Hi %s,\n\nThanks for joining SkillSwap. Verify your email address by opening this link:\n\n%s\n\nThis link expires in 24 hours.\n",
		name, link,
	)

	return "Verify your SkillSwap account", htmlBody, textBody, nil
}

func PasswordResetEmail(name, link string) (subject, htmlBody, textBody string, err error) {
	htmlBody, err = render(resetTmpl, emailData{Name: name, Link: link})
	if err != nil {
		return "", "", "", err
	}

	textBody = fmt.Sprintf(
		"Hi %s,\n\nWe received a request to reset your SkillSwap password. Open this link to choose a new one:\n\n%s\n\nThis link expires in 1 hour.\n",
		name, link,
	)

	return "Reset your SkillSwap password", htmlBody, textBody, nil
}

func render(tmpl *template.Template, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mailer: render template: %w", err)
	}
	return buf.String(), nil
}
