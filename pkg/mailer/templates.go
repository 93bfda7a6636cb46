package mailer

import "html/template"

const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#f1f5f9;font-family:'Segoe UI',Tahoma,Geneva,Verdana,sans-serif;">
    <div style="max-width:520px;margin:40px auto;background:#ffffff;border-radius:12px;overflow:hidden;border:1px solid #e2e8f0;">
        <!-- Header -->
        <div style="background:linear-gradient(135deg,#1d4ed8 0%,#0ea5e9 100%);padding:28px;text-align:center;">
            <h1 style="color:#fff;margin:0;font-size:24px;font-weight:700;">🎓 {{.AppName}}</h1>
            <p style="color:rgba(255,255,255,0.85);margin:8px 0 0;font-size:14px;">{{template "heading" .}}</p>
        </div>

        <!-- Body -->
        <div style="padding:28px;">
            <p style="color:#0f172a;font-size:16px;line-height:1.6;margin:0 0 20px;">
                Hi <strong style="color:#1d4ed8;">{{.Name}}</strong>,
            </p>
            {{template "content" .}}
        </div>

        <!-- Footer -->
        <div style="padding:16px 28px;border-top:1px solid #e2e8f0;text-align:center;">
            <p style="color:#64748b;font-size:12px;margin:0;">© 2026 {{.AppName}}. All rights reserved.</p>
        </div>
    </div>
</body>
</html>{{end}}`

const codeBlock = `{{define "code"}}
            <div style="background:#eff6ff;border:2px dashed #93c5fd;border-radius:10px;padding:20px;text-align:center;margin:0 0 20px;">
                <span style="font-size:34px;font-weight:800;letter-spacing:8px;color:#1d4ed8;font-family:'Courier New',monospace;">{{.Code}}</span>
            </div>
            <p style="color:#64748b;font-size:13px;line-height:1.5;margin:0 0 8px;">
                ⏰ This code expires in <strong style="color:#d97706;">{{.ExpiryMinutes}} minutes</strong>.
            </p>{{end}}`

var (
	otpTemplate = mustParse("otp", `{{define "heading"}}Email Verification{{end}}
{{define "content"}}
            <p style="color:#475569;font-size:14px;line-height:1.6;margin:0 0 20px;">Your verification code is:</p>
            {{template "code" .}}
            <p style="color:#64748b;font-size:13px;line-height:1.5;margin:0;">
                If you didn't create an account, please ignore this email.
            </p>{{end}}`)

	resetTemplate = mustParse("reset", `{{define "heading"}}Password Reset{{end}}
{{define "content"}}
            <p style="color:#475569;font-size:14px;line-height:1.6;margin:0 0 20px;">
                We received a request to reset your password. Use this code:
            </p>
            {{template "code" .}}
            <p style="color:#64748b;font-size:13px;line-height:1.5;margin:0;">
                If you didn't request a password reset, please ignore this email and your password will remain unchanged.
            </p>{{end}}`)

	welcomeTemplate = mustParse("welcome", `{{define "heading"}}Welcome aboard{{end}}
{{define "content"}}
            <p style="color:#475569;font-size:14px;line-height:1.6;margin:0 0 20px;">
                Your email is verified. Practice questions, take mock tests and track your progress from your dashboard.
            </p>
            <p style="text-align:center;margin:0 0 8px;">
                <a href="{{.URL}}" style="display:inline-block;background:#1d4ed8;color:#fff;text-decoration:none;padding:12px 24px;border-radius:8px;font-weight:600;">Open dashboard</a>
            </p>{{end}}`)

	notificationTemplate = mustParse("notification", `{{define "heading"}}{{.Title}}{{end}}
{{define "content"}}
            <p style="color:#475569;font-size:14px;line-height:1.6;margin:0 0 20px;">{{.Message}}</p>
            <p style="text-align:center;margin:0 0 8px;">
                <a href="{{.URL}}" style="display:inline-block;background:#1d4ed8;color:#fff;text-decoration:none;padding:12px 24px;border-radius:8px;font-weight:600;">View details</a>
            </p>{{end}}`)
)

func mustParse(name, body string) *template.Template {
	t := template.Must(template.New(name).Parse(layoutTemplate))
	template.Must(t.Parse(codeBlock))
	template.Must(t.Parse(body))
	return t.Lookup("layout")
}
