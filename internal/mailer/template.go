package mailer

import (
	"fmt"
	"regexp"
)

// DefaultBodyTemplate is the plain text body used when no template is
// configured. Tokens use the same {{name}} syntax as hosted templates.
const DefaultBodyTemplate = `New Bug Report

Report ID: {{report_id}}
Reported by: {{username}}
Bug type: {{bug_type}}
Submitted: {{timestamp}}

Description:
{{description}}

Attachments: {{attachment_count}} file(s)
`

var tokenPattern = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// RenderTemplate substitutes {{name}} tokens with the matching parameter.
// Unknown tokens are replaced with an empty string.
func RenderTemplate(tmpl string, params Params) string {
	return tokenPattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		name := tokenPattern.FindStringSubmatch(token)[1]
		v, ok := params[name]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	})
}
