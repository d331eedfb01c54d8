package notify

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "driver"}}<h2>New delivery assigned</h2>
<p><strong>Order:</strong> {{.OrderID}}</p>
<p><strong>Address:</strong> {{.Address}}</p>
<p><strong>ETA:</strong> {{.ETA}}</p>
<p><strong>Customer:</strong> {{.Contact}}</p>
{{if .Items}}<ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>{{end}}{{end}}

{{define "request"}}<h2>{{.Heading}}</h2>
<p>Hi {{.Name}},</p>
<p>{{.Body}}</p>
<p><strong>Request:</strong> {{.Type}} ({{.Status}})</p>
{{if .Reason}}<p><strong>Reason:</strong> {{.Reason}}</p>{{end}}
{{if .Notes}}<div><strong>Notes:</strong> {{.Notes}}</div>{{end}}{{end}}

{{define "admin"}}<h2>{{.Heading}}</h2>
<p><strong>Customer:</strong> {{.Name}} ({{.Email}})</p>
<p><strong>Request:</strong> {{.RequestID}} {{.Type}} ({{.Status}})</p>
<p><strong>Plan:</strong> {{.PlanID}}</p>
{{if .Reason}}<p><strong>Reason:</strong> {{.Reason}}</p>{{end}}
{{if .Notes}}<div><strong>Notes:</strong> {{.Notes}}</div>{{end}}{{end}}
`))

// notesPolicy keeps basic formatting in admin-entered notes.
var notesPolicy = bluemonday.UGCPolicy()

// richText sanitises user or admin supplied HTML for embedding in a template.
func richText(s string) template.HTML {
	return template.HTML(notesPolicy.Sanitize(s))
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
