package commands

const controllerTemplate = `package {{.Package}}

import (
	"github.com/dframe-go/dframe/router"
)

// {{.Type}} handles {{lower .Type}} routes
type {{.Type}} struct{}

// Routes implements router.Controller
func (ctl *{{.Type}}) Routes() []router.Attribute {
	return []router.Attribute{
{{- range .Actions}}
		{Path: "{{.Path}}", Method: "{{.Method}}", {{if $.API}}API: true, {{end}}Name: "{{.Name}}", Handler: ctl.{{.Func}}},
{{- end}}
	}
}
{{range .Actions}}
func (ctl *{{$.Type}}) {{.Func}}({{if .Param}}id string{{end}}) any {
	return map[string]any{
		"action": "{{.Func}}",
{{- if .Param}}
		"id":     id,
{{- end}}
	}
}
{{end}}`
