// Package templates holds the Go templates the generator renders.
package templates

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"
)

// RegistryData is the input of the registry template
type RegistryData struct {
	Package     string
	ImportPath  string
	Controllers []ControllerData
}

// ControllerData describes the registration of one controller
type ControllerData struct {
	Module    string
	SubModule string
	Name      string
	TypeName  string
	Var       string // the parameter the instance is passed in
	Type      string // the parameter type, T or *T
	Init      string // init method name, empty when none
	Actions   []ActionData
}

// ActionData describes the registration of one action
type ActionData struct {
	Name   string
	Method string
	Params []string // frood.Required/frood.Optional expressions
}

const registryTemplate = `// Code generated by frood gen. DO NOT EDIT.

package {{.Package}}

import "github.com/toyz/frood/pkg/frood"

// RegisterFroodControllers registers the annotated controllers of {{if .ImportPath}}{{.ImportPath}}{{else}}package {{.Package}}{{end}}.
func RegisterFroodControllers(reg *frood.Registry{{range .Controllers}}, {{.Var}} {{.Type}}{{end}}) {
{{- range $c := .Controllers}}
	reg.Controller({{quote $c.Module}}, {{quote $c.SubModule}}, {{quote $c.Name}}){{if $c.Init}}.
		Init({{$c.Var}}.{{$c.Init}}){{end}}{{range $c.Actions}}.
		Action({{quote .Name}}, {{$c.Var}}.{{.Method}}{{range .Params}}, {{.}}{{end}}){{end}}
{{- end}}
}

// FroodControllerKeys lists the controllers RegisterFroodControllers registers.
var FroodControllerKeys = []string{
{{- range .Controllers}}
	{{quote (printf "%s_%s_controller_%s" .Module .SubModule .Name)}},
{{- end}}
}
`

var registry = template.Must(template.New("registry").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(registryTemplate))

// RenderRegistry renders the registry file of a package. The output is not formatted.
func RenderRegistry(data RegistryData) ([]byte, error) {
	var buf bytes.Buffer
	if err := registry.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render registry of %s: %w", data.Package, err)
	}
	return buf.Bytes(), nil
}
