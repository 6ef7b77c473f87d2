package compose

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"
)

//go:embed default.tmpl
var defaultTemplate string

type FieldDefinition struct {
	ID      string
	Role    string
	Number  int
	Content string
}

type SubmissionDefinition struct {
	Action string
	Values map[string]string
}

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Generated   time.Time
	SourceFile  string
	Fields      []FieldDefinition
	Submissions []SubmissionDefinition
}

func expandTemplate(text string, values Values) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New("compose").Funcs(funcMap).Parse(text)
	if err != nil {
		return "", fmt.Errorf("unable to parse output template: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
