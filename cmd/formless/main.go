// Command formless turns declarative form definitions into JSON Schema
// documents.
//
// Usage:
//
//	formless schema -f form.yaml [-o out.json] [-format json|yaml]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/formlessness/formless"
	"github.com/formlessness/formless/forms"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "schema":
		schemaCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "formless CLI\n\nUsage:\n  formless schema -f form.yaml [-o out.json] [-format json|yaml]\n\nNotes:\n  - The definition file is YAML (or JSON, by extension) describing a form's fields.")
}

func schemaCmd(args []string) {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	var in string
	var out string
	var format string
	fs.StringVar(&in, "f", "", "form definition file (.yaml, .yml or .json)")
	fs.StringVar(&out, "o", "", "output filename (default stdout)")
	fs.StringVar(&format, "format", "json", "output format: json or yaml")
	_ = fs.Parse(args)
	if in == "" {
		fs.Usage()
		os.Exit(2)
	}

	def, err := loadDefinition(in)
	if err != nil {
		fatal(err)
	}
	form, err := buildForm(def)
	if err != nil {
		fatal(err)
	}
	doc := form.Document()

	var rendered []byte
	switch format {
	case "yaml":
		rendered, err = yaml.Marshal(doc)
	default:
		rendered, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		fatal(err)
	}
	if out == "" {
		fmt.Println(string(rendered))
		return
	}
	if err := os.WriteFile(out, rendered, 0o644); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "formless:", err)
	os.Exit(1)
}

// definition is the on-disk shape of a form or field.
type definition struct {
	Key         string   `yaml:"key" json:"key"`
	Type        string   `yaml:"type" json:"type"`
	Label       string   `yaml:"label" json:"label"`
	Description string   `yaml:"description" json:"description"`
	Required    *bool    `yaml:"required" json:"required"`
	Nullable    bool     `yaml:"nullable" json:"nullable"`
	Choices     []any    `yaml:"choices" json:"choices"`
	Min         *float64 `yaml:"min" json:"min"`
	Max         *float64 `yaml:"max" json:"max"`
	MaxLength   *int     `yaml:"maxLength" json:"maxLength"`
	Pattern     string   `yaml:"pattern" json:"pattern"`

	Fields []definition `yaml:"fields" json:"fields"`
}

func loadDefinition(path string) (*definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def definition
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".json" {
		err = json.Unmarshal(raw, &def)
	} else {
		err = yaml.Unmarshal(raw, &def)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if def.Type == "" {
		def.Type = "form"
	}
	return &def, nil
}

func buildForm(def *definition) (*forms.Form, error) {
	if def.Type != "form" {
		return nil, fmt.Errorf("top-level definition must have type form, got %q", def.Type)
	}
	if def.Key == "" {
		def.Key = "form"
	}
	nodes := make([]forms.Node, 0, len(def.Fields))
	for i := range def.Fields {
		node, err := buildNode(&def.Fields[i])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	opts := []forms.FormOption{forms.Children(nodes...)}
	if def.Label != "" {
		opts = append(opts, forms.FormLabel(def.Label))
	}
	if def.Description != "" {
		opts = append(opts, forms.FormDescription(def.Description))
	}
	if def.Required != nil && !*def.Required {
		opts = append(opts, forms.OptionalForm())
	}
	if def.Nullable {
		opts = append(opts, forms.NullableForm())
	}
	return forms.New(def.Key, opts...), nil
}

func buildNode(def *definition) (forms.Node, error) {
	if def.Key == "" {
		return nil, fmt.Errorf("field of type %q is missing a key", def.Type)
	}
	if def.Type == "form" {
		return buildForm(def)
	}
	opts, err := fieldOptions(def)
	if err != nil {
		return nil, err
	}
	switch def.Type {
	case "string", "":
		return forms.String(def.Key, opts...), nil
	case "int", "integer":
		return forms.Int(def.Key, opts...), nil
	case "number", "float":
		return forms.Number(def.Key, opts...), nil
	case "bool", "boolean":
		return forms.Bool(def.Key, opts...), nil
	case "date":
		return forms.Date(def.Key, opts...), nil
	case "commalist":
		return forms.CommaList(def.Key, opts...), nil
	default:
		return nil, fmt.Errorf("field %q: unknown type %q", def.Key, def.Type)
	}
}

func fieldOptions(def *definition) ([]forms.FieldOption, error) {
	var opts []forms.FieldOption
	if def.Label != "" {
		opts = append(opts, forms.Label(def.Label))
	}
	if def.Description != "" {
		opts = append(opts, forms.Description(def.Description))
	}
	if def.Required != nil && !*def.Required {
		opts = append(opts, forms.Optional())
	}
	if def.Nullable {
		opts = append(opts, forms.Nullable())
	}
	if len(def.Choices) > 0 {
		opts = append(opts, forms.ChoiceValues(def.Choices...))
	}
	var dataConstraints []formless.Constraint
	if def.Min != nil {
		dataConstraints = append(dataConstraints, formless.GE(*def.Min))
	}
	if def.Max != nil {
		dataConstraints = append(dataConstraints, formless.LE(*def.Max))
	}
	if def.MaxLength != nil {
		limit := *def.MaxLength
		msg := fmt.Sprintf("Must be %d characters or less.", limit)
		dataConstraints = append(dataConstraints, formless.Predicate("max_length", msg, func(v any) bool {
			s, ok := v.(string)
			return ok && len(s) <= limit
		}, formless.IsString))
	}
	if def.Pattern != "" {
		if _, err := regexp.Compile(def.Pattern); err != nil {
			return nil, fmt.Errorf("field %q: bad pattern: %w", def.Key, err)
		}
		dataConstraints = append(dataConstraints, formless.Regex(def.Pattern, ""))
	}
	if len(dataConstraints) > 0 {
		opts = append(opts, forms.DataConstraint(dataConstraints...))
	}
	return opts, nil
}
