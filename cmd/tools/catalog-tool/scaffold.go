// cmd/tools/catalog-tool/scaffold.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"mock-response-service/internal/common/validation"
	"mock-response-service/pkg/registry"

	"github.com/spf13/cobra"
)

// ServiceData holds data for the catalog file template
type ServiceData struct {
	ID      string
	Name    string
	Desc    string
	Flavors []string
}

const serviceTemplate = `name: {{ printf "%q" .Name }}
desc: {{ printf "%q" .Desc }}
defaultResponse: {{ index .Flavors 0 }}
responses:
{{- range $i, $f := .Flavors }}
  - id: {{ $f }}
    name: {{ title $f }}
    desc: {{ printf "%s response" (title $f) | printf "%q" }}
{{- if eq $i 0 }}
    template:
      id: "{{ "{{" }} userId {{ "}}" }}"
      requestId: "{{ "{{" }} faker.string.uuid() {{ "}}" }}"
      createdAt: "{{ "{{" }} timestamp {{ "}}" }}"
{{- end }}
{{- end }}
`

func scaffoldCmd() *cobra.Command {
	var (
		name    string
		desc    string
		flavors []string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "scaffold <service-id>",
		Short: "Write a starter catalog file for a new service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := ServiceData{ID: args[0], Name: name, Desc: desc, Flavors: flavors}
			if err := data.validate(); err != nil {
				return err
			}

			path := filepath.Join(catalogDir, data.ID+".yaml")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			cat, err := registry.LoadCatalog(catalogDir)
			if err == nil {
				if _, exists := cat.Services[data.ID]; exists && !force {
					return fmt.Errorf("service %q is already defined in %s", data.ID, catalogDir)
				}
			}

			if err := writeServiceFile(path, data); err != nil {
				return err
			}
			if _, err := registry.LoadCatalog(catalogDir); err != nil {
				return fmt.Errorf("scaffolded catalog does not load: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s with %d flavors\n", path, len(data.Flavors))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the id)")
	cmd.Flags().StringVar(&desc, "desc", "", "one-line description")
	cmd.Flags().StringSliceVar(&flavors, "flavor", []string{"success", "error"}, "flavor ids, first is the default")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (d *ServiceData) validate() error {
	if !validation.ValidateIdentifier(d.ID) {
		return fmt.Errorf("service id %q must use lowercase letters, digits, _ or -", d.ID)
	}
	if len(d.Flavors) == 0 {
		return fmt.Errorf("at least one --flavor is required")
	}
	seen := make(map[string]bool, len(d.Flavors))
	for _, f := range d.Flavors {
		if !validation.ValidateIdentifier(f) {
			return fmt.Errorf("flavor id %q must use lowercase letters, digits, _ or -", f)
		}
		if seen[f] {
			return fmt.Errorf("duplicate flavor %q", f)
		}
		seen[f] = true
	}
	if d.Name == "" {
		d.Name = d.ID
	}
	if d.Desc == "" {
		d.Desc = "Mock responses for " + d.Name
	}
	return nil
}

func writeServiceFile(path string, data ServiceData) error {
	tmpl, err := template.New("service").Funcs(template.FuncMap{
		"title": func(id string) string {
			words := strings.FieldsFunc(id, func(r rune) bool { return r == '_' || r == '-' })
			for i, w := range words {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
			return strings.Join(words, " ")
		},
	}).Parse(serviceTemplate)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return tmpl.Execute(f, data)
}
