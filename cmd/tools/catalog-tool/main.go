// cmd/tools/catalog-tool/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	mockhttp "mock-response-service/internal/common/http"
	"mock-response-service/internal/common/logger"
	"mock-response-service/internal/keys"
	"mock-response-service/internal/synthetic"
	"mock-response-service/internal/template"
	generateresponse "mock-response-service/internal/workers/mock/generate-response"
	"mock-response-service/pkg/registry"

	"github.com/spf13/cobra"
)

var catalogDir string

func main() {
	rootCmd := &cobra.Command{
		Use:   "catalog-tool",
		Short: "Inspect, validate and render the mock service catalog",
	}
	rootCmd.PersistentFlags().StringVarP(&catalogDir, "dir", "d", "configs/mocks", "catalog directory")

	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(functionsCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(scaffoldCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load every catalog file and check ids, flavors and defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := registry.LoadCatalog(catalogDir)
			if err != nil {
				return fmt.Errorf("catalog invalid: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog OK: %d services in %s\n", len(cat.Services), catalogDir)
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List services and their response flavors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := registry.LoadCatalog(catalogDir)
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), cat)
			return nil
		},
	}
}

func printCatalog(w io.Writer, cat *registry.Catalog) {
	for _, id := range cat.ServiceIDs() {
		svc := cat.Services[id]
		fmt.Fprintf(w, "%s (%s)\n", id, svc.Name)
		for _, f := range svc.Responses {
			marker := " "
			if f.ID == svc.DefaultResponse {
				marker = "*"
			}
			var extras []string
			if f.Template != nil {
				extras = append(extras, "template")
			}
			if f.Token != nil {
				extras = append(extras, "token")
			}
			suffix := ""
			if len(extras) > 0 {
				suffix = " [" + strings.Join(extras, ",") + "]"
			}
			fmt.Fprintf(w, "  %s %-32s %s%s\n", marker, f.ID, f.Name, suffix)
		}
	}
}

func renderCmd() *cobra.Command {
	var (
		service string
		flavor  string
		token   bool
		seed    int64
		vars    map[string]string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a flavor template with fresh correlation keys and synthetic data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := registry.LoadCatalog(catalogDir)
			if err != nil {
				return err
			}
			f, ok := cat.Flavor(service, flavor)
			if !ok {
				return fmt.Errorf("unknown flavor %s/%s", service, flavor)
			}
			tmpl := f.Template
			if token {
				tmpl = f.Token
			}
			if tmpl == nil {
				return fmt.Errorf("flavor %s/%s has no template to render", service, flavor)
			}

			gen, err := keys.NewGenerator(keys.DefaultSchema())
			if err != nil {
				return err
			}
			ctx := generateresponse.RenderContext(gen.Derive(nil), service, flavor, "")
			for k, v := range vars {
				ctx[k] = v
			}

			renderer := template.NewRenderer(synthetic.NewDefaultRegistry(seed), logger.NewStructured("warn", "console", "stderr"))
			out, err := json.MarshalIndent(renderer.Render(tmpl, ctx), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&service, "service", "s", "", "service id")
	cmd.Flags().StringVarP(&flavor, "flavor", "f", "", "flavor id")
	cmd.Flags().BoolVar(&token, "token", false, "render the token template instead")
	cmd.Flags().Int64Var(&seed, "seed", 0, "synthetic data seed (0 = random)")
	cmd.Flags().StringToStringVar(&vars, "var", nil, "extra template variables (k=v)")
	_ = cmd.MarkFlagRequired("service")
	_ = cmd.MarkFlagRequired("flavor")
	return cmd
}

func functionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the synthetic data functions templates may call",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := synthetic.NewDefaultRegistry(1).Paths()
			sort.Strings(paths)
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "{{ %s() }}\n", p)
			}
			return nil
		},
	}
}

func generateCmd() *cobra.Command {
	var (
		serverURL   string
		selections  map[string]string
		clientID    string
		redirectURI string
		timeout     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Record a response against a running mock server and optionally walk the authorize flow",
		Example: "  catalog-tool generate --select okta=auth_success\n" +
			"  catalog-tool generate --select okta=auth_error_user_not_assigned --redirect-uri https://app.local/cb",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(selections) == 0 {
				return fmt.Errorf("at least one --select service=flavor is required")
			}
			// flavors are validated against the local catalog before anything is recorded
			cat, err := registry.LoadCatalog(catalogDir)
			if err != nil {
				return err
			}
			for service, flavor := range selections {
				if _, ok := cat.Flavor(service, flavor); !ok {
					return fmt.Errorf("unknown flavor %s/%s", service, flavor)
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			client := mockhttp.NewClient(serverURL, timeout)

			var generated map[string]interface{}
			if err := client.PostJSON(ctx, "/api/generate-response", selections, &generated); err != nil {
				return fmt.Errorf("generate: %w", err)
			}
			out, err := json.MarshalIndent(generated, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if redirectURI == "" {
				return nil
			}
			uniqueKeys, _ := generated["uniqueKeys"].(map[string]interface{})
			userID, _ := uniqueKeys["userId"].(string)
			q := url.Values{
				"client_id":     {clientID},
				"response_type": {"code"},
				"redirect_uri":  {redirectURI},
				"state":         {"catalog-tool"},
				"userId":        {userID},
			}
			loc, err := client.Location(ctx, "/oauth2/v1/authorize?"+q.Encode())
			if err != nil {
				return fmt.Errorf("authorize: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "redirect: %s\n", loc)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "url", "http://localhost:3000", "mock server base URL")
	cmd.Flags().StringToStringVar(&selections, "select", nil, "service=flavor selections")
	cmd.Flags().StringVar(&clientID, "client-id", "catalog-tool", "client_id for the authorize step")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "run authorize for the new userId against this redirect_uri")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	return cmd
}
