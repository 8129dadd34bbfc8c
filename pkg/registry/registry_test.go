package registry

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oktaYAML = `
name: Okta
desc: Identity provider
defaultResponse: auth_success
responses:
  - id: auth_success
    name: Success
    desc: User signs in
    template:
      sub: "{{ userId }}"
      email: "{{ faker.internet.email() }}"
  - id: auth_error_user_not_assigned
    name: Not assigned
    desc: User not assigned to app
  - id: auth_error_generic
    name: Generic failure
    desc: Authentication fails
`

const multiYAML = `
services:
  billing:
    name: Billing
    desc: Billing API
    responses:
      - id: paid
        name: Paid
        desc: Invoice paid
  crm:
    name: CRM
    desc: CRM API
    responses:
      - id: contact_found
        name: Found
        desc: Contact exists
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "okta.yaml", oktaYAML)
	writeFile(t, dir, "others.yml", multiYAML)
	writeFile(t, dir, "README.md", "ignored")
	writeFile(t, dir, "empty.yaml", "")

	cat, err := LoadCatalog(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"billing", "crm", "okta"}, cat.ServiceIDs())
	assert.Equal(t, "auth_success", cat.Services["okta"].DefaultResponse)

	flavor, ok := cat.Flavor("okta", "auth_success")
	require.True(t, ok)
	tmpl, ok := flavor.Template.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "{{ userId }}", tmpl["sub"])

	_, ok = cat.Flavor("okta", "missing")
	assert.False(t, ok)
	_, ok = cat.Flavor("nope", "auth_success")
	assert.False(t, ok)
}

func TestCatalog_Validate(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		wantErr string
	}{
		{
			name: "valid",
			catalog: Catalog{Services: map[string]Service{
				"okta": {Name: "Okta", DefaultResponse: "a", Responses: []Flavor{{ID: "a"}}},
			}},
		},
		{
			name: "no responses",
			catalog: Catalog{Services: map[string]Service{
				"okta": {Name: "Okta"},
			}},
			wantErr: "no responses",
		},
		{
			name: "duplicate flavor",
			catalog: Catalog{Services: map[string]Service{
				"okta": {Responses: []Flavor{{ID: "a"}, {ID: "a"}}},
			}},
			wantErr: "duplicate flavor",
		},
		{
			name: "unknown default",
			catalog: Catalog{Services: map[string]Service{
				"okta": {DefaultResponse: "b", Responses: []Flavor{{ID: "a"}}},
			}},
			wantErr: "defaultResponse",
		},
		{
			name: "bad service id",
			catalog: Catalog{Services: map[string]Service{
				"Okta Service": {Responses: []Flavor{{ID: "a"}}},
			}},
			wantErr: "invalid id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadCatalog_Errors(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "name: [unclosed")
	_, err = LoadCatalog(dir)
	assert.Error(t, err)

	dir = t.TempDir()
	writeFile(t, dir, "okta.yaml", oktaYAML)
	writeFile(t, dir, "more.yaml", "services:\n  okta:\n    responses:\n      - id: x\n")
	_, err = LoadCatalog(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined twice")
}

func TestRegistry_ReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "okta.yaml", oktaYAML)

	r, err := NewRegistry(dir)
	require.NoError(t, err)
	require.Contains(t, r.Catalog().Services, "okta")

	writeFile(t, dir, "okta.yaml", "responses: []\n")
	assert.Error(t, r.Reload())
	assert.Len(t, r.Catalog().Services["okta"].Responses, 3)

	writeFile(t, dir, "okta.yaml", "name: Okta\nresponses:\n  - id: only\n")
	require.NoError(t, r.Reload())
	assert.Len(t, r.Catalog().Services["okta"].Responses, 1)
}

func TestStaticRegistry(t *testing.T) {
	r := NewStaticRegistry(nil)
	assert.NotNil(t, r.Catalog())
	assert.NoError(t, r.Reload())
	assert.Empty(t, r.Catalog().Services)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "okta.yaml", oktaYAML)

	r, err := NewRegistry(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, r, 20*time.Millisecond, func(err error) {
			if err == nil {
				reloads.Add(1)
			}
		})
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "billing.yaml", "name: Billing\nresponses:\n  - id: paid\n")

	assert.Eventually(t, func() bool {
		_, ok := r.Catalog().Services["billing"]
		return ok
	}, 3*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, reloads.Load(), int32(1))

	cancel()
	assert.NoError(t, <-done)
}
