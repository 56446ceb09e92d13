package siteinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	info := Default()
	assert.Equal(t, "owner@example.com", info.Email)
	assert.Equal(t, "+1-555-123-4567", info.Phone)
	assert.Len(t, info.Services, 5)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"email":"hello@acme.test","services":[{"name":"Audit","price_usd":10}]}`), 0o600))

	info, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hello@acme.test", info.Email)
	assert.Equal(t, "+1-555-123-4567", info.Phone)
	require.Len(t, info.Services, 1)
	assert.Equal(t, "Audit", info.Services[0].Name)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApplyOverrides(t *testing.T) {
	info := Default().Apply(Overrides{Email: " book@acme.test ", Phone: ""})
	assert.Equal(t, "book@acme.test", info.Email)
	assert.Equal(t, "+1-555-123-4567", info.Phone)
}

func TestLinks(t *testing.T) {
	info := Default()
	assert.Equal(t, "tel:+15551234567", info.TelURI())
	assert.Equal(t, "mailto:owner@example.com", info.MailtoURI())
}
