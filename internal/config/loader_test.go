package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
panel:
  host: panel.example.com
  port: 8080
  secure: true
  username: remote
  password: secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, PanelISPConfig3, cfg.Panel.Type)
	assert.Equal(t, "./accounts", cfg.OutputDir)
	assert.Equal(t, 8080, cfg.Panel.Port)
	assert.True(t, cfg.Panel.Secure)
	assert.False(t, cfg.Panel.InsecureSkipVerify)
	assert.Nil(t, cfg.DNSMirror)
}

func TestLoadMirrorAndSSLDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
panel:
  host: panel.example.com
  username: remote
  password: secret
providers:
  aliyun:
    access_key_id: id
    access_key_secret: key
dns_mirror:
  provider: aliyun
ssl:
  cert_provider: aliyun
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.DNSMirror)
	assert.Equal(t, 600, cfg.DNSMirror.TTL)
	require.NotNil(t, cfg.SSL)
	assert.Equal(t, 7, cfg.SSL.MinDays)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing host",
			content: "panel:\n  username: a\n  password: b\n",
			want:    "panel.host",
		},
		{
			name:    "missing credentials",
			content: "panel:\n  host: h\n  username: a\n",
			want:    "凭证不完整",
		},
		{
			name:    "bad type",
			content: "panel:\n  type: plesk\n  host: h\n  username: a\n  password: b\n",
			want:    "不支持的面板类型",
		},
		{
			name:    "bad port",
			content: "panel:\n  host: h\n  port: 70000\n  username: a\n  password: b\n",
			want:    "panel.port",
		},
		{
			name:    "mirror without credentials",
			content: "panel:\n  host: h\n  username: a\n  password: b\ndns_mirror:\n  provider: tencent\n",
			want:    "tencent 未配置凭证",
		},
		{
			name:    "unknown cert provider",
			content: "panel:\n  host: h\n  username: a\n  password: b\nssl:\n  cert_provider: godaddy\n",
			want:    "不支持的证书提供商",
		},
		{
			name:    "webhook without url",
			content: "panel:\n  host: h\n  username: a\n  password: b\nwebhook:\n  enabled: true\n",
			want:    "webhook",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadAccount(t *testing.T) {
	path := writeFile(t, "account.yaml", `
username: jdoe
password: s3cret
domain: example.com
ip: 203.0.113.5
ns1: ns1.example.com
ns2: ns2.example.com
reseller: true
client:
  first_name: Jane
  last_name: Doe
  email: jane@example.com
package:
  name: basic
  quota: 1024
  bandwidth: 10240
  custom:
    language: de
`)

	file, err := LoadAccount(path)
	require.NoError(t, err)

	acc := file.Account()
	assert.Equal(t, "jdoe", acc.Username)
	assert.Equal(t, "example.com", acc.Domain)
	assert.True(t, acc.Reseller)
	assert.Equal(t, "Jane Doe", acc.Client.FullName())
	assert.Equal(t, 1024, acc.Package.Quota)

	lang, ok := acc.Package.CustomValue("language")
	assert.True(t, ok)
	assert.Equal(t, "de", lang)
}

func TestLoadAccountRequiresDomain(t *testing.T) {
	_, err := LoadAccount(writeFile(t, "account.yaml", "username: jdoe\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain")
}
