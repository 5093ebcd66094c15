package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ispconfig-manager/internal/config"
	"ispconfig-manager/internal/provider"
	"ispconfig-manager/internal/storage"
)

var createResponses = map[string]string{
	"client_add":           `17`,
	"sites_web_domain_add": `5`,
	"dns_zone_add":         `9`,
	"dns_a_add":            `1`,
	"dns_ns_add":           `2`,
	"mail_domain_add":      `3`,
}

const clientJSON = `{"client_id":17,"userid":18,"groups":"18"}`

func newTestManager(t *testing.T, cfg *config.Config) *Manager {
	t.Helper()
	m, err := NewManager(cfg)
	require.NoError(t, err)
	m.now = func() time.Time { return fixedNow }
	return m
}

func TestManagerCreateAccount(t *testing.T) {
	panel := newPanelServer(t, createResponses)
	dir := t.TempDir()
	cfg := panel.config(t, dir)
	cfg.DNSMirror = &config.DNSMirrorConfig{Provider: "fake", TTL: 600}

	m := newTestManager(t, cfg)
	dns := newFakeDNS()
	m.factory.dnsProviders["fake"] = dns

	acc, err := m.CreateAccount(context.Background(), accountFile())
	require.NoError(t, err)
	assert.Equal(t, 17, acc.Client.ID)

	calls := panel.calls()
	assert.Equal(t, "login", calls[0])
	assert.Equal(t, "logout", calls[len(calls)-1])
	assert.Equal(t, 1, panel.count("logout"))
	assert.Equal(t, 3, panel.count("dns_a_add"))

	assert.Equal(t, 3, dns.len())

	report, err := m.storage.LoadReport("example.com")
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 17, report.ClientID)
	assert.Equal(t, storage.StatusActive, report.Status)
	assert.Contains(t, report.LoginURL, cfg.Panel.Host)
	require.NotNil(t, report.Mirror)
	assert.Equal(t, "fake", report.Mirror.Provider)
	assert.Len(t, report.Mirror.Records, 3)
}

func TestManagerCreateAccountInvalidInput(t *testing.T) {
	panel := newPanelServer(t, createResponses)
	m := newTestManager(t, panel.config(t, t.TempDir()))

	file := accountFile()
	file.IP = "not-an-ip"
	file.Domain = "bad_domain"

	_, err := m.CreateAccount(context.Background(), file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IP")
	assert.Contains(t, err.Error(), "域名")
	assert.Empty(t, panel.calls())
}

func TestManagerCreateAccountPanelFailure(t *testing.T) {
	responses := map[string]string{}
	for k, v := range createResponses {
		responses[k] = v
	}
	responses["dns_zone_add"] = "HTTP500"
	panel := newPanelServer(t, responses)
	dir := t.TempDir()
	m := newTestManager(t, panel.config(t, dir))

	_, err := m.CreateAccount(context.Background(), accountFile())
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrTransport))
	assert.Equal(t, "dns_zone_add", provider.FailedAction(err))
	assert.Equal(t, 1, panel.count("logout"))
	assert.Equal(t, 0, panel.count("dns_a_add"))

	_, statErr := os.Stat(filepath.Join(dir, "example.com", "account.yaml"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestManagerCreateAccountLoginFailureReportsLoginStep(t *testing.T) {
	panel := newPanelServer(t, map[string]string{"login": `false`})

	events := make(chan map[string]any, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		events <- body
	}))
	defer hook.Close()

	cfg := panel.config(t, t.TempDir())
	cfg.Webhook = &config.WebhookConfig{Enabled: true, URL: hook.URL, Retries: 1}
	m := newTestManager(t, cfg)

	_, err := m.CreateAccount(context.Background(), accountFile())
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrAuthentication))
	assert.Equal(t, "login", provider.FailedAction(err))
	// 登录失败时没有会话可注销
	assert.Equal(t, []string{"login"}, panel.calls())

	body := <-events
	assert.Equal(t, "provision_failed", body["event"])
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "login", data["step"])
}

func TestManagerCreateAccountMirrorFailureIsNotFatal(t *testing.T) {
	panel := newPanelServer(t, createResponses)
	cfg := panel.config(t, t.TempDir())
	cfg.DNSMirror = &config.DNSMirrorConfig{Provider: "fake"}

	m := newTestManager(t, cfg)
	dns := newFakeDNS()
	dns.failOn = "www"
	m.factory.dnsProviders["fake"] = dns

	_, err := m.CreateAccount(context.Background(), accountFile())
	require.NoError(t, err)

	report, err := m.storage.LoadReport("example.com")
	require.NoError(t, err)
	require.NotNil(t, report.Mirror)
	assert.Len(t, report.Mirror.Records, 1)
}

func TestManagerCreateAccountPostCommand(t *testing.T) {
	panel := newPanelServer(t, createResponses)
	dir := t.TempDir()
	cfg := panel.config(t, dir)
	out := filepath.Join(dir, "post.txt")
	cfg.PostCommand = "echo ${USERNAME} ${CLIENT_ID} ${DOMAIN} > " + out

	m := newTestManager(t, cfg)
	_, err := m.CreateAccount(context.Background(), accountFile())
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "alice 17 example.com\n", string(data))
}

func TestManagerSuspendUpdatesReport(t *testing.T) {
	responses := map[string]string{
		"client_get_by_username":      clientJSON,
		"client_get_sites_by_user":    `[{"domain_id":"5","domain":"example.com","active":"y"}]`,
		"sites_web_domain_set_status": `true`,
	}
	panel := newPanelServer(t, responses)
	m := newTestManager(t, panel.config(t, t.TempDir()))
	require.NoError(t, m.storage.SaveReport(&storage.AccountReport{
		Username: "alice", Domain: "example.com", Status: storage.StatusActive,
	}))

	acc := accountFile().Account()
	ok, err := m.SuspendAccount(context.Background(), acc)
	require.NoError(t, err)
	assert.True(t, ok)

	report, err := m.storage.LoadReport("example.com")
	require.NoError(t, err)
	assert.Equal(t, storage.StatusSuspended, report.Status)

	ok, err = m.UnsuspendAccount(context.Background(), acc)
	require.NoError(t, err)
	assert.True(t, ok)

	report, err = m.storage.LoadReport("example.com")
	require.NoError(t, err)
	assert.Equal(t, storage.StatusActive, report.Status)

	// 每个操作独立会话
	assert.Equal(t, 2, panel.count("login"))
	assert.Equal(t, 2, panel.count("logout"))
}

func TestManagerCancelAccount(t *testing.T) {
	responses := map[string]string{
		"client_get_by_username":   clientJSON,
		"client_delete_everything": `true`,
	}
	panel := newPanelServer(t, responses)
	cfg := panel.config(t, t.TempDir())
	cfg.DNSMirror = &config.DNSMirrorConfig{Provider: "fake"}

	m := newTestManager(t, cfg)
	dns := newFakeDNS()
	m.factory.dnsProviders["fake"] = dns

	acc := accountFile().Account()
	mirror := NewDNSMirror(dns, 600)
	_, err := mirror.Publish(context.Background(), acc)
	require.NoError(t, err)
	require.NoError(t, dns.EnsureRecord(context.Background(), "example.com", &provider.DNSRecord{RR: "blog", Type: "A", Value: "198.51.100.7"}))
	require.NoError(t, m.storage.SaveReport(&storage.AccountReport{Username: "alice", Domain: "example.com"}))

	ok, err := m.CancelAccount(context.Background(), acc)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 1, dns.len(), "只保留与账户无关的记录")
	report, err := m.storage.LoadReport("example.com")
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestManagerCancelUnknownAccount(t *testing.T) {
	panel := newPanelServer(t, nil)
	m := newTestManager(t, panel.config(t, t.TempDir()))

	ok, err := m.CancelAccount(context.Background(), accountFile().Account())
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, provider.ErrNotFound))
	assert.Equal(t, 0, panel.count("client_delete_everything"))
}

func TestManagerListSites(t *testing.T) {
	responses := map[string]string{
		"client_get_by_username":   clientJSON,
		"client_get_sites_by_user": `[{"domain_id":"5","domain":"example.com","active":"y"}]`,
	}
	panel := newPanelServer(t, responses)
	m := newTestManager(t, panel.config(t, t.TempDir()))

	sites, err := m.ListSites(context.Background(), accountFile().Account())
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, 5, sites[0].ID)
	assert.True(t, sites[0].Active)
}

func TestManagerInstallCertificate(t *testing.T) {
	responses := map[string]string{
		"client_get_by_username":   clientJSON,
		"client_get_sites_by_user": `[{"domain_id":"5","domain":"example.com","active":"y"}]`,
		"sites_web_domain_update":  `1`,
	}
	panel := newPanelServer(t, responses)
	cfg := panel.config(t, t.TempDir())
	cfg.SSL = &config.SSLConfig{CertProvider: "fakecert", MinDays: 7}

	m := newTestManager(t, cfg)
	notAfter := fixedNow.Add(90 * 24 * time.Hour)
	m.factory.certProviders["fakecert"] = &fakeCerts{
		info: &provider.CertificateInfo{CertID: "c-1", Domain: "example.com", NotAfter: notAfter},
		cert: &provider.Certificate{Certificate: "CERT", PrivateKey: "KEY"},
	}
	require.NoError(t, m.storage.SaveReport(&storage.AccountReport{Username: "alice", Domain: "example.com"}))

	ok, err := m.InstallCertificate(context.Background(), accountFile().Account(), true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, panel.count("sites_web_domain_update"))

	report, err := m.storage.LoadReport("example.com")
	require.NoError(t, err)
	require.NotNil(t, report.Certificate)
	assert.Equal(t, "c-1", report.Certificate.CertID)
	assert.Equal(t, "fakecert", report.Certificate.Provider)
}

func TestManagerInstallCertificateSkipsValidLiveCert(t *testing.T) {
	panel := newPanelServer(t, nil)
	cfg := panel.config(t, t.TempDir())
	cfg.SSL = &config.SSLConfig{CertProvider: "fakecert", MinDays: 7}

	m := newTestManager(t, cfg)
	m.validator.dial = func(addr string) ([]string, time.Time, error) {
		return []string{"example.com"}, time.Now().Add(60 * 24 * time.Hour), nil
	}

	ok, err := m.InstallCertificate(context.Background(), accountFile().Account(), false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, panel.calls())
}

func TestManagerInstallCertificateNoneAvailable(t *testing.T) {
	panel := newPanelServer(t, nil)
	cfg := panel.config(t, t.TempDir())
	cfg.SSL = &config.SSLConfig{CertProvider: "fakecert", MinDays: 7}

	m := newTestManager(t, cfg)
	m.factory.certProviders["fakecert"] = &fakeCerts{}

	_, err := m.InstallCertificate(context.Background(), accountFile().Account(), true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCertificate))
	assert.Empty(t, panel.calls())
}

func TestManagerLoginURL(t *testing.T) {
	panel := newPanelServer(t, nil)
	cfg := panel.config(t, t.TempDir())
	m := newTestManager(t, cfg)

	user, reseller, err := m.LoginURL(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, panel.server.URL+"/", user)
	assert.Equal(t, user, reseller)
	assert.Empty(t, panel.calls())
}

func TestManagerTestConnection(t *testing.T) {
	panel := newPanelServer(t, nil)
	m := newTestManager(t, panel.config(t, t.TempDir()))

	require.NoError(t, m.TestConnection(context.Background()))
	assert.Equal(t, []string{"login", "logout"}, panel.calls())

	bad := newPanelServer(t, map[string]string{"login": `false`})
	m = newTestManager(t, bad.config(t, t.TempDir()))
	err := m.TestConnection(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrAuthentication))
}

func TestFactoryUnknownPanel(t *testing.T) {
	f := NewFactory(&config.Config{Panel: config.PanelConfig{Type: "cpanel"}})
	_, err := f.NewPanelProvider()
	assert.Error(t, err)

	_, err = f.GetDNSProvider("aliyun")
	assert.Error(t, err)
	_, err = f.GetCertProvider("nope")
	assert.Error(t, err)
}
