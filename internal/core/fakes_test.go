package core

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"ispconfig-manager/internal/config"
	"ispconfig-manager/internal/domain"
	"ispconfig-manager/internal/provider"
)

// panelServer 按动作返回固定响应的假面板
type panelServer struct {
	mu        sync.Mutex
	actions   []string
	responses map[string]string
	server    *httptest.Server
}

func newPanelServer(t *testing.T, responses map[string]string) *panelServer {
	t.Helper()
	s := &panelServer{responses: map[string]string{
		"login":  `"tok"`,
		"logout": `true`,
	}}
	for k, v := range responses {
		s.responses[k] = v
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		s.mu.Lock()
		action := r.URL.RawQuery
		s.actions = append(s.actions, action)
		resp, ok := s.responses[action]
		s.mu.Unlock()
		if !ok {
			resp = "false"
		}
		if resp == "HTTP500" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"code":"ok","message":"","response":`+resp+`}`)
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *panelServer) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.actions...)
}

func (s *panelServer) count(action string) int {
	n := 0
	for _, a := range s.calls() {
		if a == action {
			n++
		}
	}
	return n
}

func (s *panelServer) config(t *testing.T, outputDir string) *config.Config {
	t.Helper()
	u, err := url.Parse(s.server.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(u.Port())
	return &config.Config{
		Panel: config.PanelConfig{
			Type:     config.PanelISPConfig3,
			Host:     u.Hostname(),
			Port:     port,
			Username: "remote",
			Password: "secret",
		},
		OutputDir: outputDir,
	}
}

// fakeDNS 内存中的DNS提供商
// 与云平台一致：记录按主域名保存，RR 相对于主域名。
type fakeDNS struct {
	mu        sync.Mutex
	records   map[string]*provider.DNSRecord
	nextID    int
	failOn    string // 对该主机记录返回错误
	deleteErr error
}

func newFakeDNS() *fakeDNS {
	return &fakeDNS{records: make(map[string]*provider.DNSRecord)}
}

func (f *fakeDNS) Name() string { return "fake" }

func (f *fakeDNS) EnsureRecord(ctx context.Context, zone string, record *provider.DNSRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.RR == f.failOn {
		return errors.New("quota exceeded")
	}
	mainDomain := domain.ExtractMainDomain(zone)
	rr := domain.RelativeName(domain.AbsoluteName(record.RR, zone), mainDomain)
	for id, r := range f.records {
		if r.Domain == mainDomain && r.RR == rr && r.Type == record.Type {
			r.Value = record.Value
			r.TTL = record.TTL
			record.RecordID = id
			return nil
		}
	}
	f.nextID++
	id := "r" + strconv.Itoa(f.nextID)
	cp := *record
	cp.RecordID = id
	cp.Domain = mainDomain
	cp.RR = rr
	f.records[id] = &cp
	record.RecordID = id
	return nil
}

func (f *fakeDNS) DeleteRecord(ctx context.Context, zone, recordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.records, recordID)
	return nil
}

func (f *fakeDNS) ListRecords(ctx context.Context, zone string) ([]*provider.DNSRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mainDomain := domain.ExtractMainDomain(zone)
	var out []*provider.DNSRecord
	for _, r := range f.records {
		if r.Domain != mainDomain {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

// names 返回保存的 "RR TYPE" 列表
func (f *fakeDNS) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.records {
		out = append(out, r.RR+" "+r.Type)
	}
	return out
}

func (f *fakeDNS) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// fakeCerts 固定返回一张证书的证书来源
type fakeCerts struct {
	info *provider.CertificateInfo
	cert *provider.Certificate
}

func (f *fakeCerts) Name() string { return "fakecert" }

func (f *fakeCerts) FindValidCertificate(ctx context.Context, domain string, minDays int) (*provider.CertificateInfo, error) {
	return f.info, nil
}

func (f *fakeCerts) GetCertificateDetail(ctx context.Context, certID string) (*provider.Certificate, error) {
	return f.cert, nil
}

func accountFile() *config.AccountFile {
	return &config.AccountFile{
		Username: "alice",
		Password: "pw-123",
		Domain:   "example.com",
		IP:       "203.0.113.5",
		NS1:      "ns1.example.com",
		NS2:      "ns2.example.com",
		Client: config.ClientFile{
			FirstName: "Alice",
			LastName:  "Smith",
			Email:     "alice@example.com",
		},
		Package: config.PackageFile{Name: "basic", Quota: 1024, Bandwidth: 10240},
	}
}

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
