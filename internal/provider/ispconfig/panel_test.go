package ispconfig

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"ispconfig-manager/internal/config"
	"ispconfig-manager/internal/provider"
)

// call 假面板收到的一次请求
type call struct {
	Action string
	Raw    []byte
	Body   map[string]any
}

// fakePanel 记录请求并按动作返回预设响应
type fakePanel struct {
	mu        sync.Mutex
	calls     []call
	responses map[string][]string
	server    *httptest.Server
}

func newFakePanel(t *testing.T) *fakePanel {
	t.Helper()
	f := &fakePanel{
		responses: map[string][]string{
			actionLogin:  {`{"code":"ok","message":"","response":"tok-1"}`},
			actionLogout: {`{"code":"ok","message":"","response":true}`},
		},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakePanel) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	action := r.URL.RawQuery
	f.calls = append(f.calls, call{Action: action, Raw: raw, Body: body})
	queue := f.responses[action]
	resp := `{"code":"ok","message":"","response":false}`
	if len(queue) > 0 {
		resp = queue[0]
		if len(queue) > 1 {
			f.responses[action] = queue[1:]
		}
	}
	f.mu.Unlock()

	if resp == "HTTP500" {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, resp)
}

// respond 设置动作的响应，多个响应按顺序返回，最后一个重复使用
func (f *fakePanel) respond(action string, bodies ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[action] = bodies
}

// okResp 包装 response 字段
func okResp(response string) string {
	return `{"code":"ok","message":"","response":` + response + `}`
}

func (f *fakePanel) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Action)
	}
	return out
}

func (f *fakePanel) callsOf(action string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.Action == action {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakePanel) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakePanel) panelConfig(t *testing.T) config.PanelConfig {
	t.Helper()
	u, err := url.Parse(f.server.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(u.Port())
	return config.PanelConfig{
		Type:     config.PanelISPConfig3,
		Host:     u.Hostname(),
		Port:     port,
		Username: "remote",
		Password: "secret",
	}
}

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func (f *fakePanel) provisioner(t *testing.T) *Provisioner {
	t.Helper()
	return New(f.panelConfig(t), WithClock(func() time.Time { return fixedNow }))
}

func testAccount() *provider.Account {
	return &provider.Account{
		Username: "alice",
		Password: "pw-123",
		Domain:   "example.com",
		IP:       "203.0.113.5",
		NS1:      "ns1.example.com",
		NS2:      "ns2.example.com",
		Note:     "order #1",
		Client: &provider.Client{
			Company:   "Example Ltd",
			FirstName: "Alice",
			LastName:  "Smith",
			Email:     "alice@example.com",
			Telephone: "+1 555 0100",
			Country:   "US",
		},
		Package: &provider.Package{
			Name:      "basic",
			Quota:     1024,
			Bandwidth: 10240,
		},
	}
}

// params 取请求体中的 params 对象
func params(t *testing.T, c call) map[string]any {
	t.Helper()
	p, ok := c.Body["params"].(map[string]any)
	if !ok {
		t.Fatalf("%s 请求缺少 params: %s", c.Action, string(c.Raw))
	}
	return p
}
