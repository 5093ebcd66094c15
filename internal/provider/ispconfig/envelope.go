package ispconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Envelope 面板响应
// response 为空、null、false、0、"0"、""、[] 或 {} 时视为未找到。
type Envelope struct {
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	Response json.RawMessage `json:"response"`
}

// Found 响应是否携带有效结果
func (e *Envelope) Found() bool {
	if e == nil {
		return false
	}
	raw := bytes.TrimSpace(e.Response)
	switch string(raw) {
	case "", "null", "false", `""`, `"0"`, "[]", "{}":
		return false
	}
	if isZeroNumber(raw) {
		return false
	}
	if raw[0] == '[' || raw[0] == '{' {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			switch t := v.(type) {
			case []any:
				return len(t) > 0
			case map[string]any:
				return len(t) > 0
			}
		}
	}
	return true
}

// Bool 把响应解释为成功标志
func (e *Envelope) Bool() bool {
	return e.Found()
}

// Int 把响应解析为整数ID，响应可以是数字或数字字符串
func (e *Envelope) Int() (int, error) {
	if !e.Found() {
		return 0, fmt.Errorf("响应为空")
	}
	var id flexInt
	if err := json.Unmarshal(e.Response, &id); err != nil {
		return 0, fmt.Errorf("无法解析ID %s: %w", string(e.Response), err)
	}
	return int(id), nil
}

// String 把响应解析为字符串
func (e *Envelope) String() (string, error) {
	if !e.Found() {
		return "", fmt.Errorf("响应为空")
	}
	var s string
	if err := json.Unmarshal(e.Response, &s); err != nil {
		return "", fmt.Errorf("响应不是字符串: %w", err)
	}
	return s, nil
}

// Decode 把响应解析到 v
func (e *Envelope) Decode(v any) error {
	if !e.Found() {
		return fmt.Errorf("响应为空")
	}
	return json.Unmarshal(e.Response, v)
}

func isZeroNumber(raw []byte) bool {
	if len(raw) == 0 || !(raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		return false
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	return err == nil && f == 0
}

// flexInt 兼容数字和数字字符串
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*n = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*n = 0
			return nil
		}
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("无效的整数: %s", raw)
	}
	*n = flexInt(v)
	return nil
}

// flexString 兼容字符串和数字
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(raw)
	return nil
}
