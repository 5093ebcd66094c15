package ispconfig

import (
	"bytes"
	"encoding/json"
)

// Payload 保持键顺序的请求参数
// 面板按参数名或参数位置绑定远程方法参数，两种方式都要求顺序稳定，
// 所以顶层参数不能用 map。
type Payload struct {
	keys   []string
	values map[string]any
}

// NewPayload 创建空参数
func NewPayload() *Payload {
	return &Payload{values: make(map[string]any)}
}

// Set 设置参数，已存在的键保持原位置
func (p *Payload) Set(key string, value any) *Payload {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
	return p
}

// Get 获取参数
func (p *Payload) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Keys 返回按设置顺序排列的键
func (p *Payload) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// withSession 返回以 session_id 开头的新参数
func (p *Payload) withSession(token string) *Payload {
	out := NewPayload().Set(keySessionID, token)
	for _, k := range p.keys {
		if k == keySessionID {
			continue
		}
		out.Set(k, p.values[k])
	}
	return out
}

// MarshalJSON 按键顺序序列化
func (p *Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
