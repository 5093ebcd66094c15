package provider

import (
	"strings"
	"time"
)

// Account 计费平台提供的托管账户（只读输入）
type Account struct {
	Username string // 面板登录用户名
	Password string // 面板登录密码（明文）
	Domain   string // 主域名
	IP       string // 站点IP
	NS1      string // 第一个域名服务器
	NS2      string // 第二个域名服务器
	Note     string // 备注
	Reseller bool   // 是否为代理商账户

	Client  *Client
	Package *Package
}

// Client 账户所属客户资料
type Client struct {
	ID        int // 面板分配的客户ID，开通后回填
	Company   string
	FirstName string
	LastName  string
	Email     string
	Street    string
	Zip       string
	City      string
	State     string
	Country   string
	Telephone string
	Www       string
}

// FullName 返回客户全名
func (c *Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Package 套餐配置
type Package struct {
	Name         string
	Quota        int               // 磁盘配额 (MB)
	Bandwidth    int               // 流量配额 (MB)
	CustomValues map[string]string // 套餐自定义字段
}

// CustomValue 获取套餐自定义字段，空值视为未设置
func (p *Package) CustomValue(key string) (string, bool) {
	if p == nil || p.CustomValues == nil {
		return "", false
	}
	v, ok := p.CustomValues[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Site 面板上的网站
type Site struct {
	ID     int    // domain_id
	Domain string // 网站域名
	Active bool   // 是否启用
}

// DNSRecord DNS记录
type DNSRecord struct {
	RecordID string // 记录ID
	Domain   string // 主域名
	RR       string // 主机记录 (子域名，@ 表示主域名)
	Type     string // 记录类型
	Value    string // 记录值
	TTL      int    // TTL
}

// Certificate 证书内容
type Certificate struct {
	Certificate string // 证书内容 (PEM格式)
	PrivateKey  string // 私钥 (PEM格式)
	Chain       string // 证书链 (可选)
}

// CertificateInfo 证书信息
type CertificateInfo struct {
	CertID   string    // 证书ID
	Domain   string    // 主域名
	Sans     []string  // 备用域名列表
	NotAfter time.Time // 过期时间
}
