package core

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	domainpkg "ispconfig-manager/internal/domain"
	"ispconfig-manager/internal/provider"
)

var (
	// 至少两级的域名，标签由字母数字和连字符组成
	domainRe = regexp.MustCompile(`^(?i:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?)(?:\.(?i:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?))+$`)

	// 面板用户名，只排除空白字符；已有用户沿用面板上的命名
	usernameRe = regexp.MustCompile(`^\S{1,64}$`)
)

const dialTimeout = 10 * time.Second

// Validator 账户和证书验证器
type Validator struct {
	dial func(addr string) ([]string, time.Time, error)
}

// NewValidator 创建验证器
func NewValidator() *Validator {
	return &Validator{dial: dialCertificate}
}

// ValidateAccount 开通前检查账户输入，返回所有问题
// 客户资料只做格式检查，复用已有客户时不需要；新建客户的必填项由面板校验。
func (v *Validator) ValidateAccount(acc *provider.Account) error {
	if acc == nil {
		return fmt.Errorf("账户为空")
	}

	var result *multierror.Error

	if !usernameRe.MatchString(acc.Username) {
		result = multierror.Append(result, fmt.Errorf("无效的用户名: %q", acc.Username))
	}
	if acc.Password == "" {
		result = multierror.Append(result, fmt.Errorf("密码不能为空"))
	}
	if err := validDomain("域名", acc.Domain); err != nil {
		result = multierror.Append(result, err)
	}
	if net.ParseIP(strings.TrimSpace(acc.IP)) == nil {
		result = multierror.Append(result, fmt.Errorf("无效的IP地址: %q", acc.IP))
	}
	if err := validDomain("ns1", acc.NS1); err != nil {
		result = multierror.Append(result, err)
	}
	if err := validDomain("ns2", acc.NS2); err != nil {
		result = multierror.Append(result, err)
	}
	if acc.Client == nil {
		result = multierror.Append(result, fmt.Errorf("缺少客户资料"))
	} else if email := strings.TrimSpace(acc.Client.Email); email != "" && !strings.Contains(email, "@") {
		result = multierror.Append(result, fmt.Errorf("无效的客户邮箱: %q", acc.Client.Email))
	}
	if acc.Package == nil {
		result = multierror.Append(result, fmt.Errorf("缺少套餐"))
	}

	return result.ErrorOrNil()
}

func validDomain(field, value string) error {
	d := domainpkg.Normalize(value)
	if d == "" {
		return fmt.Errorf("%s不能为空", field)
	}
	if len(d) > 253 || !domainRe.MatchString(d) {
		return fmt.Errorf("无效的%s: %q", field, value)
	}
	return nil
}

// dialCertificate 连接 addr 读取线上证书，返回证书覆盖的域名和过期时间
func dialCertificate(addr string) ([]string, time.Time, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("连接失败: %w", err)
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil, time.Time{}, fmt.Errorf("未找到证书")
	}

	cert := certs[0]
	var domains []string
	if cert.Subject.CommonName != "" {
		domains = append(domains, cert.Subject.CommonName)
	}
	domains = append(domains, cert.DNSNames...)

	return domains, cert.NotAfter, nil
}

// NeedInstall 判断站点是否需要安装证书
// 线上证书无法获取、不覆盖域名或剩余天数不超过 minDays 时需要安装。
func (v *Validator) NeedInstall(domain string, minDays int) (bool, time.Time) {
	certDomains, expiry, err := v.dial(net.JoinHostPort(domain, "443"))
	if err != nil {
		log.Printf("无法获取 %s 的线上证书: %v，将安装证书", domain, err)
		return true, time.Time{}
	}

	if !domainpkg.CertCovers("", certDomains, domain) {
		log.Printf("线上证书域名不匹配 (证书域名: %v, 目标域名: %s)，将安装证书", certDomains, domain)
		return true, expiry
	}

	days := int(time.Until(expiry).Hours() / 24)
	log.Printf("域名 %s 的线上证书将在 %d 天后过期 (%s)", domain, days, expiry.Format("2006-01-02"))

	return days <= minDays, expiry
}
