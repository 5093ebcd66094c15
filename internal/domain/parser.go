package domain

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Normalize 转小写并去掉首尾空白和末尾的点
func Normalize(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}

// ExtractMainDomain 从完整域名提取可注册的主域名（按公共后缀列表）
// 例如: www.example.com -> example.com, shop.example.co.uk -> example.co.uk
// 无法识别时原样返回。
func ExtractMainDomain(domain string) string {
	domain = Normalize(domain)
	main, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		return domain
	}
	return main
}

// RelativeName 返回相对于区域的主机记录，区域本身返回 @
// 例如: www.example.com 在 example.com 中为 www
func RelativeName(name, zone string) string {
	name = Normalize(name)
	zone = Normalize(zone)
	if name == "" || name == "@" || name == zone {
		return "@"
	}
	if strings.HasSuffix(name, "."+zone) {
		return strings.TrimSuffix(name, "."+zone)
	}
	return name
}

// AbsoluteName 返回主机记录对应的完整域名（不带末尾的点）
func AbsoluteName(rr, zone string) string {
	rr = Normalize(rr)
	zone = Normalize(zone)
	if rr == "" || rr == "@" {
		return zone
	}
	if rr == zone || strings.HasSuffix(rr, "."+zone) {
		return rr
	}
	return rr + "." + zone
}

// IsSubDomain 检查是否为子域名
func IsSubDomain(domain, mainDomain string) bool {
	domain = Normalize(domain)
	mainDomain = Normalize(mainDomain)
	return strings.HasSuffix(domain, "."+mainDomain) || domain == mainDomain
}

// MatchDomain 检查证书域名是否覆盖目标域名（支持通配符）
// 通配符只匹配一级: *.example.com 覆盖 www.example.com，不覆盖 example.com 和 a.b.example.com
func MatchDomain(certDomain, targetDomain string) bool {
	certDomain = Normalize(certDomain)
	targetDomain = Normalize(targetDomain)

	if certDomain == targetDomain {
		return true
	}

	if strings.HasPrefix(certDomain, "*.") {
		parent := strings.TrimPrefix(certDomain, "*.")
		i := strings.Index(targetDomain, ".")
		return i > 0 && targetDomain[i+1:] == parent
	}

	return false
}

// CertCovers 检查证书的通用名或备用域名是否覆盖目标域名
func CertCovers(commonName string, sans []string, target string) bool {
	if MatchDomain(commonName, target) {
		return true
	}
	for _, san := range sans {
		if MatchDomain(strings.TrimSpace(san), target) {
			return true
		}
	}
	return false
}
