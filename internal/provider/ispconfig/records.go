package ispconfig

import (
	"strconv"
	"strings"
	"time"

	"ispconfig-manager/internal/provider"
)

// 套餐自定义字段
const (
	customVatID         = "vat_id"
	customPHPOptions    = "web_php_options"
	customShellUser     = "limit_shell_user"
	customSSHChroot     = "ssh_chroot"
	customLanguage      = "language"
	customResellerLimit = "limit_client"
)

const (
	defaultPHPOptions = "no,fast-cgi,cgi,mod,suphp,php-fpm"
	defaultSSHChroot  = "no,jailkit,ssh-chroot"
	defaultLanguage   = "en"
	defaultShellUser  = 1

	// serverID 单服务器部署的服务器ID
	serverID = 1

	stampLayout = "2006-01-02 15:04:05"
)

// DNS 区域和记录参数
const (
	zoneRefresh = "7200"
	zoneRetry   = "540"
	zoneExpire  = "604800"
	zoneMinimum = "86400"
	recordTTL   = "3600"
	nsTTL       = "86400"
)

func customString(pkg *provider.Package, key, def string) string {
	if v, ok := pkg.CustomValue(key); ok {
		return v
	}
	return def
}

func customInt(pkg *provider.Package, key string, def int) int {
	v, ok := pkg.CustomValue(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// clientParams 构建 client_add 参数
func clientParams(acc *provider.Account) map[string]any {
	c := acc.Client
	pkg := acc.Package

	limitClient := 0
	if acc.Reseller {
		limitClient = customInt(pkg, customResellerLimit, -1)
	}

	return map[string]any{
		"server_id":    serverID,
		"company_name": c.Company,
		"contact_name": c.FullName(),
		"vat_id":       customString(pkg, customVatID, ""),
		"street":       c.Street,
		"zip":          c.Zip,
		"city":         c.City,
		"state":        c.State,
		"country":      c.Country,
		"telephone":    c.Telephone,
		"mobile":       c.Telephone,
		"fax":          c.Telephone,
		"email":        c.Email,
		"internet":     c.Www,
		"icq":          "",
		"notes":        acc.Note,

		// 邮件
		"default_mailserver":      serverID,
		"limit_maildomain":        -1,
		"limit_mailbox":           -1,
		"limit_mailalias":         -1,
		"limit_mailaliasdomain":   -1,
		"limit_mailforward":       -1,
		"limit_mailcatchall":      -1,
		"limit_mailrouting":       0,
		"limit_mailfilter":        -1,
		"limit_fetchmail":         -1,
		"limit_mailquota":         -1,
		"limit_spamfilter_wblist": 0,
		"limit_spamfilter_user":   0,
		"limit_spamfilter_policy": 1,
		"limit_mail_wblist":       0,

		// 网站
		"default_webserver":     serverID,
		"limit_web_ip":          "",
		"limit_web_domain":      -1,
		"limit_web_quota":       -1,
		"web_php_options":       customString(pkg, customPHPOptions, defaultPHPOptions),
		"limit_web_subdomain":   -1,
		"limit_web_aliasdomain": -1,
		"limit_ftp_user":        -1,
		"limit_shell_user":      customInt(pkg, customShellUser, defaultShellUser),
		"ssh_chroot":            customString(pkg, customSSHChroot, defaultSSHChroot),
		"limit_webdav_user":     0,

		// DNS 和数据库
		"default_dnsserver":    serverID,
		"limit_dns_zone":       -1,
		"limit_dns_slave_zone": -1,
		"limit_dns_record":     -1,
		"default_dbserver":     serverID,
		"limit_database":       -1,

		// 计划任务和流量
		"limit_cron":           0,
		"limit_cron_type":      "url",
		"limit_cron_frequency": 5,
		"limit_traffic_quota":  -1,

		// 客户
		"limit_client":        limitClient,
		"parent_client_id":    0,
		"username":            acc.Username,
		"password":            acc.Password,
		"language":            customString(pkg, customLanguage, defaultLanguage),
		"usertheme":           "default",
		"template_master":     0,
		"template_additional": "",
		"created_at":          0,
	}
}

// siteParams 构建 sites_web_domain_add 参数
func siteParams(acc *provider.Account, clientID int) map[string]any {
	return map[string]any{
		"server_id":               serverID,
		"ip_address":              "*",
		"domain":                  acc.Domain,
		"type":                    "vhost",
		"parent_domain_id":        0,
		"vhost_type":              "name",
		"hd_quota":                acc.Package.Quota,
		"traffic_quota":           acc.Package.Bandwidth,
		"traffic_quota_lock":      "y",
		"client_group_id":         clientID + 1,
		"allow_override":          "All",
		"errordocs":               1,
		"is_subdomainwww":         1,
		"subdomain":               "none",
		"cgi":                     "y",
		"ssi":                     "n",
		"suexec":                  "y",
		"php":                     "php-fpm",
		"active":                  "y",
		"ssl":                     "y",
		"pm":                      "ondemand",
		"pm_process_idle_timeout": 30,
		"pm_max_requests":         30,
		"http_port":               "80",
		"https_port":              "443",
	}
}

// zoneParams 构建 dns_zone_add 参数
func zoneParams(acc *provider.Account, clientID int) map[string]any {
	return map[string]any{
		"server_id": serverID,
		"origin":    fqdn(acc.Domain),
		"ns":        fqdn(acc.NS1),
		"zone":      clientID,
		"name":      acc.Domain,
		"type":      "A",
		"data":      acc.IP,
		"mbox":      "mail." + fqdn(acc.Domain),
		"refresh":   zoneRefresh,
		"retry":     zoneRetry,
		"expire":    zoneExpire,
		"minimum":   zoneMinimum,
		"ttl":       recordTTL,
		"active":    "y",
	}
}

// aRecordNames 每个区域创建的A记录：主域名、www、mail
func aRecordNames(domain string) []string {
	return []string{fqdn(domain), "www", "mail"}
}

// aRecordParams 构建 dns_a_add 参数
func aRecordParams(zoneID int, name, ip string, now time.Time) map[string]any {
	return map[string]any{
		"server_id": serverID,
		"zone":      zoneID,
		"name":      name,
		"type":      "A",
		"data":      ip,
		"aux":       "0",
		"ttl":       recordTTL,
		"active":    "y",
		"stamp":     now.Format(stampLayout),
		"serial":    "1",
	}
}

// nsRecordParams 构建 dns_ns_add 参数
func nsRecordParams(zoneID int, domain, nameserver string, now time.Time) map[string]any {
	return map[string]any{
		"server_id": serverID,
		"zone":      zoneID,
		"name":      fqdn(domain),
		"type":      "NS",
		"data":      fqdn(nameserver),
		"aux":       "0",
		"ttl":       nsTTL,
		"active":    "y",
		"stamp":     now.Format(stampLayout),
		"serial":    "1",
	}
}

// mailDomainParams 构建 mail_domain_add 参数
func mailDomainParams(acc *provider.Account) map[string]any {
	return map[string]any{
		"server_id": serverID,
		"domain":    acc.Domain,
		"active":    "y",
	}
}

// certificateParams 构建 sites_web_domain_update 的证书参数
func certificateParams(cert *provider.Certificate) map[string]any {
	return map[string]any{
		"ssl":        "y",
		"ssl_cert":   cert.Certificate,
		"ssl_key":    cert.PrivateKey,
		"ssl_bundle": cert.Chain,
		"ssl_action": "save",
	}
}

// fqdn 返回以点结尾的域名
func fqdn(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}
