package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/hashicorp/go-multierror"

	"ispconfig-manager/internal/domain"
	"ispconfig-manager/internal/provider"
)

// mirrorRRs 同步到外部DNS的主机记录，与面板区域中的A记录一致
var mirrorRRs = []string{"@", "www", "mail"}

// DNSMirror 外部DNS同步
// 域名解析托管在云平台时，把面板上创建的A记录同步过去。
type DNSMirror struct {
	dns provider.DNSProvider
	ttl int
}

// NewDNSMirror 创建外部DNS同步
func NewDNSMirror(dns provider.DNSProvider, ttl int) *DNSMirror {
	return &DNSMirror{dns: dns, ttl: ttl}
}

// Name 返回DNS提供商名称
func (m *DNSMirror) Name() string {
	return m.dns.Name()
}

// Records 返回账户需要同步的记录
func (m *DNSMirror) Records(acc *provider.Account) []*provider.DNSRecord {
	zone := domain.Normalize(acc.Domain)
	records := make([]*provider.DNSRecord, 0, len(mirrorRRs))
	for _, rr := range mirrorRRs {
		records = append(records, &provider.DNSRecord{
			Domain: zone,
			RR:     rr,
			Type:   recordType(acc.IP),
			Value:  acc.IP,
			TTL:    m.ttl,
		})
	}
	return records
}

// Publish 同步账户记录，遇到第一个错误即停止
func (m *DNSMirror) Publish(ctx context.Context, acc *provider.Account) ([]*provider.DNSRecord, error) {
	records := m.Records(acc)
	zone := domain.Normalize(acc.Domain)

	log.Printf("同步 %d 条DNS记录到 %s: %s", len(records), m.dns.Name(), zone)

	for i, record := range records {
		if err := m.dns.EnsureRecord(ctx, zone, record); err != nil {
			return records[:i], fmt.Errorf("同步记录 %s 失败: %w", domain.AbsoluteName(record.RR, zone), err)
		}
	}
	return records, nil
}

// Withdraw 删除账户同步过的记录
// 只删除完整域名、类型和值都与账户一致的记录，所有错误汇总后返回。
// ListRecords 返回的主机记录相对于主域名，账户本身可能是子域名。
func (m *DNSMirror) Withdraw(ctx context.Context, acc *provider.Account) error {
	zone := domain.Normalize(acc.Domain)
	mainDomain := domain.ExtractMainDomain(zone)

	existing, err := m.dns.ListRecords(ctx, zone)
	if err != nil {
		return fmt.Errorf("获取DNS记录失败: %w", err)
	}

	wanted := make(map[string]bool)
	for _, record := range m.Records(acc) {
		wanted[recordKey(record, zone)] = true
	}

	var result *multierror.Error
	removed := 0
	for _, record := range existing {
		if !wanted[recordKey(record, mainDomain)] {
			continue
		}
		if err := m.dns.DeleteRecord(ctx, zone, record.RecordID); err != nil {
			result = multierror.Append(result, fmt.Errorf("删除记录 %s 失败: %w", record.RecordID, err))
			continue
		}
		removed++
	}

	log.Printf("已从 %s 删除 %d 条DNS记录: %s", m.dns.Name(), removed, zone)
	return result.ErrorOrNil()
}

// recordKey 以完整域名标识记录，rr 相对于 origin
func recordKey(r *provider.DNSRecord, origin string) string {
	return domain.AbsoluteName(r.RR, origin) + "|" + strings.ToUpper(r.Type) + "|" + r.Value
}

// recordType IPv6 地址使用 AAAA 记录
func recordType(ip string) string {
	if strings.Contains(ip, ":") {
		return "AAAA"
	}
	return "A"
}
