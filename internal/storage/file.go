package storage

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const reportFile = "account.yaml"

// 账户状态
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// AccountReport 开通报告
// 只记录开通结果，不参与开通决策。
type AccountReport struct {
	Username  string    `yaml:"username"`
	Domain    string    `yaml:"domain"`
	Panel     string    `yaml:"panel"`
	ClientID  int       `yaml:"client_id"`
	IP        string    `yaml:"ip"`
	NS1       string    `yaml:"ns1"`
	NS2       string    `yaml:"ns2"`
	LoginURL  string    `yaml:"login_url"`
	Status    string    `yaml:"status"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`

	Mirror      *MirrorReport      `yaml:"dns_mirror,omitempty"`
	Certificate *CertificateReport `yaml:"certificate,omitempty"`
}

// MirrorReport 外部DNS同步结果
type MirrorReport struct {
	Provider string         `yaml:"provider"`
	Records  []MirrorRecord `yaml:"records"`
}

// MirrorRecord 同步的DNS记录
type MirrorRecord struct {
	RecordID string `yaml:"record_id"`
	RR       string `yaml:"rr"`
	Type     string `yaml:"type"`
	Value    string `yaml:"value"`
}

// CertificateReport 已安装证书
type CertificateReport struct {
	Provider    string    `yaml:"provider"`
	CertID      string    `yaml:"cert_id"`
	NotAfter    time.Time `yaml:"not_after"`
	InstalledAt time.Time `yaml:"installed_at"`
}

// FileStorage 文件存储
type FileStorage struct {
	baseDir string
}

// NewFileStorage 创建文件存储
func NewFileStorage(baseDir string) *FileStorage {
	return &FileStorage{baseDir: baseDir}
}

func checkDomain(domain string) error {
	if domain == "" || domain == "." || domain == ".." || strings.ContainsAny(domain, `/\`) {
		return fmt.Errorf("无效的域名目录: %q", domain)
	}
	return nil
}

// GetAccountDir 获取账户目录
func (s *FileStorage) GetAccountDir(domain string) string {
	return filepath.Join(s.baseDir, domain)
}

// GetReportPath 获取开通报告路径
func (s *FileStorage) GetReportPath(domain string) string {
	return filepath.Join(s.baseDir, domain, reportFile)
}

// SaveReport 保存开通报告
func (s *FileStorage) SaveReport(report *AccountReport) error {
	if err := checkDomain(report.Domain); err != nil {
		return err
	}

	outputDir := s.GetAccountDir(report.Domain)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}

	// 先写临时文件再改名，避免留下写了一半的报告
	path := s.GetReportPath(report.Domain)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("保存报告失败: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("保存报告失败: %w", err)
	}

	log.Printf("开通报告已保存到: %s", path)
	return nil
}

// LoadReport 读取开通报告，不存在时返回 nil
func (s *FileStorage) LoadReport(domain string) (*AccountReport, error) {
	if err := checkDomain(domain); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.GetReportPath(domain))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取报告失败: %w", err)
	}

	var report AccountReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("解析报告失败: %w", err)
	}
	return &report, nil
}

// RemoveReport 删除开通报告，账户目录为空时一并删除
func (s *FileStorage) RemoveReport(domain string) error {
	if err := checkDomain(domain); err != nil {
		return err
	}

	path := s.GetReportPath(domain)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除报告失败: %w", err)
	}

	// 目录非空时 Remove 会失败，保留目录即可
	_ = os.Remove(s.GetAccountDir(domain))

	log.Printf("开通报告已删除: %s", path)
	return nil
}
