package config

// Config 配置结构
type Config struct {
	// 托管面板配置
	Panel PanelConfig `yaml:"panel"`

	// 云平台凭证配置
	Providers ProvidersConfig `yaml:"providers"`

	// 外部DNS同步配置（可选）
	DNSMirror *DNSMirrorConfig `yaml:"dns_mirror,omitempty"`

	// 证书安装配置（可选）
	SSL *SSLConfig `yaml:"ssl,omitempty"`

	// 全局配置
	OutputDir   string `yaml:"output_dir"`   // 开通报告目录
	PostCommand string `yaml:"post_command"` // 开通成功后执行的命令

	// Webhook 通知配置
	Webhook *WebhookConfig `yaml:"webhook,omitempty"`
}

// PanelConfig 面板连接配置
type PanelConfig struct {
	Type     string `yaml:"type"` // 面板类型，默认 ispconfig3
	Host     string `yaml:"host"`
	Port     int    `yaml:"port,omitempty"`
	Secure   bool   `yaml:"secure"` // 使用 https
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// 跳过证书校验，仅用于自签名证书的面板
	InsecureSkipVerify bool `yaml:"insecure_skip_verify,omitempty"`
}

// ProvidersConfig 云平台凭证配置
type ProvidersConfig struct {
	Aliyun  *AliyunConfig  `yaml:"aliyun,omitempty"`
	Tencent *TencentConfig `yaml:"tencent,omitempty"`
	Huawei  *HuaweiConfig  `yaml:"huawei,omitempty"`
}

// AliyunConfig 阿里云配置
type AliyunConfig struct {
	AccessKeyID     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	Region          string `yaml:"region"`
}

// TencentConfig 腾讯云配置
type TencentConfig struct {
	SecretID  string `yaml:"secret_id"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
}

// HuaweiConfig 华为云配置
type HuaweiConfig struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	ProjectID string `yaml:"project_id"`
}

// DNSMirrorConfig 外部DNS同步配置
// 域名解析托管在云平台时，开通后把站点记录同步过去，注销时删除。
type DNSMirrorConfig struct {
	Provider string `yaml:"provider"` // aliyun, tencent, huawei
	TTL      int    `yaml:"ttl,omitempty"`
}

// SSLConfig 证书安装配置
type SSLConfig struct {
	CertProvider string `yaml:"cert_provider"` // aliyun, tencent, huawei
	MinDays      int    `yaml:"min_days"`      // 证书剩余有效期下限（天）
}

// WebhookConfig Webhook 通知配置
type WebhookConfig struct {
	Enabled      bool              `yaml:"enabled"`                 // 是否启用
	URL          string            `yaml:"url"`                     // Webhook URL
	Headers      map[string]string `yaml:"headers,omitempty"`       // 自定义请求头
	Events       []string          `yaml:"events,omitempty"`        // 订阅的事件类型
	Timeout      int               `yaml:"timeout,omitempty"`       // 请求超时时间（秒），默认30
	Retries      int               `yaml:"retries,omitempty"`       // 重试次数，默认3
	BodyTemplate string            `yaml:"body_template,omitempty"` // 请求体模板（JSON格式）
}
