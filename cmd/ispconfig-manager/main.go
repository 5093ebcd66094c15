package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"ispconfig-manager/internal/config"
	"ispconfig-manager/internal/core"
	"ispconfig-manager/internal/provider"
	"ispconfig-manager/internal/shutdown"
)

func printUsage() {
	fmt.Println(`ISPConfig 3 托管账户开通工具

用法:
  ispconfig-manager [config.yaml] test                           # 测试面板连接
  ispconfig-manager [config.yaml] create <account.yaml>          # 开通账户
  ispconfig-manager [config.yaml] suspend <account.yaml>         # 暂停账户
  ispconfig-manager [config.yaml] unsuspend <account.yaml>       # 恢复账户
  ispconfig-manager [config.yaml] cancel <account.yaml>          # 注销账户（删除客户及其全部资源）
  ispconfig-manager [config.yaml] password <account.yaml> <新密码> # 修改密码
  ispconfig-manager [config.yaml] sites <account.yaml>           # 列出账户网站
  ispconfig-manager [config.yaml] ssl <account.yaml> [--force]   # 从云平台安装已签发证书
  ispconfig-manager [config.yaml] login-url                      # 显示面板登录地址

示例:
  ispconfig-manager config.yaml create accounts/alice.yaml
  ispconfig-manager config.yaml ssl accounts/alice.yaml --force

配置文件示例:
  panel:
    host: "panel.example.com"
    port: 8080
    secure: true
    username: "remote"
    password: "xxx"

  dns_mirror:
    provider: "aliyun"   # 可选，同步A记录到云解析
  ssl:
    cert_provider: "tencent"
    min_days: 7

  output_dir: "./accounts"

账户文件示例:
  username: "alice"
  password: "xxx"
  domain: "example.com"
  ip: "203.0.113.5"
  ns1: "ns1.example.com"
  ns2: "ns2.example.com"
  client:
    first_name: "Alice"
    last_name: "Smith"
    email: "alice@example.com"
  package:
    name: "basic"
    quota: 1024
    bandwidth: 10240`)
}

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" {
		printUsage()
		return
	}

	// 第一个参数不是命令时视为配置文件
	configPath := "config.yaml"
	args := os.Args[1:]
	if !isCommand(args[0]) {
		configPath = args[0]
		args = args[1:]
	}
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	manager, err := core.NewManager(cfg)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}

	sigHandler := shutdown.NewSignalHandler(context.Background())
	sigHandler.Start()
	defer sigHandler.Stop()

	if err := run(sigHandler.Context(), manager, args[0], args[1:]); err != nil {
		sigHandler.Stop()
		log.Fatalf("%v", err)
	}
}

var commands = map[string]bool{
	"test": true, "create": true, "suspend": true, "unsuspend": true, "cancel": true,
	"password": true, "sites": true, "ssl": true, "login-url": true,
}

func isCommand(arg string) bool {
	return commands[arg]
}

func run(ctx context.Context, manager *core.Manager, command string, args []string) error {
	switch command {
	case "test":
		return manager.TestConnection(ctx)

	case "create":
		file, err := accountArg(command, args)
		if err != nil {
			return err
		}
		_, err = manager.CreateAccount(ctx, file)
		return err

	case "suspend", "unsuspend":
		file, err := accountArg(command, args)
		if err != nil {
			return err
		}
		action := manager.SuspendAccount
		if command == "unsuspend" {
			action = manager.UnsuspendAccount
		}
		ok, err := action(ctx, file.Account())
		if err != nil {
			return err
		}
		report(ok, "账户 %s 状态已更新", file.Username)
		return nil

	case "cancel":
		file, err := accountArg(command, args)
		if err != nil {
			return err
		}
		ok, err := manager.CancelAccount(ctx, file.Account())
		if err != nil {
			return err
		}
		report(ok, "账户 %s 已注销", file.Username)
		return nil

	case "password":
		if len(args) < 2 {
			return fmt.Errorf("用法: ispconfig-manager [config.yaml] password <account.yaml> <新密码>")
		}
		file, err := config.LoadAccount(args[0])
		if err != nil {
			return err
		}
		ok, err := manager.ChangePassword(ctx, file.Account(), args[1])
		if err != nil {
			return err
		}
		report(ok, "账户 %s 密码已修改", file.Username)
		return nil

	case "sites":
		file, err := accountArg(command, args)
		if err != nil {
			return err
		}
		sites, err := manager.ListSites(ctx, file.Account())
		if err != nil {
			return err
		}
		printSites(sites)
		return nil

	case "ssl":
		file, err := accountArg(command, args)
		if err != nil {
			return err
		}
		force := len(args) > 1 && args[1] == "--force"
		_, err = manager.InstallCertificate(ctx, file.Account(), force)
		return err

	case "login-url":
		user, reseller, err := manager.LoginURL(ctx, nil)
		if err != nil {
			return err
		}
		fmt.Printf("用户登录地址:   %s\n代理商登录地址: %s\n", user, reseller)
		return nil
	}

	return fmt.Errorf("未知命令: %s", command)
}

func accountArg(command string, args []string) (*config.AccountFile, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("用法: ispconfig-manager [config.yaml] %s <account.yaml>", command)
	}
	return config.LoadAccount(args[0])
}

func report(ok bool, format string, v ...interface{}) {
	if ok {
		log.Printf(format, v...)
		return
	}
	log.Printf("面板未执行操作")
}

func printSites(sites []*provider.Site) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "域名", "状态"})
	for _, s := range sites {
		status := "已暂停"
		if s.Active {
			status = "启用"
		}
		table.Append([]string{strconv.Itoa(s.ID), s.Domain, status})
	}
	table.Render()
}
