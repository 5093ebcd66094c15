package core

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"ispconfig-manager/internal/provider"
)

// Executor 命令执行器
type Executor struct {
	shell string
}

// NewExecutor 创建执行器
func NewExecutor() *Executor {
	return &Executor{shell: "sh"}
}

// RunPostCommand 执行后置命令，命令中的 ${NAME} 会被替换为对应变量
func (e *Executor) RunPostCommand(ctx context.Context, command string, vars map[string]string) error {
	if command == "" {
		return nil
	}

	command = Expand(command, vars)

	log.Printf("执行后置命令: %s", command)

	cmd := exec.CommandContext(ctx, e.shell, "-c", command)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	for key, value := range vars {
		cmd.Env = append(cmd.Env, "ISPCONFIG_"+key+"="+value)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("执行命令失败: %w", err)
	}

	log.Printf("后置命令执行成功")
	return nil
}

// Expand 替换命令中的 ${NAME} 变量
func Expand(command string, vars map[string]string) string {
	for key, value := range vars {
		command = strings.ReplaceAll(command, "${"+key+"}", value)
	}
	return command
}

// BuildVars 构建变量映射
func (e *Executor) BuildVars(acc *provider.Account, reportFile string) map[string]string {
	clientID := ""
	if acc.Client != nil && acc.Client.ID > 0 {
		clientID = strconv.Itoa(acc.Client.ID)
	}
	return map[string]string{
		"DOMAIN":      acc.Domain,
		"USERNAME":    acc.Username,
		"CLIENT_ID":   clientID,
		"IP":          acc.IP,
		"REPORT_FILE": reportFile,
	}
}
