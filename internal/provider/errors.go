package provider

import (
	"errors"
	"fmt"
)

// 错误分类
var (
	// ErrAuthentication 登录失败或未获得会话令牌
	ErrAuthentication = errors.New("面板认证失败")
	// ErrTransport 网络错误、HTTP错误或非JSON响应
	ErrTransport = errors.New("面板请求失败")
	// ErrUnsupported 面板不支持的操作
	ErrUnsupported = errors.New("不支持的操作")
	// ErrNotFound 面板上不存在对应实体
	ErrNotFound = errors.New("未找到")
	// ErrRemoteFault 面板执行创建或修改动作后返回空结果
	ErrRemoteFault = errors.New("面板拒绝请求")
)

// UnsupportedError 不支持的操作，Action 为操作名称
type UnsupportedError struct {
	Panel  string
	Action string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s 不支持 %s", e.Panel, e.Action)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// NewUnsupportedError 创建不支持操作错误
func NewUnsupportedError(panel, action string) *UnsupportedError {
	return &UnsupportedError{Panel: panel, Action: action}
}

// ActionError 远程动作失败，Action 为失败的远程动作名
type ActionError struct {
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// WrapAction 给错误附加远程动作名，err 为 nil 时返回 nil
// 已带动作名的错误原样返回，保留最先失败的动作。
func WrapAction(action string, err error) error {
	if err == nil {
		return nil
	}
	var ae *ActionError
	if errors.As(err, &ae) {
		return err
	}
	return &ActionError{Action: action, Err: err}
}

// FailedAction 返回错误链中最内层（最先失败）的远程动作名
func FailedAction(err error) string {
	action := ""
	for err != nil {
		var ae *ActionError
		if !errors.As(err, &ae) {
			break
		}
		action = ae.Action
		err = ae.Err
	}
	return action
}
