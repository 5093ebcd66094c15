package shutdown

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// exitInterrupted 第二次收到信号时的退出码
const exitInterrupted = 130

// SignalHandler 中断处理器
// 第一次 SIGINT/SIGTERM 取消 context，正在进行的面板调用随之中止，会话注销仍会执行；
// 第二次直接退出进程。
type SignalHandler struct {
	ctx    context.Context
	cancel context.CancelFunc
	sigs   chan os.Signal
	done   chan struct{}
	exit   func(code int)
}

// NewSignalHandler 创建中断处理器
func NewSignalHandler(parent context.Context) *SignalHandler {
	ctx, cancel := context.WithCancel(parent)
	return &SignalHandler{
		ctx:    ctx,
		cancel: cancel,
		sigs:   make(chan os.Signal, 2),
		done:   make(chan struct{}),
		exit:   os.Exit,
	}
}

// Context 返回收到信号后取消的 context
func (h *SignalHandler) Context() context.Context {
	return h.ctx
}

// Start 开始监听信号
func (h *SignalHandler) Start() {
	signal.Notify(h.sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-h.sigs:
			log.Printf("收到信号 %v，正在中止并注销面板会话...", sig)
			h.cancel()
		case <-h.done:
			return
		}

		select {
		case sig := <-h.sigs:
			log.Printf("再次收到信号 %v，立即退出", sig)
			h.exit(exitInterrupted)
		case <-h.done:
		}
	}()
}

// Stop 停止监听并释放 context
func (h *SignalHandler) Stop() {
	signal.Stop(h.sigs)
	select {
	case <-h.done:
	default:
		close(h.done)
	}
	h.cancel()
}
