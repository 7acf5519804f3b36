package hosting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gocrud/beans/logging"
)

// HostedService 托管服务接口
// Start 应阻塞执行，直到 context 被取消或发生错误；Stop 执行额外的清理。
type HostedService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Manager 托管服务管理器（检查接口、定义监视器等）
type Manager struct {
	services    []HostedService
	logger      logging.Logger
	stopTimeout time.Duration
	mu          sync.Mutex
}

// NewManager 创建托管服务管理器
func NewManager(logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Manager{
		logger:      logger.WithCategory("hosting"),
		stopTimeout: 10 * time.Second,
	}
}

// WithStopTimeout 设置停止超时
func (m *Manager) WithStopTimeout(timeout time.Duration) *Manager {
	m.stopTimeout = timeout
	return m
}

// Add 添加托管服务
func (m *Manager) Add(services ...HostedService) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, services...)
	return m
}

// Run 在各自的 goroutine 中启动所有服务，直到 ctx 取消或任一服务出错，然后反向停止。
// 返回第一个非取消类错误。
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	services := append([]HostedService(nil), m.services...)
	m.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(services))
	var wg sync.WaitGroup

	m.logger.Info(fmt.Sprintf("Starting %d hosted services", len(services)))
	for i, svc := range services {
		wg.Add(1)
		go func(index int, svc HostedService) {
			defer wg.Done()
			err := svc.Start(runCtx)
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				m.logger.Debug(fmt.Sprintf("Hosted service %d finished", index+1))
				return
			}
			m.logger.Error(fmt.Sprintf("Hosted service %d error", index+1),
				logging.Field{Key: "error", Value: err.Error()})
			errCh <- err
			cancel()
		}(i, svc)
	}

	var runErr error
	select {
	case <-runCtx.Done():
	case runErr = <-errCh:
	}

	m.stopAll(services)
	wg.Wait()

	if runErr == nil {
		select {
		case runErr = <-errCh:
		default:
		}
	}
	return runErr
}

// stopAll 反向并发停止服务
func (m *Manager) stopAll(services []HostedService) {
	ctx, cancel := context.WithTimeout(context.Background(), m.stopTimeout)
	defer cancel()

	m.logger.Info(fmt.Sprintf("Stopping %d hosted services", len(services)))

	var wg sync.WaitGroup
	for i := len(services) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(idx int, svc HostedService) {
			defer wg.Done()
			if err := svc.Stop(ctx); err != nil {
				m.logger.Error(fmt.Sprintf("Failed to stop hosted service %d", idx+1),
					logging.Field{Key: "error", Value: err.Error()})
			}
		}(i, services[i])
	}
	wg.Wait()

	m.logger.Info("All hosted services stopped")
}
