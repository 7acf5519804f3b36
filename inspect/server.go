package inspect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/beans/di"
	"github.com/gocrud/beans/logging"
)

// Server 检查接口的 HTTP 服务
type Server struct {
	addr   string
	engine *gin.Engine
	server *http.Server
	logger logging.Logger
}

// NewServer 创建服务，路由挂载在 /debug/beans 下
func NewServer(addr string, engine *di.Engine, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	NewHandler(engine, logger).MountRoutes(router.Group("/debug/beans"))

	return &Server{
		addr:   addr,
		engine: router,
		server: &http.Server{Addr: addr, Handler: router},
		logger: logger.WithCategory("inspect"),
	}
}

// Router 获取 Gin 引擎
func (s *Server) Router() *gin.Engine {
	return s.engine
}

// Address 监听地址，仅在 Start 后有效
func (s *Server) Address() string {
	return s.server.Addr
}

// Start 启动服务，阻塞直到 Stop 或 ctx 取消
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("inspect: failed to listen on %s: %w", s.addr, err)
	}
	s.server.Addr = ln.Addr().String()
	s.logger.Info("Inspect server started", logging.Field{Key: "address", Value: s.server.Addr})

	go func() {
		<-ctx.Done()
		s.server.Close()
	}()

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Inspect server error", logging.Field{Key: "error", Value: err.Error()})
		return err
	}
	return nil
}

// Stop 优雅关闭
func (s *Server) Stop(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown inspect server gracefully",
			logging.Field{Key: "error", Value: err.Error()})
		return err
	}
	s.logger.Info("Inspect server stopped")
	return nil
}
