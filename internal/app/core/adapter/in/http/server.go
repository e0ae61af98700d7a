package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/usecase"
)

// Config HTTP 伺服器設定
type Config struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ApplyDefaults 補全未設定的欄位
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Deps Server 依賴的 use case 與基礎設施
type Deps struct {
	Core       *usecase.CoreUseCase
	Employees  *usecase.EmployeeUseCase
	Leaves     *usecase.RecordService[domain.Leave, *domain.Leave]
	Todos      *usecase.RecordService[domain.Todo, *domain.Todo]
	Progress   *usecase.RecordService[domain.Progress, *domain.Progress]
	Attendance *usecase.RecordService[domain.Attendance, *domain.Attendance]
	Salaries   *usecase.RecordService[domain.Salary, *domain.Salary]
	Lifelines  *usecase.RecordService[domain.Lifeline, *domain.Lifeline]
	Tokens     TokenVerifier
	// Middleware 額外的全域 middleware，例如 HTTP 延遲指標
	Middleware []gin.HandlerFunc
	// Gatherer 提供 /metrics，nil 時不掛載
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// Server gin 路由與 handler
type Server struct {
	core       *usecase.CoreUseCase
	employees  *usecase.EmployeeUseCase
	leaves     *usecase.RecordService[domain.Leave, *domain.Leave]
	todos      *usecase.RecordService[domain.Todo, *domain.Todo]
	progress   *usecase.RecordService[domain.Progress, *domain.Progress]
	attendance *usecase.RecordService[domain.Attendance, *domain.Attendance]
	salaries   *usecase.RecordService[domain.Salary, *domain.Salary]
	lifelines  *usecase.RecordService[domain.Lifeline, *domain.Lifeline]
	tokens     TokenVerifier
	logger     *zap.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// NewServer 建立路由與 *http.Server，Start 之前呼叫 Shutdown 也有效
func NewServer(cfg Config, deps Deps) *Server {
	cfg.ApplyDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		core:       deps.Core,
		employees:  deps.Employees,
		leaves:     deps.Leaves,
		todos:      deps.Todos,
		progress:   deps.Progress,
		attendance: deps.Attendance,
		salaries:   deps.Salaries,
		lifelines:  deps.Lifelines,
		tokens:     deps.Tokens,
		logger:     logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))
	engine.Use(deps.Middleware...)
	s.engine = engine
	s.routes(deps.Gatherer)
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler 回傳 http.Handler，測試用
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes(gatherer prometheus.Gatherer) {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := s.engine.Group("/api")
	api.POST("/login", s.Login)

	authed := api.Group("", s.authenticate())
	admin := authed.Group("/admin", requireAdmin())

	admin.GET("/employees", s.ListEmployees)
	admin.POST("/employees", s.RegisterEmployee)
	admin.PUT("/employees/:id", s.UpdateEmployee)
	admin.DELETE("/employees/:id", s.DeactivateEmployee)

	admin.POST("/accounts/payments", s.recordTransaction(domain.TransactionKindWithdrawal))
	admin.POST("/accounts/refunds", s.recordTransaction(domain.TransactionKindRefund))
	authed.GET("/accounts/:employeeId/payments", s.listTransactions(domain.TransactionKindWithdrawal))
	authed.GET("/accounts/:employeeId/refunds", s.listTransactions(domain.TransactionKindRefund))
	authed.GET("/accounts/:employeeId/balance", s.GetBalance)

	registerRecordRoutes(authed, admin, "leaves", s.leaves, restrictLeave)
	registerRecordRoutes(authed, admin, "todos", s.todos, nil)
	registerRecordRoutes(authed, admin, "progress", s.progress, nil)
	registerRecordRoutes(authed, admin, "attendance", s.attendance, nil)
	registerRecordRoutes(authed, admin, "salaries", s.salaries, nil)
	registerRecordRoutes(authed, admin, "lifelines", s.lifelines, nil)
}

// Start 開始監聽，Shutdown 後回傳 nil
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 等待進行中的請求完成
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
