package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpc_adapter "github.com/JoeShih716/go-office-ledger/internal/app/core/adapter/in/grpc"
	http_adapter "github.com/JoeShih716/go-office-ledger/internal/app/core/adapter/in/http"
	kafka_adapter "github.com/JoeShih716/go-office-ledger/internal/app/core/adapter/out/kafka"
	memory_adapter "github.com/JoeShih716/go-office-ledger/internal/app/core/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-office-ledger/internal/app/core/adapter/out/mysql"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-office-ledger/internal/config"
	"github.com/JoeShih716/go-office-ledger/pkg/auth"
	"github.com/JoeShih716/go-office-ledger/pkg/keylock"
	"github.com/JoeShih716/go-office-ledger/pkg/logger"
	"github.com/JoeShih716/go-office-ledger/pkg/metrics"
	"github.com/JoeShih716/go-office-ledger/pkg/mysql"
	"github.com/JoeShih716/go-office-ledger/pkg/redislock"
	"github.com/JoeShih716/go-office-ledger/pkg/wal"
)

// stores 依設定選擇的儲存實作
type stores struct {
	ledger     usecase.Ledger
	employees  usecase.EmployeeStore
	leaves     usecase.RecordStore[domain.Leave]
	todos      usecase.RecordStore[domain.Todo]
	progress   usecase.RecordStore[domain.Progress]
	attendance usecase.RecordStore[domain.Attendance]
	salaries   usecase.RecordStore[domain.Salary]
	lifelines  usecase.RecordStore[domain.Lifeline]
	closers    []func() error
}

func main() {
	// 1. 載入設定
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
	log.Info("server exited")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	// 2. 初始化儲存層
	st, err := openStores(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, closeFn := range st.closers {
			if err := closeFn(); err != nil {
				log.Warn("close resource failed", zap.Error(err))
			}
		}
	}()

	// 3. 指標
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// 4. 初始化 UseCase
	coreOpts := []usecase.CoreOption{
		usecase.WithLogger(log.Named("ledger")),
		usecase.WithMetrics(m),
	}
	if cfg.Redis.Enabled() {
		redisClient, err := redislock.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		locks := redislock.NewManager(redisClient, cfg.Redis, log.Named("redislock"))
		defer locks.Close()
		coreOpts = append(coreOpts, usecase.WithLocker(locks))
		log.Info("distributed lock enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		// 單一實例時用行程內的鎖
		coreOpts = append(coreOpts, usecase.WithLocker(keylock.New()))
	}
	if cfg.Kafka.Enabled() {
		publisher := kafka_adapter.NewPublisher(cfg.Kafka)
		defer publisher.Close()
		coreOpts = append(coreOpts, usecase.WithPublisher(publisher))
		log.Info("event publishing enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}
	coreUseCase := usecase.NewCoreUseCase(st.ledger, coreOpts...)

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		return err
	}
	employeeUseCase := usecase.NewEmployeeUseCase(st.employees, auth.BcryptHasher{}, tokens, log.Named("employee"))
	if err := bootstrapAdmin(ctx, cfg.Admin, st.employees, log); err != nil {
		return err
	}

	// 5. 初始化 Driving Adapters
	httpServer := http_adapter.NewServer(cfg.HTTP, http_adapter.Deps{
		Core:       coreUseCase,
		Employees:  employeeUseCase,
		Leaves:     usecase.NewRecordService[domain.Leave](st.leaves),
		Todos:      usecase.NewRecordService[domain.Todo](st.todos),
		Progress:   usecase.NewRecordService[domain.Progress](st.progress),
		Attendance: usecase.NewRecordService[domain.Attendance](st.attendance),
		Salaries:   usecase.NewRecordService[domain.Salary](st.salaries),
		Lifelines:  usecase.NewRecordService[domain.Lifeline](st.lifelines),
		Tokens:     tokens,
		Middleware: []gin.HandlerFunc{m.GinMiddleware()},
		Gatherer:   registry,
		Logger:     log.Named("http"),
	})

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpc_adapter.AuthInterceptor(tokens, log.Named("grpc"))))
	grpc_adapter.RegisterLedgerServiceServer(grpcServer, grpc_adapter.NewGrpcServer(coreUseCase, log.Named("grpc")))
	if cfg.GRPC.Reflection {
		reflection.Register(grpcServer) // 方便 grpcurl 測試
	}
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return err
	}

	// 6. 啟動
	errCh := make(chan error, 2)
	go func() {
		log.Info("starting grpc server", zap.String("addr", cfg.GRPC.Addr))
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		errCh <- httpServer.Start()
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var serveErr error
	select {
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	case serveErr = <-errCh:
		log.Error("server stopped unexpectedly", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	return serveErr
}

func openStores(cfg *config.Config, log *zap.Logger) (*stores, error) {
	switch cfg.Store {
	case config.StoreMySQL:
		dbClient, err := mysql.NewClient(cfg.MySQL, log.Named("mysql"))
		if err != nil {
			return nil, err
		}
		log.Info("connected to mysql", zap.String("host", cfg.MySQL.Host))
		if cfg.MySQL.AutoMigrate {
			if err := mysql_adapter.Migrate(dbClient.DB()); err != nil {
				_ = dbClient.Close()
				return nil, err
			}
		}
		return &stores{
			ledger:     mysql_adapter.NewMySQLLedger(dbClient),
			employees:  mysql_adapter.NewMySQLEmployeeStore(dbClient),
			leaves:     mysql_adapter.NewRecordStore[domain.Leave](dbClient, "leave"),
			todos:      mysql_adapter.NewRecordStore[domain.Todo](dbClient, "todo"),
			progress:   mysql_adapter.NewRecordStore[domain.Progress](dbClient, "progress"),
			attendance: mysql_adapter.NewRecordStore[domain.Attendance](dbClient, "attendance"),
			salaries:   mysql_adapter.NewRecordStore[domain.Salary](dbClient, "salary"),
			lifelines:  mysql_adapter.NewRecordStore[domain.Lifeline](dbClient, "lifeline"),
			closers:    []func() error{dbClient.Close},
		}, nil

	case config.StoreMemory:
		employeeWAL, err := wal.NewWAL(cfg.EmployeeWALPath)
		if err != nil {
			return nil, err
		}
		employees, err := memory_adapter.NewPersistentEmployeeStore(employeeWAL)
		if err != nil {
			_ = employeeWAL.Close()
			return nil, err
		}
		ledgerWAL, err := wal.NewWAL(cfg.WALPath)
		if err != nil {
			_ = employeeWAL.Close()
			return nil, err
		}
		ledger, err := memory_adapter.NewMutexLedger(employees, ledgerWAL)
		if err != nil {
			_ = ledgerWAL.Close()
			_ = employeeWAL.Close()
			return nil, err
		}
		// 員工 WAL 遺失時，新員工也不能拿到帳本裡既有的 ID
		employees.ReserveIDs(ledger.MaxEmployeeID())
		log.Warn("using in-memory store, only employees and ledger entries survive a restart",
			zap.String("wal", cfg.WALPath),
			zap.String("employee_wal", cfg.EmployeeWALPath),
		)
		return &stores{
			ledger:     ledger,
			employees:  employees,
			leaves:     memory_adapter.NewRecordStore[domain.Leave](),
			todos:      memory_adapter.NewRecordStore[domain.Todo](),
			progress:   memory_adapter.NewRecordStore[domain.Progress](),
			attendance: memory_adapter.NewRecordStore[domain.Attendance](),
			salaries:   memory_adapter.NewRecordStore[domain.Salary](),
			lifelines:  memory_adapter.NewRecordStore[domain.Lifeline](),
			closers:    []func() error{ledgerWAL.Close, employeeWAL.Close},
		}, nil
	}
	return nil, errors.New("unknown store type")
}

// bootstrapAdmin 第一次啟動時建立管理員帳號
func bootstrapAdmin(ctx context.Context, admin config.BootstrapAdmin, store usecase.EmployeeStore, log *zap.Logger) error {
	if !admin.Enabled() {
		return nil
	}
	email := domain.NormalizeEmail(admin.Email)
	if _, err := store.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	hash, err := auth.BcryptHasher{}.Hash(admin.Password)
	if err != nil {
		return err
	}
	name := admin.Name
	if name == "" {
		name = "Admin"
	}
	employee := &domain.Employee{
		Name:         domain.NormalizeName(name),
		Email:        email,
		Role:         domain.RoleAdmin,
		PasswordHash: hash,
		Active:       true,
	}
	if err := store.Create(ctx, employee); err != nil {
		return err
	}
	log.Info("bootstrap admin created", zap.Int64("employee_id", employee.ID), zap.String("email", email))
	return nil
}
