package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ChannelSnapshot/internal/adapter"
	_ "ChannelSnapshot/internal/adapter/youtube"
	"ChannelSnapshot/internal/api"
	"ChannelSnapshot/internal/config"
	"ChannelSnapshot/internal/interfaces"
	"ChannelSnapshot/internal/repository"
	"ChannelSnapshot/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "channel-snapshot",
		Usage: "频道视频每日快照入仓",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "./config", Usage: "config.yaml 所在目录"},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "执行一次快照（抽取 -> 转换 -> 幂等入库）",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "channel", Usage: "覆盖配置中的频道ID"},
					&cli.IntFlag{Name: "max-videos", Usage: "覆盖单次最多抓取的视频数"},
					&cli.BoolFlag{Name: "dry-run", Usage: "写入内存数仓，不连接PostgreSQL"},
				},
				Action: runSnapshot,
			},
			{
				Name:   "serve",
				Usage:  "启动HTTP服务：POST /snapshot/run 触发快照",
				Action: serve,
			},
			{
				Name:   "init-db",
				Usage:  "建库（不存在时）并创建 warehouse 表结构",
				Action: initDB,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config-dir"))
	if err != nil {
		return nil, fmt.Errorf("加载配置文件失败: %w", err)
	}
	if v := strings.TrimSpace(c.String("channel")); v != "" {
		cfg.Snapshot.ChannelID = v
	}
	if c.IsSet("max-videos") {
		cfg.Snapshot.MaxVideos = c.Int("max-videos")
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// openWarehouse dry-run 用内存数仓，否则连接 PostgreSQL；返回的 closer 负责释放连接
func openWarehouse(cfg *config.Config, logger *logrus.Logger, dryRun bool) (interfaces.Warehouse, func(), error) {
	if dryRun {
		logger.Warn("dry-run：快照写入内存数仓，不会落库")
		return repository.NewMemoryWarehouse(), func() {}, nil
	}
	db, err := repository.OpenPostgres(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("PostgreSQL连接成功")
	return repository.NewSnapshotRepository(db), func() { closeDB(db, logger) }, nil
}

func closeDB(db *gorm.DB, logger *logrus.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.WithError(err).Warn("关闭数据库连接失败")
	}
}

func newSnapshotService(cfg *config.Config, logger *logrus.Logger, dryRun bool) (*service.SnapshotService, func(), error) {
	source, err := adapter.NewSource(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	warehouse, closer, err := openWarehouse(cfg, logger, dryRun)
	if err != nil {
		return nil, nil, err
	}
	svc, err := service.NewSnapshotService(source, warehouse, logger, &cfg.Snapshot, service.WithDryRun(dryRun))
	if err != nil {
		closer()
		return nil, nil, err
	}
	return svc, closer, nil
}

func runSnapshot(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	dryRun := c.Bool("dry-run")
	if dryRun {
		err = cfg.ValidateSource()
	} else {
		err = cfg.Validate()
	}
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log)

	svc, closer, err := newSnapshotService(cfg, logger, dryRun)
	if err != nil {
		return err
	}
	defer closer()

	summary, err := svc.Run(ctx, cfg.Snapshot.ChannelID, cfg.Snapshot.MaxVideos)
	if err != nil {
		return err
	}
	fmt.Println(service.SummaryLine(summary))
	return nil
}

func serve(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg.Log)

	svc, closer, err := newSnapshotService(cfg, logger, false)
	if err != nil {
		return err
	}
	defer closer()

	handler := api.NewSnapshotHandler(svc, cfg.Snapshot.ChannelID, cfg.Snapshot.MaxVideos, logger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(cfg.Server.Mode, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("服务启动成功，端口：%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("启动服务失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("收到退出信号，正在关闭服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func initDB(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return err
	}
	logger := newLogger(cfg.Log)

	created, err := repository.EnsureDatabaseExists(ctx, cfg.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("创建数据库失败: %w", err)
	}
	if created {
		logger.Infof("数据库 '%s' 创建成功", cfg.Postgres.Name)
	} else {
		logger.Infof("数据库 '%s' 已存在", cfg.Postgres.Name)
	}

	db, err := repository.OpenPostgres(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB(db, logger)

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}
	logger.Info("数据库表结构初始化完成（warehouse schema + 3 张表）")
	return nil
}
