package cli

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"bookkeeping/config"
	"bookkeeping/pkg/database"
	applogger "bookkeeping/pkg/logger"
)

// withDatabase 按配置连接数据库，执行 fn 后关闭连接
func withDatabase(flags *globalFlags, fn func(db *sql.DB, logger *zap.Logger) error) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	defer sqlDB.Close()

	return fn(sqlDB, logger)
}
