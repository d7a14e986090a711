package service

import (
	"go.uber.org/zap"

	"bookkeeping/config"
	"bookkeeping/internal/eosreport"
	"bookkeeping/internal/repository"
	"bookkeeping/internal/shift"
	"bookkeeping/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth      AuthService
	User      UserService
	Shift     ShiftService
	EosReport EosReportService
	Export    ExportService
	Calendar  CalendarService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	calc *shift.Calculator,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	formatter := eosreport.NewFormatter(cfg.Server.FrontURL, calc.Location())

	users := NewUserService(repo, logger)
	shifts := NewShiftService(repo, users, calc, cfg.Shift.EnvironmentGrace, logger)

	return &Service{
		Auth:      NewAuthService(repo, jwtMgr, blacklist, logger),
		User:      users,
		Shift:     shifts,
		EosReport: NewEosReportService(repo, shifts, calc, formatter, logger),
		Export:    NewExportService(repo, calc, formatter, logger),
		Calendar:  NewCalendarService(calc, cfg.EosReport.CalendarMaxSize, logger),
	}
}
