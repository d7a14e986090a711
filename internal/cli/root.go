// Package cli 实现 shiftctl 命令行工具：班次窗口查询、班次日历导出与数据库迁移。
package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bookkeeping/internal/service"
	"bookkeeping/internal/shift"
	"bookkeeping/pkg/database"
)

// AppContext 命令运行环境
type AppContext struct {
	Stdout io.Writer
	Stderr io.Writer
	Now    func() time.Time
}

type globalFlags struct {
	timezone   string
	configPath string
	json       bool
}

// Run 执行命令行并返回进程退出码
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(AppContext{Stdout: stdout, Stderr: stderr})
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand 构造 Cobra 命令树
func NewRootCommand(app AppContext) *cobra.Command {
	if app.Now == nil {
		app.Now = time.Now
	}
	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}

	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "shiftctl",
		Short:         "Bookkeeping 班次与交班报告运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(app.Stdout)
	root.SetErr(app.Stderr)

	root.PersistentFlags().StringVar(&flags.timezone, "timezone", shift.DefaultTimezone, "值班时区（IANA 名称）")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "配置文件路径")
	root.PersistentFlags().BoolVar(&flags.json, "json", false, "以 JSON 输出")

	root.AddCommand(newShiftCommand(app, flags))
	root.AddCommand(newMigrateCommand(flags))
	return root
}

// ═══════════════════════════════════════════════════════════
// shift — 班次窗口
// ═══════════════════════════════════════════════════════════

func newShiftCommand(app AppContext, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shift",
		Short: "班次窗口计算",
	}
	cmd.AddCommand(newShiftAtCommand(app, flags))
	cmd.AddCommand(newShiftCalendarCommand(app, flags))
	return cmd
}

func newShiftAtCommand(app AppContext, flags *globalFlags) *cobra.Command {
	var (
		timestamp int64
		at        string
	)

	cmd := &cobra.Command{
		Use:   "at",
		Short: "输出给定时刻所在的班次（默认当前时刻）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := shift.NewCalculator(flags.timezone)
			if err != nil {
				return err
			}

			t, err := resolveInstant(app.Now(), timestamp, at)
			if err != nil {
				return err
			}
			return writeShifts(app.Stdout, calc, flags.json, []shift.Shift{calc.FromTime(t)})
		},
	}

	cmd.Flags().Int64Var(&timestamp, "timestamp", 0, "毫秒时间戳")
	cmd.Flags().StringVar(&at, "time", "", "RFC 3339 时刻，如 2023-10-29T01:00:00Z")
	cmd.MarkFlagsMutuallyExclusive("timestamp", "time")
	return cmd
}

func newShiftCalendarCommand(app AppContext, flags *globalFlags) *cobra.Command {
	var (
		timestamp int64
		at        string
		count     int
		output    string
		ical      bool
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "列出连续班次，或导出为 iCalendar 文件",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := shift.NewCalculator(flags.timezone)
			if err != nil {
				return err
			}
			from, err := resolveInstant(app.Now(), timestamp, at)
			if err != nil {
				return err
			}

			calendar := service.NewCalendarService(calc, 0, zap.NewNop())
			if !ical {
				shifts, err := calendar.Shifts(from.UnixMilli(), count)
				if err != nil {
					return err
				}
				return writeShifts(app.Stdout, calc, flags.json, shifts)
			}

			content, err := calendar.ICS(from.UnixMilli(), count)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = io.WriteString(app.Stdout, content)
				return err
			}
			if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
				return fmt.Errorf("写入日历文件失败: %w", err)
			}
			fmt.Fprintf(app.Stderr, "已写入 %s\n", output)
			return nil
		},
	}

	cmd.Flags().Int64Var(&timestamp, "from", 0, "起始毫秒时间戳（默认当前时刻）")
	cmd.Flags().StringVar(&at, "from-time", "", "起始 RFC 3339 时刻")
	cmd.Flags().IntVar(&count, "count", service.DefaultCalendarSize, "班次数量")
	cmd.Flags().BoolVar(&ical, "ics", false, "输出 iCalendar 格式")
	cmd.Flags().StringVarP(&output, "output", "o", "", "iCalendar 输出文件（默认标准输出）")
	cmd.MarkFlagsMutuallyExclusive("from", "from-time")
	return cmd
}

func resolveInstant(now time.Time, timestamp int64, at string) (time.Time, error) {
	switch {
	case timestamp > 0:
		return time.UnixMilli(timestamp), nil
	case timestamp < 0:
		return time.Time{}, fmt.Errorf("时间戳必须为正数: %d", timestamp)
	case at != "":
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return time.Time{}, fmt.Errorf("时刻格式无效: %w", err)
		}
		return t, nil
	default:
		return now, nil
	}
}

type shiftOutput struct {
	Start  time.Time    `json:"start"`
	End    time.Time    `json:"end"`
	Period shift.Period `json:"period"`
	Hours  float64      `json:"hours"`
}

func writeShifts(w io.Writer, calc *shift.Calculator, asJSON bool, shifts []shift.Shift) error {
	if asJSON {
		out := make([]shiftOutput, len(shifts))
		for i, sh := range shifts {
			out[i] = shiftOutput{Start: sh.Start.UTC(), End: sh.End.UTC(), Period: sh.Period, Hours: sh.Duration().Hours()}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	loc := calc.Location()
	for _, sh := range shifts {
		_, err := fmt.Fprintf(w, "%-9s %s → %s  (%s)\n",
			sh.Period,
			sh.Start.In(loc).Format("2006-01-02 15:04 MST"),
			sh.End.In(loc).Format("2006-01-02 15:04 MST"),
			sh.Duration(),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// migrate — 数据库迁移
// ═══════════════════════════════════════════════════════════

func newMigrateCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "执行或回滚数据库迁移",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "应用所有未执行的迁移",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(flags, func(db *sql.DB, logger *zap.Logger) error {
				return database.RunMigrations(db, logger)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "回滚最近的迁移",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(flags, func(db *sql.DB, logger *zap.Logger) error {
				return database.RollbackMigrations(db, steps, logger)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "回滚步数")
	cmd.AddCommand(down)

	return cmd
}
