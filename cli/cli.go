package cli

import (
	"fmt"
	"os"

	"moneyflow/analytics"
	"moneyflow/config"
	"moneyflow/database"
	"moneyflow/portfolio"
	"moneyflow/service"
	"moneyflow/store"

	"github.com/google/subcommands"
	"gorm.io/gorm"
)

// Version 程序版本
const Version = "1.0.0"

// Register 注册子命令
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(&serveCmd{}, "")
	c.Register(&reportCmd{}, "reports")
	c.Register(&exportCmd{}, "reports")
	c.Register(&versionCmd{}, "")
}

// app 命令行使用的存储与引擎
type app struct {
	cfg       *config.Config
	db        *gorm.DB
	analytics *analytics.Engine
	portfolio *portfolio.Engine
	exporter  *service.Exporter
}

func openApp(configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	return newApp(cfg)
}

func newApp(cfg *config.Config) (*app, error) {
	db, err := database.Init(cfg)
	if err != nil {
		return nil, fmt.Errorf("数据库初始化失败: %w", err)
	}

	ledger := store.NewLedgerStore(db, nil)
	investments := store.NewInvestmentStore(db, nil)
	pf := portfolio.NewEngine(investments, store.NewSnapshotStore(db), cfg.Portfolio.LookupConcurrency)
	return &app{
		cfg:       cfg,
		db:        db,
		analytics: analytics.NewEngine(ledger, store.NewCategoryRegistry(db), investments, store.NewInvestmentTypeRegistry(db)),
		portfolio: pf,
		exporter:  service.NewExporter(ledger, investments, pf),
	}, nil
}

func (a *app) Close() error {
	return database.Close(a.db)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
