package cli

import (
	"context"
	"flag"
	"log"
	"strings"

	"moneyflow/config"
	"moneyflow/database"
	"moneyflow/router"

	"github.com/google/subcommands"
)

type serveCmd struct {
	configFile string
	port       string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "启动 HTTP 服务（默认命令）" }
func (*serveCmd) Usage() string {
	return `moneyflow serve [-c <config>] [-p <port>]

  启动记账与资产分析 HTTP 服务。
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configFile, "config", "", "外部配置文件路径（可选）")
	f.StringVar(&c.configFile, "c", "", "外部配置文件路径（简写）")
	f.StringVar(&c.port, "port", "", "监听端口，如: 8080 或 :8080")
	f.StringVar(&c.port, "p", "", "监听端口（简写）")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(c.configFile)
	if err != nil {
		log.Printf("加载配置失败: %v", err)
		return subcommands.ExitFailure
	}

	// 命令行参数覆盖端口配置
	if c.port != "" {
		cfg.Server.Port = normalizePort(c.port)
		log.Printf("命令行指定端口: %s", cfg.Server.Port)
	}

	config.PrintConfig(cfg)

	db, err := database.Init(cfg)
	if err != nil {
		log.Printf("数据库初始化失败: %v", err)
		return subcommands.ExitFailure
	}
	defer database.Close(db)

	r := router.SetupRouter(cfg, db)

	log.Printf("==========================================")
	log.Printf("  💰 MoneyFlow 已启动")
	log.Printf("==========================================")
	log.Printf("  API接口:  http://localhost%s/api/v1/", cfg.Server.Port)
	log.Printf("  健康检查: http://localhost%s/health", cfg.Server.Port)
	log.Printf("  Swagger:  http://localhost%s/swagger/index.html", cfg.Server.Port)
	log.Printf("==========================================")

	if err := r.Run(cfg.Server.Port); err != nil {
		log.Printf("服务器启动失败: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// normalizePort 自动添加冒号前缀
func normalizePort(port string) string {
	if !strings.HasPrefix(port, ":") {
		return ":" + port
	}
	return port
}

type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "显示版本信息" }
func (*versionCmd) Usage() string          { return "moneyflow version\n" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}
func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	log.Printf("MoneyFlow v%s", Version)
	return subcommands.ExitSuccess
}
