package main

import (
	"context"
	"flag"
	"os"
	"path"
	"strings"

	"moneyflow/cli"

	"github.com/google/subcommands"
)

// @title MoneyFlow API
// @version 1.0
// @description 个人记账与资产分析 API：收支记录、类别统计、资金流与持仓估值
// @host localhost:8080
// @BasePath /

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cli.Register(commander)

	flag.CommandLine.Parse(defaultArgs(os.Args[1:]))
	os.Exit(int(commander.Execute(context.Background())))
}

// defaultArgs 未指定子命令时默认启动服务，兼容 moneyflow -c config.yaml -p 8080 的用法
func defaultArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"serve"}
	}
	switch args[0] {
	case "-v", "-version", "--version":
		return []string{"version"}
	}
	if strings.HasPrefix(args[0], "-") {
		return append([]string{"serve"}, args...)
	}
	return args
}
