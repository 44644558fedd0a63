package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"moneyflow/service"

	"github.com/google/subcommands"
)

type exportCmd struct {
	configFile string
	kind       string
	format     string
	out        string
	start      string
	end        string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "导出收支、投资明细与持仓汇总到文件" }
func (*exportCmd) Usage() string {
	return `moneyflow export [-c <config>] [-kind both] [-format csv|xlsx] [-out <file>] [-start <date>] [-end <date>]

  导出数据；未指定 -out 时写入配置 export.dir 下的默认文件名。
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configFile, "c", "", "外部配置文件路径（可选）")
	f.StringVar(&c.kind, "kind", string(service.ExportBoth), "expenses / investments / both")
	f.StringVar(&c.format, "format", "csv", "csv / xlsx")
	f.StringVar(&c.out, "out", "", "输出文件路径")
	f.StringVar(&c.start, "start", "", "开始日期 (2024-01-01)")
	f.StringVar(&c.end, "end", "", "结束日期 (2024-12-31)")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind := service.ExportKind(c.kind)
	if !kind.Valid() {
		fmt.Fprintf(os.Stderr, "Error: invalid kind %q\n", c.kind)
		return subcommands.ExitUsageError
	}
	if c.format != "csv" && c.format != "xlsx" {
		fmt.Fprintf(os.Stderr, "Error: invalid format %q\n", c.format)
		return subcommands.ExitUsageError
	}

	a, err := openApp(c.configFile)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	path, err := runExport(ctx, a, kind, c.format, c.out, c.start, c.end)
	if err != nil {
		return fail(err)
	}
	log.Printf("已导出: %s", path)
	return subcommands.ExitSuccess
}

// runExport 写出导出文件并返回路径；失败时删除未写完的文件
func runExport(ctx context.Context, a *app, kind service.ExportKind, format, out, start, end string) (string, error) {
	if out == "" {
		out = filepath.Join(a.cfg.Export.Dir, a.exporter.Filename(kind, format))
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", err
	}
	file, err := os.Create(out)
	if err != nil {
		return "", err
	}

	write := a.exporter.CSV
	if format == "xlsx" {
		write = a.exporter.XLSX
	}
	if err := write(ctx, file, kind, start, end); err != nil {
		file.Close()
		os.Remove(out)
		return "", err
	}
	return out, file.Close()
}
