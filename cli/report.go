package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"moneyflow/analytics"
	"moneyflow/models"
	"moneyflow/portfolio"
	"moneyflow/store"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
)

type reportCmd struct {
	configFile string
	start      string
	end        string
	currency   string
	raw        bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "在终端输出资金流与持仓报告" }
func (*reportCmd) Usage() string {
	return `moneyflow report [-c <config>] [-start <date>] [-end <date>] [-currency <code>] [-raw]

  输出指定期间的资金流、支出类别与持仓估值（Markdown）。
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configFile, "c", "", "外部配置文件路径（可选）")
	f.StringVar(&c.start, "start", "", "开始日期 (2024-01-01)")
	f.StringVar(&c.end, "end", "", "结束日期 (2024-12-31)")
	f.StringVar(&c.currency, "currency", "", "货币代码，默认取配置 export.currency")
	f.BoolVar(&c.raw, "raw", false, "输出原始 Markdown，不做终端渲染")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	for _, d := range []string{c.start, c.end} {
		if d != "" {
			if err := store.ValidateDate(d); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return subcommands.ExitUsageError
			}
		}
	}

	a, err := openApp(c.configFile)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	currency := c.currency
	if currency == "" {
		currency = a.cfg.Export.Currency
	}
	if money.GetCurrency(currency) == nil {
		fmt.Fprintf(os.Stderr, "Error: unknown currency %q\n", currency)
		return subcommands.ExitUsageError
	}

	data, err := collectReport(ctx, a, c.start, c.end)
	if err != nil {
		return fail(err)
	}
	md := reportMarkdown(data, currency)
	if c.raw {
		fmt.Print(md)
		return subcommands.ExitSuccess
	}
	if err := printMarkdown(md); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

// reportData 报告所需数据
type reportData struct {
	Start, End string
	Flow       analytics.MoneyFlowSummary
	Expenses   []analytics.CategoryTotal
	Portfolio  *portfolio.Summary
}

func collectReport(ctx context.Context, a *app, start, end string) (*reportData, error) {
	flow, err := a.analytics.MoneyFlowSummary(ctx, start, end)
	if err != nil {
		return nil, err
	}
	expenses, err := a.analytics.CategoryBreakdown(ctx, start, end, models.TransactionExpense)
	if err != nil {
		return nil, err
	}
	pf, err := a.portfolio.Summary(ctx, portfolio.Filter{})
	if err != nil {
		return nil, err
	}
	return &reportData{Start: start, End: end, Flow: flow, Expenses: expenses, Portfolio: pf}, nil
}

// reportMarkdown 生成报告 Markdown，金额按 currency 格式化
func reportMarkdown(d *reportData, currency string) string {
	fm := func(v float64) string { return money.NewFromFloat(v, currency).Display() }
	pct := func(v float64) string { return fmt.Sprintf("%.2f%%", v) }

	var b strings.Builder
	b.WriteString("# MoneyFlow 报告\n\n")
	fmt.Fprintf(&b, "期间: %s ~ %s\n\n", orAll(d.Start, "最早"), orAll(d.End, "至今"))

	b.WriteString("## 资金流\n\n")
	b.WriteString("| 项目 | 金额 | 占收入 |\n|---|---:|---:|\n")
	fmt.Fprintf(&b, "| 收入 | %s | |\n", fm(d.Flow.TotalIncome))
	fmt.Fprintf(&b, "| 支出 | %s | %s |\n", fm(d.Flow.TotalExpenses), pct(d.Flow.ExpensePercentage))
	fmt.Fprintf(&b, "| 投资 | %s | %s |\n", fm(d.Flow.TotalInvestments), pct(d.Flow.InvestmentPercentage))
	fmt.Fprintf(&b, "| 结余 | %s | %s |\n\n", fm(d.Flow.LiquidSavings), pct(d.Flow.SavingsPercentage))

	b.WriteString("## 支出类别\n\n")
	if len(d.Expenses) == 0 {
		b.WriteString("暂无支出记录\n\n")
	} else {
		b.WriteString("| 类别 | 金额 | 笔数 | 占比 |\n|---|---:|---:|---:|\n")
		for _, ct := range d.Expenses {
			fmt.Fprintf(&b, "| %s | %s | %d | %s |\n", ct.Label(), fm(ct.Total), ct.Count, pct(ct.Percentage))
		}
		b.WriteString("\n")
	}

	b.WriteString("## 持仓\n\n")
	if d.Portfolio == nil || len(d.Portfolio.Items) == 0 {
		b.WriteString("暂无投资记录\n")
		return b.String()
	}
	opt := func(v *float64, f func(float64) string) string {
		if v == nil {
			return "-"
		}
		return f(*v)
	}
	b.WriteString("| 名称 | 类型 | 投入 | 市值 | 收益 | 收益率 | 年化 |\n|---|---|---:|---:|---:|---:|---:|\n")
	for _, it := range d.Portfolio.Items {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			it.Name, it.TypeLabel(), fm(it.TotalInvested),
			opt(it.CurrentValue, fm), opt(it.Profit, fm),
			opt(it.ProfitPercentage, pct), opt(it.CAGR, pct))
	}
	fmt.Fprintf(&b, "| **合计** | | %s | %s | %s | %s | |\n",
		fm(d.Portfolio.TotalInvested), fm(d.Portfolio.TotalCurrentValue),
		fm(d.Portfolio.TotalProfit), pct(d.Portfolio.TotalProfitPercentage))
	return b.String()
}

func orAll(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// printMarkdown 在终端渲染 Markdown
func printMarkdown(md string) error {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
