package api

import (
	"fmt"
	"strconv"
	"time"

	"moneyflow/analytics"
	"moneyflow/models"
	"moneyflow/store"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler 统计与资金流处理器
type AnalyticsHandler struct {
	engine *analytics.Engine
}

// NewAnalyticsHandler 创建统计处理器
func NewAnalyticsHandler(engine *analytics.Engine) *AnalyticsHandler {
	return &AnalyticsHandler{engine: engine}
}

// Categories 类别汇总
// @Summary 类别汇总
// @Description 按类别汇总金额与笔数，百分比以输出类别合计为分母，合计为 0 的类别不返回
// @Tags 统计
// @Produce json
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Param category_ids query string false "类别 ID，逗号分隔"
// @Param type query string false "expense / income"
// @Success 200 {object} Response{data=[]analytics.CategoryTotal} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/analytics/categories [get]
func (h *AnalyticsHandler) Categories(c *gin.Context) {
	f, err := entryFilter(c)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	totals, err := h.engine.CategoryTotals(c.Request.Context(), f)
	if err != nil {
		Fail(c, err, "统计失败")
		return
	}
	Success(c, totals)
}

// Daily 按日汇总
// @Summary 按日汇总
// @Description 按日期倒序
// @Tags 统计
// @Produce json
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Param category_ids query string false "类别 ID，逗号分隔"
// @Param type query string false "expense / income"
// @Param limit query int false "返回条数，0 表示不限制"
// @Success 200 {object} Response{data=[]analytics.DailyTotal} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/analytics/daily [get]
func (h *AnalyticsHandler) Daily(c *gin.Context) {
	f, limit, ok := h.filterWithLimit(c)
	if !ok {
		return
	}
	out, err := h.engine.DailyTotals(c.Request.Context(), f, limit)
	if err != nil {
		Fail(c, err, "统计失败")
		return
	}
	Success(c, out)
}

// Monthly 按月汇总
// @Summary 按月汇总
// @Description 按月份倒序
// @Tags 统计
// @Produce json
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Param category_ids query string false "类别 ID，逗号分隔"
// @Param type query string false "expense / income"
// @Param limit query int false "返回条数，0 表示不限制"
// @Success 200 {object} Response{data=[]analytics.MonthlyTotal} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/analytics/monthly [get]
func (h *AnalyticsHandler) Monthly(c *gin.Context) {
	f, limit, ok := h.filterWithLimit(c)
	if !ok {
		return
	}
	out, err := h.engine.MonthlyTotals(c.Request.Context(), f, limit)
	if err != nil {
		Fail(c, err, "统计失败")
		return
	}
	Success(c, out)
}

// Yearly 按年汇总
// @Summary 按年汇总
// @Description 按年份倒序
// @Tags 统计
// @Produce json
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Param category_ids query string false "类别 ID，逗号分隔"
// @Param type query string false "expense / income"
// @Param limit query int false "返回条数，0 表示不限制"
// @Success 200 {object} Response{data=[]analytics.YearlyTotal} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/analytics/yearly [get]
func (h *AnalyticsHandler) Yearly(c *gin.Context) {
	f, limit, ok := h.filterWithLimit(c)
	if !ok {
		return
	}
	out, err := h.engine.YearlyTotals(c.Request.Context(), f, limit)
	if err != nil {
		Fail(c, err, "统计失败")
		return
	}
	Success(c, out)
}

func (h *AnalyticsHandler) filterWithLimit(c *gin.Context) (analytics.Filter, int, bool) {
	f, err := entryFilter(c)
	if err != nil {
		Fail(c, err, "参数错误")
		return f, 0, false
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		Fail(c, err, "参数错误")
		return f, 0, false
	}
	return f, limit, true
}

// Total 总额与笔数
// @Summary 总额与笔数
// @Tags 统计
// @Produce json
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Param category_ids query string false "类别 ID，逗号分隔"
// @Param type query string false "expense / income"
// @Success 200 {object} Response{data=analytics.TotalCount} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/analytics/total [get]
func (h *AnalyticsHandler) Total(c *gin.Context) {
	f, err := entryFilter(c)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	out, err := h.engine.TotalAndCount(c.Request.Context(), f)
	if err != nil {
		Fail(c, err, "统计失败")
		return
	}
	Success(c, out)
}

// AverageDaily 日均金额（按有记录的天数平均）
// @Summary 日均金额
// @Description 按有记录的天数平均，无数据时为 0
// @Tags 统计
// @Produce json
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Param category_ids query string false "类别 ID，逗号分隔"
// @Param type query string false "expense / income"
// @Success 200 {object} Response{data=object} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/analytics/average-daily [get]
func (h *AnalyticsHandler) AverageDaily(c *gin.Context) {
	f, err := entryFilter(c)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	avg, err := h.engine.AverageDaily(c.Request.Context(), f)
	if err != nil {
		Fail(c, err, "统计失败")
		return
	}
	Success(c, gin.H{"average_daily": avg})
}

// Breakdown 某一收支类型的类别分布
// @Summary 收支类别分布
// @Tags 统计
// @Produce json
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Param type query string false "expense / income" default(expense)
// @Success 200 {object} Response{data=[]analytics.CategoryTotal} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/analytics/breakdown [get]
func (h *AnalyticsHandler) Breakdown(c *gin.Context) {
	start, end, err := dateRange(c)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	typ := models.TransactionType(c.DefaultQuery("type", string(models.TransactionExpense)))
	out, err := h.engine.CategoryBreakdown(c.Request.Context(), start, end, typ)
	if err != nil {
		Fail(c, err, "统计失败")
		return
	}
	Success(c, out)
}

// InvestmentTypes 投入按投资类型分布
// @Summary 投资类型分布
// @Tags 统计
// @Produce json
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {object} Response{data=[]analytics.TypeTotal} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/analytics/investment-types [get]
func (h *AnalyticsHandler) InvestmentTypes(c *gin.Context) {
	start, end, err := dateRange(c)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	out, err := h.engine.InvestmentTypeBreakdown(c.Request.Context(), start, end)
	if err != nil {
		Fail(c, err, "统计失败")
		return
	}
	Success(c, out)
}

// Overview 分析页数据：类别汇总、按日、按月与总额并发查询
// @Summary 分析页汇总
// @Tags 统计
// @Produce json
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Param category_ids query string false "类别 ID，逗号分隔"
// @Param type query string false "expense / income"
// @Param days query int false "按日汇总条数" default(30)
// @Param months query int false "按月汇总条数" default(12)
// @Success 200 {object} Response{data=analytics.Overview} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/analytics/overview [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	f, err := entryFilter(c)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	days, err := queryInt(c, "days", 30)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	months, err := queryInt(c, "months", 12)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	ov, err := h.engine.Overview(c.Request.Context(), f, days, months)
	if err != nil {
		Fail(c, err, "统计失败")
		return
	}
	Success(c, ov)
}

// Transactions 统一流水（收入、支出、投资合并后按日期倒序）
// @Summary 统一流水
// @Description 收入、支出与投资先合并，再按日期、创建时间倒序分页
// @Tags 统计
// @Produce json
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Param kind query string false "all / income / expense / investment" default(all)
// @Param limit query int false "条数，0 表示不限制"
// @Param offset query int false "偏移"
// @Success 200 {object} Response{data=[]analytics.Transaction} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/transactions [get]
func (h *AnalyticsHandler) Transactions(c *gin.Context) {
	start, end, err := dateRange(c)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	f := analytics.UnifiedFilter{StartDate: start, EndDate: end, Kind: analytics.Kind(c.Query("kind"))}
	out, err := h.engine.UnifiedTransactions(c.Request.Context(), f, limit, offset)
	if err != nil {
		Fail(c, err, "获取流水失败")
		return
	}
	Success(c, out)
}

// MoneyFlow 资金流汇总
// @Summary 资金流汇总
// @Description 收入、支出、投资与结余，占比以收入为分母，收入为 0 时占比为 0
// @Tags 统计
// @Produce json
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {object} Response{data=analytics.MoneyFlowSummary} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/money-flow [get]
func (h *AnalyticsHandler) MoneyFlow(c *gin.Context) {
	start, end, err := dateRange(c)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	out, err := h.engine.MoneyFlowSummary(c.Request.Context(), start, end)
	if err != nil {
		Fail(c, err, "统计失败")
		return
	}
	Success(c, out)
}

// Allocation 收入分配
// @Summary 收入分配
// @Description 收入分配到支出、投资与结余，只返回金额为正的项
// @Tags 统计
// @Produce json
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {object} Response{data=[]analytics.AllocationItem} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/money-flow/allocation [get]
func (h *AnalyticsHandler) Allocation(c *gin.Context) {
	start, end, err := dateRange(c)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	out, err := h.engine.IncomeAllocationBreakdown(c.Request.Context(), start, end)
	if err != nil {
		Fail(c, err, "统计失败")
		return
	}
	Success(c, out)
}

// MonthlyFlow 某年每月资金流，year 缺省为今年
// @Summary 月度资金流
// @Tags 统计
// @Produce json
// @Param year query int false "年份，缺省为今年"
// @Success 200 {object} Response{data=[]analytics.FlowStat} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/money-flow/monthly [get]
func (h *AnalyticsHandler) MonthlyFlow(c *gin.Context) {
	year, err := queryYear(c, "year", time.Now().Year())
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	out, err := h.engine.MonthlyFlow(c.Request.Context(), year)
	if err != nil {
		Fail(c, err, "统计失败")
		return
	}
	Success(c, out)
}

// YearlyFlow 年度资金流，默认最近 5 年
// @Summary 年度资金流
// @Tags 统计
// @Produce json
// @Param start_year query int false "起始年份，缺省为 end_year-4"
// @Param end_year query int false "结束年份，缺省为今年"
// @Success 200 {object} Response{data=[]analytics.FlowStat} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/money-flow/yearly [get]
func (h *AnalyticsHandler) YearlyFlow(c *gin.Context) {
	now := time.Now().Year()
	end, err := queryYear(c, "end_year", now)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	start, err := queryYear(c, "start_year", end-4)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	out, err := h.engine.YearlyFlow(c.Request.Context(), start, end)
	if err != nil {
		Fail(c, err, "统计失败")
		return
	}
	Success(c, out)
}

func queryYear(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	year, err := strconv.Atoi(v)
	if err != nil || year < 1 || year > 9999 {
		return 0, fmt.Errorf("%w: invalid %s %q", store.ErrInvalidInput, key, v)
	}
	return year, nil
}
