package api

import (
	"moneyflow/portfolio"

	"github.com/gin-gonic/gin"
)

// PortfolioHandler 持仓估值处理器
type PortfolioHandler struct {
	engine *portfolio.Engine
}

// RecordValueRequest 记录市值请求
type RecordValueRequest struct {
	CurrentValue *float64 `json:"current_value" binding:"required" example:"1250.5"`
}

func NewPortfolioHandler(engine *portfolio.Engine) *PortfolioHandler {
	return &PortfolioHandler{engine: engine}
}

// Summary 组合估值
// @Summary 组合估值
// @Description 按持仓名称汇总投入，附最近一次市值、收益、收益率与年化收益率
// @Tags 持仓
// @Produce json
// @Param type_id query string false "投资类型"
// @Param name query string false "名称包含"
// @Success 200 {object} Response{data=portfolio.Summary} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/portfolio [get]
func (h *PortfolioHandler) Summary(c *gin.Context) {
	var f portfolio.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	s, err := h.engine.Summary(c.Request.Context(), f)
	if err != nil {
		Fail(c, err, "获取持仓失败")
		return
	}
	Success(c, s)
}

// Holding 单个持仓明细
// @Summary 单个持仓明细
// @Tags 持仓
// @Produce json
// @Param name path string true "持仓名称（URL 编码，可含 /）"
// @Success 200 {object} Response{data=portfolio.HoldingDetail} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/portfolio/{name} [get]
func (h *PortfolioHandler) Holding(c *gin.Context) {
	detail, err := h.engine.Holding(c.Request.Context(), c.Param("name"))
	if err != nil {
		Fail(c, err, "获取持仓失败")
		return
	}
	Success(c, detail)
}

// Values 持仓市值历史
// @Summary 持仓市值历史
// @Description 按记录时间倒序
// @Tags 持仓
// @Produce json
// @Param name path string true "持仓名称（URL 编码，可含 /）"
// @Success 200 {object} Response{data=[]models.ValuationSnapshot} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/portfolio/{name}/values [get]
func (h *PortfolioHandler) Values(c *gin.Context) {
	detail, err := h.engine.Holding(c.Request.Context(), c.Param("name"))
	if err != nil {
		Fail(c, err, "获取市值历史失败")
		return
	}
	Success(c, detail.History)
}

// RecordValue 记录持仓当前市值（追加快照）
// @Summary 记录持仓当前市值
// @Description 追加一条市值快照，历史快照不修改
// @Tags 持仓
// @Accept json
// @Produce json
// @Param name path string true "持仓名称（URL 编码，可含 /）"
// @Param request body RecordValueRequest true "当前市值"
// @Success 200 {object} Response{data=models.ValuationSnapshot} "记录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/portfolio/{name}/values [post]
func (h *PortfolioHandler) RecordValue(c *gin.Context) {
	var req RecordValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	snap, err := h.engine.RecordValue(c.Request.Context(), c.Param("name"), *req.CurrentValue)
	if err != nil {
		Fail(c, err, "记录市值失败")
		return
	}
	SuccessWithMessage(c, "记录成功", snap)
}
