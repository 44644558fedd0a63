package api

import (
	"moneyflow/models"
	"moneyflow/store"

	"github.com/gin-gonic/gin"
)

// InvestmentHandler 投资记录处理器
type InvestmentHandler struct {
	investments *store.InvestmentStore
}

func NewInvestmentHandler(investments *store.InvestmentStore) *InvestmentHandler {
	return &InvestmentHandler{investments: investments}
}

// CreateInvestmentRequest 创建投资记录请求
type CreateInvestmentRequest struct {
	Name     string  `json:"name" binding:"required" example:"沪深300指数基金"`
	TypeID   string  `json:"type_id" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0" example:"1000"`
	Notes    *string `json:"notes"`
	ImageRef *string `json:"image_ref"`
	Date     string  `json:"date" binding:"required" example:"2024-01-15"`
}

// Create 创建投资记录
// @Summary 创建投资记录
// @Tags 投资
// @Accept json
// @Produce json
// @Param request body CreateInvestmentRequest true "投资记录"
// @Success 200 {object} Response{data=models.InvestmentContribution} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/investments [post]
func (h *InvestmentHandler) Create(c *gin.Context) {
	var req CreateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	in := models.InvestmentContribution{
		Name:     req.Name,
		TypeID:   req.TypeID,
		Amount:   req.Amount,
		Notes:    req.Notes,
		ImageRef: req.ImageRef,
		Date:     req.Date,
	}
	if err := h.investments.Create(c.Request.Context(), &in); err != nil {
		Fail(c, err, "创建投资记录失败")
		return
	}
	SuccessWithMessage(c, "创建成功", in)
}

// List 获取投资记录列表
// @Summary 获取投资记录列表
// @Tags 投资
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Param type_id query string false "投资类型"
// @Param name query string false "名称包含"
// @Success 200 {object} Response{data=[]store.InvestmentRow} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/investments [get]
func (h *InvestmentHandler) List(c *gin.Context) {
	start, end, err := dateRange(c)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	page, pageSize := pageParams(c)
	f := store.InvestmentFilter{
		StartDate:    start,
		EndDate:      end,
		TypeID:       c.Query("type_id"),
		NameContains: c.Query("name"),
	}
	rows, err := h.investments.List(c.Request.Context(), f, pageSize, (page-1)*pageSize)
	if err != nil {
		Fail(c, err, "获取投资记录失败")
		return
	}
	Success(c, rows)
}

// Get 获取单条投资记录
// @Summary 获取单条投资记录
// @Tags 投资
// @Produce json
// @Param id path string true "投资记录 ID"
// @Success 200 {object} Response{data=store.InvestmentRow} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/investments/{id} [get]
func (h *InvestmentHandler) Get(c *gin.Context) {
	row, err := h.investments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err, "获取投资记录失败")
		return
	}
	Success(c, row)
}

// Update 更新投资记录
// @Summary 更新投资记录
// @Tags 投资
// @Accept json
// @Produce json
// @Param id path string true "投资记录 ID"
// @Param request body store.InvestmentUpdate true "需要修改的字段"
// @Success 200 {object} Response{data=store.InvestmentRow} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/investments/{id} [put]
func (h *InvestmentHandler) Update(c *gin.Context) {
	var req store.InvestmentUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	row, err := h.investments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		Fail(c, err, "更新投资记录失败")
		return
	}
	SuccessWithMessage(c, "更新成功", row)
}

// Delete 删除投资记录
// @Summary 删除投资记录
// @Tags 投资
// @Produce json
// @Param id path string true "投资记录 ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/investments/{id} [delete]
func (h *InvestmentHandler) Delete(c *gin.Context) {
	if err := h.investments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err, "删除投资记录失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
