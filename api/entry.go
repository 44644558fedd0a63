package api

import (
	"moneyflow/models"
	"moneyflow/store"

	"github.com/gin-gonic/gin"
)

// EntryHandler 收支记录处理器
type EntryHandler struct {
	ledger *store.LedgerStore
}

// NewEntryHandler 创建收支记录处理器
func NewEntryHandler(ledger *store.LedgerStore) *EntryHandler {
	return &EntryHandler{ledger: ledger}
}

// CreateEntryRequest 创建收支记录请求
type CreateEntryRequest struct {
	Title      *string                `json:"title" example:"午餐"`
	Amount     float64                `json:"amount" binding:"required,gt=0" example:"35.5"`
	CategoryID string                 `json:"category_id" binding:"required"`
	Type       models.TransactionType `json:"type" example:"expense"`
	Notes      *string                `json:"notes"`
	ImageRef   *string                `json:"image_ref"`
	Date       string                 `json:"date" binding:"required" example:"2024-01-15"`
}

// Create 创建收支记录
// @Summary 创建收支记录
// @Tags 收支记录
// @Accept json
// @Produce json
// @Param request body CreateEntryRequest true "收支记录"
// @Success 200 {object} Response{data=models.LedgerEntry} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/entries [post]
func (h *EntryHandler) Create(c *gin.Context) {
	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	entry := models.LedgerEntry{
		Title:           req.Title,
		Amount:          req.Amount,
		CategoryID:      req.CategoryID,
		TransactionType: req.Type,
		Notes:           req.Notes,
		ImageRef:        req.ImageRef,
		Date:            req.Date,
	}
	if err := h.ledger.Create(c.Request.Context(), &entry); err != nil {
		Fail(c, err, "创建记录失败")
		return
	}
	SuccessWithMessage(c, "创建成功", entry)
}

// List 获取收支记录列表
// @Summary 获取收支记录列表
// @Description 按日期倒序，附带类别名称、图标与颜色
// @Tags 收支记录
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Param category_ids query string false "类别 ID，逗号分隔"
// @Param type query string false "expense / income"
// @Success 200 {object} Response{data=PageResponse{list=[]store.EntryRow}} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/entries [get]
func (h *EntryHandler) List(c *gin.Context) {
	f, err := entryFilter(c)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}
	page, pageSize := pageParams(c)

	total, err := h.ledger.Count(c.Request.Context(), f)
	if err != nil {
		Fail(c, err, "获取记录失败")
		return
	}
	rows, err := h.ledger.List(c.Request.Context(), f, pageSize, (page-1)*pageSize)
	if err != nil {
		Fail(c, err, "获取记录失败")
		return
	}
	Success(c, PageResponse{Total: total, Page: page, PageSize: pageSize, List: rows})
}

// Get 获取单条收支记录
// @Summary 获取单条收支记录
// @Tags 收支记录
// @Produce json
// @Param id path string true "记录 ID"
// @Success 200 {object} Response{data=store.EntryRow} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/entries/{id} [get]
func (h *EntryHandler) Get(c *gin.Context) {
	row, err := h.ledger.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err, "获取记录失败")
		return
	}
	Success(c, row)
}

// Update 更新收支记录
// @Summary 更新收支记录
// @Description 只修改传入的字段；替换图片时删除旧图片
// @Tags 收支记录
// @Accept json
// @Produce json
// @Param id path string true "记录 ID"
// @Param request body store.EntryUpdate true "需要修改的字段"
// @Success 200 {object} Response{data=store.EntryRow} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/entries/{id} [put]
func (h *EntryHandler) Update(c *gin.Context) {
	var req store.EntryUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	row, err := h.ledger.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		Fail(c, err, "更新记录失败")
		return
	}
	SuccessWithMessage(c, "更新成功", row)
}

// Delete 删除收支记录（同时删除图片）
// @Summary 删除收支记录
// @Tags 收支记录
// @Produce json
// @Param id path string true "记录 ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/entries/{id} [delete]
func (h *EntryHandler) Delete(c *gin.Context) {
	if err := h.ledger.Delete(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err, "删除记录失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
