package api

import (
	"moneyflow/models"
	"moneyflow/store"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 收支类别与投资类型处理器
type CategoryHandler struct {
	categories *store.CategoryRegistry
	types      *store.InvestmentTypeRegistry
}

// NewCategoryHandler 创建类别处理器
func NewCategoryHandler(categories *store.CategoryRegistry, types *store.InvestmentTypeRegistry) *CategoryHandler {
	return &CategoryHandler{categories: categories, types: types}
}

// CreateCategoryRequest 创建类别请求
type CreateCategoryRequest struct {
	Name  string                 `json:"name" binding:"required" example:"宠物"`
	Icon  string                 `json:"icon" example:"🐶"`
	Color string                 `json:"color" example:"#f97316"`
	Type  models.TransactionType `json:"type" binding:"required" example:"expense"`
}

// ReorderRequest 类别排序请求
type ReorderRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// InvestmentTypeRequest 创建/修改投资类型请求
type InvestmentTypeRequest struct {
	Name string `json:"name" example:"REITs"`
	Icon string `json:"icon" example:"🏢"`
}

// List 获取类别列表
// @Summary 获取类别列表
// @Description 按 sort_order 排序
// @Tags 类别
// @Produce json
// @Param type query string false "expense / income，不传返回全部"
// @Param all query bool false "是否包含已停用类别"
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	typ := models.TransactionType(c.Query("type"))
	if typ != "" && !typ.Valid() {
		BadRequest(c, "无效的类别类型")
		return
	}

	var (
		cats []models.Category
		err  error
	)
	if c.Query("all") == "true" {
		cats, err = h.categories.ListAll(c.Request.Context(), typ)
	} else {
		cats, err = h.categories.ListActive(c.Request.Context(), typ)
	}
	if err != nil {
		Fail(c, err, "获取类别失败")
		return
	}
	Success(c, cats)
}

// Create 创建自定义类别
// @Summary 创建自定义类别
// @Tags 类别
// @Accept json
// @Produce json
// @Param request body CreateCategoryRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	cat, err := h.categories.Create(c.Request.Context(), req.Type, store.CategoryInput{
		Name:  &req.Name,
		Icon:  &req.Icon,
		Color: &req.Color,
	})
	if err != nil {
		Fail(c, err, "创建类别失败")
		return
	}
	SuccessWithMessage(c, "创建成功", cat)
}

// Update 修改类别
// @Summary 修改类别
// @Tags 类别
// @Accept json
// @Produce json
// @Param id path string true "类别 ID"
// @Param request body store.CategoryInput true "需要修改的字段"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	var req store.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	cat, err := h.categories.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		Fail(c, err, "更新类别失败")
		return
	}
	SuccessWithMessage(c, "更新成功", cat)
}

// Delete 停用自定义类别，历史记录仍保留对它的引用
// @Summary 停用自定义类别
// @Description 默认类别不可删除
// @Tags 类别
// @Produce json
// @Param id path string true "类别 ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.categories.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err, "删除类别失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// Reorder 调整类别顺序
// @Summary 调整类别顺序
// @Tags 类别
// @Accept json
// @Produce json
// @Param request body ReorderRequest true "按新顺序排列的类别 ID"
// @Success 200 {object} Response "排序成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/categories/order [put]
func (h *CategoryHandler) Reorder(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if err := h.categories.Reorder(c.Request.Context(), req.IDs); err != nil {
		Fail(c, err, "排序失败")
		return
	}
	SuccessWithMessage(c, "排序成功", nil)
}

// ListTypes 获取投资类型
// @Summary 获取投资类型
// @Tags 投资类型
// @Produce json
// @Param all query bool false "是否包含已停用类型"
// @Success 200 {object} Response{data=[]models.InvestmentType} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/investment-types [get]
func (h *CategoryHandler) ListTypes(c *gin.Context) {
	types, err := h.types.List(c.Request.Context(), c.Query("all") != "true")
	if err != nil {
		Fail(c, err, "获取投资类型失败")
		return
	}
	Success(c, types)
}

// CreateType 创建自定义投资类型
// @Summary 创建自定义投资类型
// @Tags 投资类型
// @Accept json
// @Produce json
// @Param request body InvestmentTypeRequest true "投资类型信息"
// @Success 200 {object} Response{data=models.InvestmentType} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/investment-types [post]
func (h *CategoryHandler) CreateType(c *gin.Context) {
	var req InvestmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	t, err := h.types.Create(c.Request.Context(), req.Name, req.Icon)
	if err != nil {
		Fail(c, err, "创建投资类型失败")
		return
	}
	SuccessWithMessage(c, "创建成功", t)
}

// UpdateType 修改投资类型
// @Summary 修改投资类型
// @Tags 投资类型
// @Accept json
// @Produce json
// @Param id path string true "投资类型 ID"
// @Param request body InvestmentTypeRequest true "需要修改的字段"
// @Success 200 {object} Response{data=models.InvestmentType} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/investment-types/{id} [put]
func (h *CategoryHandler) UpdateType(c *gin.Context) {
	var req InvestmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	t, err := h.types.Update(c.Request.Context(), c.Param("id"), req.Name, req.Icon)
	if err != nil {
		Fail(c, err, "更新投资类型失败")
		return
	}
	SuccessWithMessage(c, "更新成功", t)
}

// DeleteType 停用自定义投资类型
// @Summary 停用自定义投资类型
// @Description 默认类型不可删除
// @Tags 投资类型
// @Produce json
// @Param id path string true "投资类型 ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/investment-types/{id} [delete]
func (h *CategoryHandler) DeleteType(c *gin.Context) {
	if err := h.types.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err, "删除投资类型失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
