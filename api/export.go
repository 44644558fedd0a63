package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"moneyflow/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出处理器
type ExportHandler struct {
	exporter *service.Exporter
}

// NewExportHandler 创建导出处理器
func NewExportHandler(exporter *service.Exporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

// ExportCSV 导出为 CSV
// @Summary 导出 CSV
// @Description 导出收支、投资明细及持仓汇总；kind=both 时分段输出
// @Tags 导出
// @Produce text/csv
// @Param kind query string false "expenses / investments / both" default(both)
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 429 {object} Response "请求过于频繁"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	h.export(c, "csv", "text/csv; charset=utf-8", h.exporter.CSV)
}

// ExportXLSX 导出为 Excel
// @Summary 导出 Excel
// @Description 每类数据一个工作表
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param kind query string false "expenses / investments / both" default(both)
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 429 {object} Response "请求过于频繁"
// @Failure 500 {object} Response "服务器错误"
// @Failure 503 {object} Response "存储不可用"
// @Router /api/v1/export/xlsx [get]
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	h.export(c, "xlsx", xlsxContentType, h.exporter.XLSX)
}

type writeFunc func(ctx context.Context, w io.Writer, kind service.ExportKind, startDate, endDate string) error

func (h *ExportHandler) export(c *gin.Context, ext, contentType string, write writeFunc) {
	kind := service.ExportKind(c.DefaultQuery("kind", string(service.ExportBoth)))
	if !kind.Valid() {
		BadRequest(c, "kind 只能为 expenses、investments 或 both")
		return
	}
	start, end, err := dateRange(c)
	if err != nil {
		Fail(c, err, "参数错误")
		return
	}

	// 先写入缓冲区，出错时仍可返回 JSON 错误
	buf := new(bytes.Buffer)
	if err := write(c.Request.Context(), buf, kind, start, end); err != nil {
		Fail(c, err, "导出失败")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", h.exporter.Filename(kind, ext)))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
