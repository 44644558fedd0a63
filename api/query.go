package api

import (
	"fmt"
	"strconv"
	"strings"

	"moneyflow/models"
	"moneyflow/store"

	"github.com/gin-gonic/gin"
)

// queryDate 读取可选的 YYYY-MM-DD 查询参数
func queryDate(c *gin.Context, key string) (string, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return "", nil
	}
	if err := store.ValidateDate(v); err != nil {
		return "", fmt.Errorf("%s 格式错误，应为: 2006-01-02: %w", key, err)
	}
	return v, nil
}

// queryInt 读取整数查询参数，缺省时返回 def
func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", store.ErrInvalidInput, key)
	}
	return n, nil
}

// dateRange 读取 start_date / end_date
func dateRange(c *gin.Context) (string, string, error) {
	start, err := queryDate(c, "start_date")
	if err != nil {
		return "", "", err
	}
	end, err := queryDate(c, "end_date")
	if err != nil {
		return "", "", err
	}
	return start, end, nil
}

// entryFilter 解析收支过滤参数
// category_ids 支持重复参数或逗号分隔，空值等同于不过滤
func entryFilter(c *gin.Context) (store.EntryFilter, error) {
	start, end, err := dateRange(c)
	if err != nil {
		return store.EntryFilter{}, err
	}
	f := store.EntryFilter{StartDate: start, EndDate: end}

	for _, raw := range c.QueryArray("category_ids") {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				f.CategoryIDs = append(f.CategoryIDs, id)
			}
		}
	}

	if typ := models.TransactionType(c.Query("type")); typ != "" {
		if !typ.Valid() {
			return store.EntryFilter{}, fmt.Errorf("%w: unknown transaction type %q", store.ErrInvalidInput, typ)
		}
		f.Type = typ
	}
	return f, nil
}

// pageParams 解析分页参数，默认第 1 页、每页 20 条，最多 100 条
func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.Query("page"))
	pageSize, _ = strconv.Atoi(c.Query("page_size"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
