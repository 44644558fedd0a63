package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"moneyflow/analytics"
	"moneyflow/config"
	"moneyflow/database"
	"moneyflow/models"
	"moneyflow/portfolio"
	"moneyflow/service"
	"moneyflow/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	t.Cleanup(func() { sqlDB.Close() })
	return gormDB, mock
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Init(&config.Config{Database: config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "api.db"),
	}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// newTestRouter 按生产路由的方式装配各处理器
func newTestRouter(db *gorm.DB) *gin.Engine {
	ledger := store.NewLedgerStore(db, nil)
	categories := store.NewCategoryRegistry(db)
	types := store.NewInvestmentTypeRegistry(db)
	investments := store.NewInvestmentStore(db, nil)
	pf := portfolio.NewEngine(investments, store.NewSnapshotStore(db), 2)

	entryHandler := NewEntryHandler(ledger)
	categoryHandler := NewCategoryHandler(categories, types)
	investmentHandler := NewInvestmentHandler(investments)
	analyticsHandler := NewAnalyticsHandler(analytics.NewEngine(ledger, categories, investments, types))
	portfolioHandler := NewPortfolioHandler(pf)
	exportHandler := NewExportHandler(service.NewExporter(ledger, investments, pf))

	r := gin.New()
	r.POST("/entries", entryHandler.Create)
	r.GET("/entries", entryHandler.List)
	r.GET("/entries/:id", entryHandler.Get)
	r.PUT("/entries/:id", entryHandler.Update)
	r.DELETE("/entries/:id", entryHandler.Delete)
	r.GET("/categories", categoryHandler.List)
	r.POST("/categories", categoryHandler.Create)
	r.DELETE("/categories/:id", categoryHandler.Delete)
	r.GET("/investment-types", categoryHandler.ListTypes)
	r.POST("/investments", investmentHandler.Create)
	r.GET("/investments", investmentHandler.List)
	r.GET("/analytics/categories", analyticsHandler.Categories)
	r.GET("/analytics/average-daily", analyticsHandler.AverageDaily)
	r.GET("/transactions", analyticsHandler.Transactions)
	r.GET("/money-flow", analyticsHandler.MoneyFlow)
	r.GET("/money-flow/monthly", analyticsHandler.MonthlyFlow)
	r.GET("/portfolio", portfolioHandler.Summary)
	r.GET("/portfolio/:name", portfolioHandler.Holding)
	r.POST("/portfolio/:name/values", portfolioHandler.RecordValue)
	r.GET("/export/csv", exportHandler.ExportCSV)
	r.GET("/export/xlsx", exportHandler.ExportXLSX)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func categoryID(t *testing.T, db *gorm.DB, typ models.TransactionType, name string) string {
	t.Helper()
	var cat models.Category
	require.NoError(t, db.Where("type = ? AND name = ?", typ, name).First(&cat).Error)
	return cat.ID
}

func TestEntryHandler_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)
	food := categoryID(t, db, models.TransactionExpense, models.DefaultExpenseCategories[0].Name)

	w, resp := doJSON(t, r, "POST", "/entries", gin.H{
		"title": "午餐", "amount": 35.5, "category_id": food, "date": "2024-01-15",
	})
	require.Equal(t, 200, w.Code, w.Body.String())
	assert.Equal(t, "创建成功", resp["message"])
	created := resp["data"].(map[string]interface{})
	assert.Equal(t, "expense", created["type"])

	w, resp = doJSON(t, r, "GET", "/entries?start_date=2024-01-01&end_date=2024-01-31", nil)
	require.Equal(t, 200, w.Code)
	page := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), page["total"])
	list := page["list"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, models.DefaultExpenseCategories[0].Name, list[0].(map[string]interface{})["category_name"])

	w, _ = doJSON(t, r, "DELETE", fmt.Sprintf("/entries/%s", created["id"]), nil)
	assert.Equal(t, 200, w.Code)
	w, _ = doJSON(t, r, "GET", fmt.Sprintf("/entries/%s", created["id"]), nil)
	assert.Equal(t, 404, w.Code)
}

func TestEntryHandler_Create_Invalid(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)
	food := categoryID(t, db, models.TransactionExpense, models.DefaultExpenseCategories[0].Name)

	w, _ := doJSON(t, r, "POST", "/entries", gin.H{"amount": -5, "category_id": food, "date": "2024-01-15"})
	assert.Equal(t, 400, w.Code)

	w, _ = doJSON(t, r, "POST", "/entries", gin.H{"amount": 5, "category_id": food, "date": "2024/01/15"})
	assert.Equal(t, 400, w.Code)

	w, _ = doJSON(t, r, "GET", "/entries?start_date=yesterday", nil)
	assert.Equal(t, 400, w.Code)
}

func TestEntryHandler_List_StoreUnavailable(t *testing.T) {
	db, mock := setupMockDB(t)
	r := newTestRouter(db)

	mock.ExpectQuery("SELECT count").WillReturnError(sql.ErrConnDone)

	w, resp := doJSON(t, r, "GET", "/entries", nil)
	assert.Equal(t, 503, w.Code)
	assert.Equal(t, float64(503), resp["code"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryHandler_DefaultCannotBeDeleted(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)
	food := categoryID(t, db, models.TransactionExpense, models.DefaultExpenseCategories[0].Name)

	w, resp := doJSON(t, r, "DELETE", "/categories/"+food, nil)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "默认类别不可删除", resp["message"])

	w, resp = doJSON(t, r, "POST", "/categories", gin.H{"name": "宠物", "type": "expense"})
	require.Equal(t, 200, w.Code)
	custom := resp["data"].(map[string]interface{})
	assert.Equal(t, true, custom["is_custom"])

	w, _ = doJSON(t, r, "DELETE", fmt.Sprintf("/categories/%s", custom["id"]), nil)
	assert.Equal(t, 200, w.Code)

	w, resp = doJSON(t, r, "GET", "/categories?type=expense", nil)
	require.Equal(t, 200, w.Code)
	assert.Len(t, resp["data"], len(models.DefaultExpenseCategories))

	w, _ = doJSON(t, r, "GET", "/categories?type=bogus", nil)
	assert.Equal(t, 400, w.Code)
}

func TestAnalyticsHandler_CategoriesAndFlow(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)
	a := categoryID(t, db, models.TransactionExpense, models.DefaultExpenseCategories[0].Name)
	b := categoryID(t, db, models.TransactionExpense, models.DefaultExpenseCategories[1].Name)
	salary := categoryID(t, db, models.TransactionIncome, models.DefaultIncomeCategories[0].Name)

	for _, body := range []gin.H{
		{"amount": 70, "category_id": a, "date": "2024-01-01"},
		{"amount": 30, "category_id": b, "date": "2024-01-02"},
		{"amount": 1000, "category_id": salary, "type": "income", "date": "2024-01-05"},
	} {
		w, _ := doJSON(t, r, "POST", "/entries", body)
		require.Equal(t, 200, w.Code, w.Body.String())
	}
	var fund models.InvestmentType
	require.NoError(t, db.First(&fund).Error)
	w, _ := doJSON(t, r, "POST", "/investments", gin.H{"name": "指数基金", "type_id": fund.ID, "amount": 200, "date": "2024-01-10"})
	require.Equal(t, 200, w.Code, w.Body.String())

	w, resp := doJSON(t, r, "GET", "/analytics/categories?type=expense", nil)
	require.Equal(t, 200, w.Code)
	totals := resp["data"].([]interface{})
	require.Len(t, totals, 2)
	assert.Equal(t, a, totals[0].(map[string]interface{})["category_id"])
	assert.InDelta(t, 70, totals[0].(map[string]interface{})["percentage"], 1e-9)

	w, resp = doJSON(t, r, "GET", "/analytics/average-daily?type=expense", nil)
	require.Equal(t, 200, w.Code)
	assert.InDelta(t, 50, resp["data"].(map[string]interface{})["average_daily"], 1e-9)

	w, resp = doJSON(t, r, "GET", "/money-flow?start_date=2024-01-01&end_date=2024-01-31", nil)
	require.Equal(t, 200, w.Code)
	flow := resp["data"].(map[string]interface{})
	assert.InDelta(t, 700, flow["liquid_savings"], 1e-9)
	assert.InDelta(t, 20, flow["investment_percentage"], 1e-9)

	w, resp = doJSON(t, r, "GET", "/money-flow/monthly?year=2024", nil)
	require.Equal(t, 200, w.Code)
	assert.Len(t, resp["data"], 12)

	w, resp = doJSON(t, r, "GET", "/transactions?limit=2", nil)
	require.Equal(t, 200, w.Code)
	txs := resp["data"].([]interface{})
	require.Len(t, txs, 2)
	assert.Equal(t, "investment", txs[0].(map[string]interface{})["type"])
	assert.Equal(t, "income", txs[1].(map[string]interface{})["type"])
}

func TestAnalyticsHandler_BadParams(t *testing.T) {
	db, mock := setupMockDB(t)
	r := newTestRouter(db)

	for _, path := range []string{
		"/transactions?kind=transfer",
		"/transactions?limit=-1",
		"/money-flow/monthly?year=abc",
		"/analytics/categories?type=loan",
	} {
		w, _ := doJSON(t, r, "GET", path, nil)
		assert.Equal(t, 400, w.Code, path)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPortfolioHandler_RecordAndSummary(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)
	var fund models.InvestmentType
	require.NoError(t, db.First(&fund).Error)

	w, _ := doJSON(t, r, "POST", "/investments", gin.H{"name": "Gold", "type_id": fund.ID, "amount": 1000, "date": "2020-01-01"})
	require.Equal(t, 200, w.Code, w.Body.String())

	w, resp := doJSON(t, r, "GET", "/portfolio", nil)
	require.Equal(t, 200, w.Code)
	items := resp["data"].(map[string]interface{})["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Nil(t, items[0].(map[string]interface{})["current_value"])

	w, _ = doJSON(t, r, "POST", "/portfolio/Gold/values", gin.H{"current_value": 1500})
	require.Equal(t, 200, w.Code, w.Body.String())

	w, resp = doJSON(t, r, "GET", "/portfolio", nil)
	require.Equal(t, 200, w.Code)
	sum := resp["data"].(map[string]interface{})
	assert.InDelta(t, 500, sum["total_profit"], 1e-9)
	item := sum["items"].([]interface{})[0].(map[string]interface{})
	assert.InDelta(t, 50, item["profit_percentage"], 1e-9)
	assert.NotNil(t, item["cagr"])

	w, resp = doJSON(t, r, "GET", "/portfolio/Gold", nil)
	require.Equal(t, 200, w.Code)
	assert.Len(t, resp["data"].(map[string]interface{})["history"], 1)

	w, _ = doJSON(t, r, "POST", "/portfolio/Silver/values", gin.H{"current_value": 10})
	assert.Equal(t, 404, w.Code)
	w, _ = doJSON(t, r, "POST", "/portfolio/Gold/values", gin.H{"current_value": -1})
	assert.Equal(t, 400, w.Code)
	w, _ = doJSON(t, r, "GET", "/portfolio/Silver", nil)
	assert.Equal(t, 404, w.Code)
}

func TestExportHandler(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)
	food := categoryID(t, db, models.TransactionExpense, models.DefaultExpenseCategories[0].Name)
	w, _ := doJSON(t, r, "POST", "/entries", gin.H{"title": "午餐", "amount": 35.5, "category_id": food, "date": "2024-01-15"})
	require.Equal(t, 200, w.Code)

	req := httptest.NewRequest("GET", "/export/csv?kind=both", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "moneyflow_all_")
	assert.Contains(t, w.Body.String(), "=== EXPENSES ===")
	assert.Contains(t, w.Body.String(), "午餐")

	req = httptest.NewRequest("GET", "/export/xlsx?kind=expenses", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	req = httptest.NewRequest("GET", "/export/csv?kind=everything", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, 400, w.Code)
}

func TestFail_StatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: bad", store.ErrInvalidInput), 400},
		{store.ErrDefaultCategory, 400},
		{fmt.Errorf("%w: x", store.ErrNotFound), 404},
		{database.Classify(sql.ErrConnDone), 503},
		{errors.New("boom"), 500},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/", nil).WithContext(context.Background())
		Fail(c, tt.err, "失败")
		assert.Equal(t, tt.code, w.Code, tt.err.Error())
	}
}
