package router

import (
	"time"

	"moneyflow/analytics"
	"moneyflow/api"
	"moneyflow/config"
	_ "moneyflow/docs"
	"moneyflow/middleware"
	"moneyflow/portfolio"
	"moneyflow/service"
	"moneyflow/store"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()
	// 持仓名称可含 "/"，按原始路径匹配后再解码 :name
	r.UseRawPath = true
	r.UnescapePathValues = true

	// CORS 中间件
	r.Use(CORSMiddleware())

	images := service.NewImageStore(cfg.Storage.ImageDir)
	ledger := store.NewLedgerStore(db, images)
	categories := store.NewCategoryRegistry(db)
	types := store.NewInvestmentTypeRegistry(db)
	investments := store.NewInvestmentStore(db, images)
	snapshots := store.NewSnapshotStore(db)

	engine := analytics.NewEngine(ledger, categories, investments, types)
	pf := portfolio.NewEngine(investments, snapshots, cfg.Portfolio.LookupConcurrency)

	entryHandler := api.NewEntryHandler(ledger)
	categoryHandler := api.NewCategoryHandler(categories, types)
	investmentHandler := api.NewInvestmentHandler(investments)
	analyticsHandler := api.NewAnalyticsHandler(engine)
	portfolioHandler := api.NewPortfolioHandler(pf)
	exportHandler := api.NewExportHandler(service.NewExporter(ledger, investments, pf))

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		// 收支记录
		entries := v1.Group("/entries")
		{
			entries.POST("", entryHandler.Create)
			entries.GET("", entryHandler.List)
			entries.GET("/:id", entryHandler.Get)
			entries.PUT("/:id", entryHandler.Update)
			entries.DELETE("/:id", entryHandler.Delete)
		}

		// 收支类别
		cats := v1.Group("/categories")
		{
			cats.GET("", categoryHandler.List)
			cats.POST("", categoryHandler.Create)
			cats.PUT("/order", categoryHandler.Reorder)
			cats.PUT("/:id", categoryHandler.Update)
			cats.DELETE("/:id", categoryHandler.Delete)
		}

		// 投资类型
		invTypes := v1.Group("/investment-types")
		{
			invTypes.GET("", categoryHandler.ListTypes)
			invTypes.POST("", categoryHandler.CreateType)
			invTypes.PUT("/:id", categoryHandler.UpdateType)
			invTypes.DELETE("/:id", categoryHandler.DeleteType)
		}

		// 投资记录
		invs := v1.Group("/investments")
		{
			invs.POST("", investmentHandler.Create)
			invs.GET("", investmentHandler.List)
			invs.GET("/:id", investmentHandler.Get)
			invs.PUT("/:id", investmentHandler.Update)
			invs.DELETE("/:id", investmentHandler.Delete)
		}

		// 统计
		stats := v1.Group("/analytics")
		{
			stats.GET("/categories", analyticsHandler.Categories)
			stats.GET("/daily", analyticsHandler.Daily)
			stats.GET("/monthly", analyticsHandler.Monthly)
			stats.GET("/yearly", analyticsHandler.Yearly)
			stats.GET("/total", analyticsHandler.Total)
			stats.GET("/average-daily", analyticsHandler.AverageDaily)
			stats.GET("/breakdown", analyticsHandler.Breakdown)
			stats.GET("/investment-types", analyticsHandler.InvestmentTypes)
			stats.GET("/overview", analyticsHandler.Overview)
		}
		v1.GET("/transactions", analyticsHandler.Transactions)

		// 资金流
		flow := v1.Group("/money-flow")
		{
			flow.GET("", analyticsHandler.MoneyFlow)
			flow.GET("/allocation", analyticsHandler.Allocation)
			flow.GET("/monthly", analyticsHandler.MonthlyFlow)
			flow.GET("/yearly", analyticsHandler.YearlyFlow)
		}

		// 持仓估值
		pfGroup := v1.Group("/portfolio")
		{
			pfGroup.GET("", portfolioHandler.Summary)
			pfGroup.GET("/:name", portfolioHandler.Holding)
			pfGroup.GET("/:name/values", portfolioHandler.Values)
			pfGroup.POST("/:name/values", portfolioHandler.RecordValue)
		}

		// 导出相关
		export := v1.Group("/export")
		export.Use(middleware.RateLimit(cfg.RateLimit.ExportPerMinute, time.Minute))
		{
			export.GET("/csv", exportHandler.ExportCSV)
			export.GET("/xlsx", exportHandler.ExportXLSX)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
