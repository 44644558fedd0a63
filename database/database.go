package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"moneyflow/config"
	"moneyflow/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrStoreUnavailable 存储未初始化或连接已断开
// 引擎层不会把该错误转换为空结果，调用方据此区分“没有数据”和“读不到数据”
var ErrStoreUnavailable = errors.New("store unavailable")

// Open 按配置创建数据库连接，返回显式持有的句柄（不使用包级全局变量）
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			cfg.Username,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
		)
		dialector = mysql.Open(dsn)
	case config.DriverSQLite, "":
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("创建数据目录失败: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if cfg.LogMode {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("%w: 连接数据库失败: %v", ErrStoreUnavailable, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if cfg.Driver == config.DriverMySQL {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	} else {
		// 单写者本地库
		sqlDB.SetMaxOpenConns(1)
		_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")
		_, _ = sqlDB.Exec("PRAGMA synchronous = NORMAL;")
	}

	return db, nil
}

// Init 打开数据库、迁移表结构并写入默认数据
func Init(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := Seed(context.Background(), db); err != nil {
		return nil, err
	}
	log.Println("数据库初始化成功")
	return db, nil
}

// Migrate 自动迁移数据库表
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Category{},
		&models.LedgerEntry{},
		&models.InvestmentType{},
		&models.InvestmentContribution{},
		&models.ValuationSnapshot{},
	); err != nil {
		return fmt.Errorf("迁移数据库失败: %w", Classify(err))
	}
	return nil
}

// Seed 初始化默认类别和投资类型（每种类型仅当表中没有该类型数据时写入）
func Seed(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)

	seedCategories := func(typ models.TransactionType, seeds []models.CategorySeed, startOrder int) error {
		var count int64
		if err := tx.Model(&models.Category{}).Where("type = ?", typ).Count(&count).Error; err != nil {
			return Classify(err)
		}
		if count > 0 {
			return nil
		}
		cats := make([]models.Category, 0, len(seeds))
		for i, s := range seeds {
			cats = append(cats, models.Category{
				Name:            s.Name,
				Icon:            s.Icon,
				Color:           s.Color,
				TransactionType: typ,
				IsActive:        true,
				SortOrder:       startOrder + i,
			})
		}
		return Classify(tx.Create(&cats).Error)
	}

	if err := seedCategories(models.TransactionExpense, models.DefaultExpenseCategories, 0); err != nil {
		return err
	}
	if err := seedCategories(models.TransactionIncome, models.DefaultIncomeCategories, len(models.DefaultExpenseCategories)); err != nil {
		return err
	}

	var typeCount int64
	if err := tx.Model(&models.InvestmentType{}).Count(&typeCount).Error; err != nil {
		return Classify(err)
	}
	if typeCount == 0 {
		types := make([]models.InvestmentType, 0, len(models.DefaultInvestmentTypes))
		for _, s := range models.DefaultInvestmentTypes {
			types = append(types, models.InvestmentType{Name: s.Name, Icon: s.Icon, IsActive: true})
		}
		if err := tx.Create(&types).Error; err != nil {
			return Classify(err)
		}
	}
	return nil
}

// Classify 把连接类错误归一为 ErrStoreUnavailable，其余错误原样返回
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStoreUnavailable):
		return err
	case errors.Is(err, sql.ErrConnDone),
		errors.Is(err, driver.ErrBadConn),
		strings.Contains(err.Error(), "database is closed"):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
