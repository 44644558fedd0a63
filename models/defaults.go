package models

// CategorySeed 默认类别
type CategorySeed struct {
	Name  string
	Icon  string
	Color string
}

// InvestmentTypeSeed 默认投资类型
type InvestmentTypeSeed struct {
	Name string
	Icon string
}

// DefaultExpenseCategories 首次启动写入的支出类别
var DefaultExpenseCategories = []CategorySeed{
	{"Food & Dining", "restaurant", "#EF4444"},
	{"Groceries", "cart", "#F97316"},
	{"Transportation", "car", "#3B82F6"},
	{"Utilities", "flash", "#FBBF24"},
	{"Rent/Mortgage", "home", "#8B5CF6"},
	{"Shopping", "bag", "#EC4899"},
	{"Entertainment", "game-controller", "#06B6D4"},
	{"Health & Fitness", "fitness", "#10B981"},
	{"Personal Care", "body", "#F472B6"},
	{"Bills & Subscriptions", "receipt", "#6366F1"},
	{"Insurance", "shield-checkmark", "#14B8A6"},
	{"Education", "school", "#A855F7"},
	{"Travel", "airplane", "#0EA5E9"},
	{"Gifts & Donations", "gift", "#F43F5E"},
	{"Miscellaneous", "ellipsis-horizontal", "#6B7280"},
}

// DefaultIncomeCategories 首次启动写入的收入类别
var DefaultIncomeCategories = []CategorySeed{
	{"Salary", "briefcase", "#22C55E"},
	{"Freelance", "laptop", "#3B82F6"},
	{"Business", "storefront", "#F59E0B"},
	{"Investment Returns", "trending-up", "#A855F7"},
	{"Gifts", "gift", "#EC4899"},
	{"Other Income", "cash", "#64748B"},
}

// DefaultInvestmentTypes 首次启动写入的投资类型
var DefaultInvestmentTypes = []InvestmentTypeSeed{
	{"Stocks", "trending-up"},
	{"Mutual Funds", "pie-chart"},
	{"Crypto", "logo-bitcoin"},
	{"Gold", "diamond"},
	{"Bonds", "document-text"},
	{"Real Estate", "business"},
	{"Other", "cube"},
}

// 缺失关联时的展示名称
const (
	UncategorizedLabel = "Uncategorized"
	OtherTypeLabel     = "Other"
)
