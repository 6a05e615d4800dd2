package constants

// 特殊字段编码（其余字段走通用属性更新）
const (
	FieldQty       = "qty"
	FieldWebsiteID = "website_id"
)

// 商品类型常量
const (
	ProductTypeSimple       = "simple"
	ProductTypeConfigurable = "configurable"
)

// 属性存储类型常量
const (
	BackendTypeVarchar  = "varchar"
	BackendTypeInt      = "int"
	BackendTypeDecimal  = "decimal"
	BackendTypeText     = "text"
	BackendTypeDatetime = "datetime"
)

// 父商品库存回算锁模式
const (
	ParentLockNone  = "none"
	ParentLockLocal = "local"
	ParentLockRedis = "redis"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskProductReindex = "catalog:product_reindex"
)

// 重建索引任务单次携带的最大商品数
const ReindexChunkSize = 500

// 单次更新请求默认允许的最大 SKU 数
const DefaultMaxItemsPerRequest = 1000
