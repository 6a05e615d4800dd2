package main

import (
	"github.com/catalog-feed/internal/config"
	"github.com/catalog-feed/internal/constants"
	"github.com/catalog-feed/internal/logger"
	"github.com/catalog-feed/internal/models"

	"github.com/joho/godotenv"
	"gorm.io/gorm/clause"
)

type seedProduct struct {
	SKU    string
	TypeID string
	Qty    int64
	Parent string
}

func main() {
	_ = godotenv.Load()

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 属性定义
	attributes := []models.Attribute{
		{AttributeCode: "name", BackendType: constants.BackendTypeVarchar, FrontendLabel: "Name"},
		{AttributeCode: "description", BackendType: constants.BackendTypeText, FrontendLabel: "Description"},
		{AttributeCode: "price", BackendType: constants.BackendTypeDecimal, FrontendLabel: "Price"},
		{AttributeCode: "weight", BackendType: constants.BackendTypeDecimal, FrontendLabel: "Weight"},
		{AttributeCode: "status", BackendType: constants.BackendTypeInt, FrontendLabel: "Status"},
		{AttributeCode: "news_from_date", BackendType: constants.BackendTypeDatetime, FrontendLabel: "New From"},
	}
	for _, attr := range attributes {
		var existing models.Attribute
		if err := models.DB.Where("attribute_code = ?", attr.AttributeCode).First(&existing).Error; err == nil {
			stdLog.Printf("Attribute already exists: %s", attr.AttributeCode)
			continue
		}
		if err := models.DB.Create(&attr).Error; err != nil {
			stdLog.Printf("Failed to create attribute %s: %v", attr.AttributeCode, err)
		} else {
			stdLog.Printf("Created attribute: %s", attr.AttributeCode)
		}
	}

	// 商品：一个组合商品带三个子商品，外加一个独立商品
	products := []seedProduct{
		{SKU: "TSHIRT", TypeID: constants.ProductTypeConfigurable},
		{SKU: "TSHIRT-S", TypeID: constants.ProductTypeSimple, Qty: 4, Parent: "TSHIRT"},
		{SKU: "TSHIRT-M", TypeID: constants.ProductTypeSimple, Qty: 0, Parent: "TSHIRT"},
		{SKU: "TSHIRT-L", TypeID: constants.ProductTypeSimple, Qty: 12, Parent: "TSHIRT"},
		{SKU: "ABC123", TypeID: constants.ProductTypeSimple, Qty: 6},
	}

	ids := map[string]uint{}
	for _, item := range products {
		var prod models.Product
		if err := models.DB.Where("sku = ?", item.SKU).First(&prod).Error; err != nil {
			prod = models.Product{SKU: item.SKU, TypeID: item.TypeID}
			if err := models.DB.Create(&prod).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", item.SKU, err)
				continue
			}
			stdLog.Printf("Created product: %s", item.SKU)
		} else {
			stdLog.Printf("Product already exists: %s", item.SKU)
		}
		ids[item.SKU] = prod.ID

		stock := models.StockItem{
			ProductID: prod.ID,
			Qty:       models.NewQuantityFromInt(item.Qty),
			IsInStock: item.Qty > 0,
		}
		if err := models.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&stock).Error; err != nil {
			stdLog.Printf("Failed to create stock item %s: %v", item.SKU, err)
		}
	}

	// 子商品关联与父商品库存状态
	parentInStock := map[string]bool{}
	for _, item := range products {
		if item.Parent == "" {
			continue
		}
		childID, parentID := ids[item.SKU], ids[item.Parent]
		if childID == 0 || parentID == 0 {
			continue
		}
		link := models.SuperLink{ProductID: childID, ParentID: parentID}
		if err := models.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			stdLog.Printf("Failed to link %s -> %s: %v", item.SKU, item.Parent, err)
		}
		parentInStock[item.Parent] = parentInStock[item.Parent] || item.Qty > 0
	}
	for sku, inStock := range parentInStock {
		if err := models.DB.Model(&models.StockItem{}).
			Where("product_id = ?", ids[sku]).
			Update("is_in_stock", inStock).Error; err != nil {
			stdLog.Printf("Failed to update parent stock %s: %v", sku, err)
		}
	}

	// 默认站点
	for _, id := range ids {
		website := models.ProductWebsite{ProductID: id, WebsiteID: 1}
		if err := models.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&website).Error; err != nil {
			stdLog.Printf("Failed to assign website for product %d: %v", id, err)
		}
	}

	stdLog.Printf("Seed completed: %d products", len(ids))
}
