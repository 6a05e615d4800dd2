package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/catalog-feed/internal/constants"
	"github.com/catalog-feed/internal/models"
	"github.com/catalog-feed/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type reindexPublisherStub struct {
	batches [][]uint
	err     error
}

func (s *reindexPublisherStub) EnqueueProductReindex(_ string, productIDs []uint, _ ...asynq.Option) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.batches = append(s.batches, append([]uint(nil), productIDs...))
	return 1, nil
}

type catalogFixture struct {
	db         *gorm.DB
	service    *CatalogUpdateService
	publisher  *reindexPublisherStub
	stockQuery *StockQueryService
	snapshots  *memorySnapshots
	products   map[string]*models.Product
}

func setupCatalogUpdateServiceTest(t *testing.T, options CatalogUpdateOptions) *catalogFixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &catalogFixture{
		db:        db,
		publisher: &reindexPublisherStub{},
		snapshots: newMemorySnapshots(),
		products:  make(map[string]*models.Product),
	}
	f.stockQuery = NewStockQueryService(repository.NewProductRepository(db), repository.NewStockItemRepository(db), 0)
	f.stockQuery.snapshots = f.snapshots
	f.service = NewCatalogUpdateService(
		repository.NewProductRepository(db),
		repository.NewStockItemRepository(db),
		repository.NewSuperLinkRepository(db),
		repository.NewProductWebsiteRepository(db),
		NewAttributeService(repository.NewAttributeRepository(db)),
		f.publisher,
		NewLocalParentLocker(),
		f.stockQuery,
		options,
	)
	return f
}

func (f *catalogFixture) product(t *testing.T, sku, typeID string, qty int64) *models.Product {
	t.Helper()
	product := &models.Product{SKU: sku, TypeID: typeID}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("create product %s failed: %v", sku, err)
	}
	item := &models.StockItem{ProductID: product.ID, Qty: models.NewQuantityFromInt(qty), IsInStock: qty > 0}
	if err := f.db.Create(item).Error; err != nil {
		t.Fatalf("create stock %s failed: %v", sku, err)
	}
	f.products[sku] = product
	return product
}

func (f *catalogFixture) link(t *testing.T, child, parent string) {
	t.Helper()
	link := &models.SuperLink{ProductID: f.products[child].ID, ParentID: f.products[parent].ID}
	if err := f.db.Create(link).Error; err != nil {
		t.Fatalf("link %s -> %s failed: %v", child, parent, err)
	}
}

func (f *catalogFixture) stock(t *testing.T, sku string) models.StockItem {
	t.Helper()
	var item models.StockItem
	if err := f.db.Where("product_id = ?", f.products[sku].ID).First(&item).Error; err != nil {
		t.Fatalf("load stock %s failed: %v", sku, err)
	}
	return item
}

func TestApplyRecomputesParentWhenLastChildSellsOut(t *testing.T) {
	f := setupCatalogUpdateServiceTest(t, CatalogUpdateOptions{ReindexEnabled: true})
	f.product(t, "TEE", constants.ProductTypeConfigurable, 0)
	f.product(t, "TEE-S", constants.ProductTypeSimple, 0)
	f.product(t, "TEE-M", constants.ProductTypeSimple, 3)
	f.link(t, "TEE-S", "TEE")
	f.link(t, "TEE-M", "TEE")
	if err := f.db.Model(&models.StockItem{}).Where("product_id = ?", f.products["TEE"].ID).Update("is_in_stock", true).Error; err != nil {
		t.Fatalf("prime parent flag failed: %v", err)
	}

	result, err := f.service.Apply(context.Background(), []UpdateItem{
		{SKU: "TEE-M", Fields: []FieldUpdate{{Code: "qty", Value: 0}}},
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.Updated != 1 || result.HasSkipped() {
		t.Fatalf("unexpected result: %+v", result)
	}

	child := f.stock(t, "TEE-M")
	if !child.Qty.IsZero() || child.IsInStock {
		t.Fatalf("child should be out of stock, got qty=%s in_stock=%v", child.Qty.String(), child.IsInStock)
	}
	parent := f.stock(t, "TEE")
	if parent.IsInStock {
		t.Fatalf("parent should recompute to out of stock")
	}

	wantIDs := []uint{f.products["TEE-M"].ID, f.products["TEE"].ID}
	if len(result.ProductIDs) != 2 || result.ProductIDs[0] != wantIDs[0] || result.ProductIDs[1] != wantIDs[1] {
		t.Fatalf("product ids want %v got %v", wantIDs, result.ProductIDs)
	}
	if len(f.publisher.batches) != 1 || len(f.publisher.batches[0]) != 2 {
		t.Fatalf("touched products should be flushed once, got %v", f.publisher.batches)
	}
	if result.ReindexTasks != 1 {
		t.Fatalf("reindex tasks want 1 got %d", result.ReindexTasks)
	}
}

func TestApplyRestockKeepsParentQuantity(t *testing.T) {
	f := setupCatalogUpdateServiceTest(t, CatalogUpdateOptions{})
	f.product(t, "TEE", constants.ProductTypeConfigurable, 0)
	f.product(t, "TEE-S", constants.ProductTypeSimple, 2)
	f.link(t, "TEE-S", "TEE")

	if _, err := f.service.Apply(context.Background(), []UpdateItem{
		{SKU: "TEE-S", Fields: []FieldUpdate{{Code: "qty", Value: "5"}}},
	}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	parent := f.stock(t, "TEE")
	if !parent.IsInStock {
		t.Fatalf("parent should be in stock")
	}
	if !parent.Qty.IsZero() {
		t.Fatalf("parent quantity must not be touched, got %s", parent.Qty.String())
	}
	if len(f.publisher.batches) != 0 {
		t.Fatalf("reindex disabled, nothing should be enqueued")
	}
}

func TestApplySkipsUnknownSKUAndContinues(t *testing.T) {
	f := setupCatalogUpdateServiceTest(t, CatalogUpdateOptions{})
	f.product(t, "KNOWN", constants.ProductTypeSimple, 0)

	result, err := f.service.Apply(context.Background(), []UpdateItem{
		{SKU: "NOPE", Fields: []FieldUpdate{{Code: "qty", Value: 1}}},
		{SKU: "KNOWN", Fields: []FieldUpdate{{Code: "qty", Value: 1}, {Code: "qty", Value: "many"}}},
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.Skipped != 1 || result.Updated != 1 || result.FieldsSkipped != 1 {
		t.Fatalf("unexpected counters: %+v", result)
	}
	if len(result.Errors) != 2 || result.Errors[0] != "SKU NOPE skipped: Product not found" {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if !strings.HasPrefix(result.Errors[1], `SKU KNOWN: field "qty" skipped:`) {
		t.Fatalf("unexpected field error: %s", result.Errors[1])
	}
	if item := f.stock(t, "KNOWN"); !item.Qty.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("valid field should be applied, got %s", item.Qty.String())
	}
	if len(result.ProductIDs) != 1 || result.ProductIDs[0] != f.products["KNOWN"].ID {
		t.Fatalf("only resolved products should be registered, got %v", result.ProductIDs)
	}
}

func TestApplyWebsiteAssignmentTwiceKeepsOneRow(t *testing.T) {
	f := setupCatalogUpdateServiceTest(t, CatalogUpdateOptions{})
	f.product(t, "WEB", constants.ProductTypeSimple, 0)
	items := []UpdateItem{{SKU: "WEB", Fields: []FieldUpdate{{Code: "website_id", Value: []interface{}{1}}}}}

	for i := 0; i < 2; i++ {
		result, err := f.service.Apply(context.Background(), items)
		if err != nil || result.HasSkipped() {
			t.Fatalf("apply #%d failed: err=%v result=%+v", i+1, err, result)
		}
	}
	var count int64
	if err := f.db.Model(&models.ProductWebsite{}).Where("product_id = ?", f.products["WEB"].ID).Count(&count).Error; err != nil {
		t.Fatalf("count websites failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("want one association row got %d", count)
	}
}

func TestApplyWritesAttributes(t *testing.T) {
	f := setupCatalogUpdateServiceTest(t, CatalogUpdateOptions{})
	product := f.product(t, "ATTR", constants.ProductTypeSimple, 0)
	attributes := []models.Attribute{
		{AttributeCode: "name", BackendType: constants.BackendTypeVarchar},
		{AttributeCode: "price", BackendType: constants.BackendTypeDecimal},
	}
	if err := f.db.Create(&attributes).Error; err != nil {
		t.Fatalf("create attributes failed: %v", err)
	}

	result, err := f.service.Apply(context.Background(), []UpdateItem{{SKU: "ATTR", Fields: []FieldUpdate{
		{Code: "name", Value: "Linen Shirt"},
		{Code: "price", Value: "49.90"},
		{Code: "color", Value: "blue"},
	}}})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0] != `SKU ATTR: field "color" skipped: attribute not found: "color"` {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	var name models.ProductVarcharValue
	if err := f.db.Where("entity_id = ? AND attribute_id = ?", product.ID, attributes[0].ID).First(&name).Error; err != nil {
		t.Fatalf("load name failed: %v", err)
	}
	if name.Value != "Linen Shirt" {
		t.Fatalf("name want Linen Shirt got %s", name.Value)
	}
	var price models.ProductDecimalValue
	if err := f.db.Where("entity_id = ? AND attribute_id = ?", product.ID, attributes[1].ID).First(&price).Error; err != nil {
		t.Fatalf("load price failed: %v", err)
	}
	if !price.Value.Equal(decimal.RequireFromString("49.9")) {
		t.Fatalf("price want 49.9 got %s", price.Value.String())
	}
}

func TestApplyRejectsEmptyAndOversizedBatches(t *testing.T) {
	f := setupCatalogUpdateServiceTest(t, CatalogUpdateOptions{MaxItemsPerRequest: 1})
	if _, err := f.service.Apply(context.Background(), nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("want ErrEmptyBatch got %v", err)
	}
	items := []UpdateItem{{SKU: "A"}, {SKU: "B"}}
	if _, err := f.service.Apply(context.Background(), items); !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("want ErrBatchTooLarge got %v", err)
	}
}

func TestApplyKeepsResultWhenReindexFails(t *testing.T) {
	f := setupCatalogUpdateServiceTest(t, CatalogUpdateOptions{ReindexEnabled: true})
	f.product(t, "A", constants.ProductTypeSimple, 0)
	f.publisher.err = errors.New("redis down")

	result, err := f.service.Apply(context.Background(), []UpdateItem{{SKU: "A", Fields: []FieldUpdate{{Code: "qty", Value: 2}}}})
	if err != nil {
		t.Fatalf("reindex failure should not fail the batch: %v", err)
	}
	if result.ReindexTasks != 0 || result.Updated != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestApplyStopsOnCancelledContext(t *testing.T) {
	f := setupCatalogUpdateServiceTest(t, CatalogUpdateOptions{})
	f.product(t, "A", constants.ProductTypeSimple, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.service.Apply(ctx, []UpdateItem{{SKU: "A", Fields: []FieldUpdate{{Code: "qty", Value: 2}}}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled got %v", err)
	}
	if result == nil || result.Updated != 0 {
		t.Fatalf("no item should be applied after cancel: %+v", result)
	}
}
