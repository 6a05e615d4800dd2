package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/catalog-feed/internal/constants"
	"github.com/catalog-feed/internal/logger"
	"github.com/catalog-feed/internal/repository"
)

// ReindexRegistry 记录本批次触达的商品，供下游重建索引
type ReindexRegistry interface {
	AddProduct(productID uint)
}

// ErrorCollector 收集批次中被跳过的字段/商品
type ErrorCollector interface {
	AddError(message string)
}

// AttributeUpdater 单个属性的写入能力
type AttributeUpdater interface {
	UpdateValue(productID uint, value interface{}) error
}

// AttributeResolver 按属性编码定位属性存储
type AttributeResolver interface {
	ResolveAttribute(code string) (AttributeUpdater, error)
}

// ProductUpdateDeps 商品字段更新依赖
type ProductUpdateDeps struct {
	ProductRepo   repository.ProductRepository
	StockRepo     repository.StockItemRepository
	SuperLinkRepo repository.SuperLinkRepository
	WebsiteRepo   repository.ProductWebsiteRepository
	Attributes    AttributeResolver
	Reindex       ReindexRegistry
	Errors        ErrorCollector
	ParentLocker  ParentLocker
	// IsolateParentFailures 为 true 时单个父商品失败不影响其余父商品
	IsolateParentFailures bool
}

// ProductHandle 单个 SKU 在一个批次内的更新句柄，不可跨 goroutine 使用
type ProductHandle struct {
	deps       ProductUpdateDeps
	propagator *StockPropagator
	sku        string
	id         uint

	parentsLoaded bool
	parentIDs     []uint
}

// NewProductHandle 解析 SKU 并创建更新句柄
func NewProductHandle(deps ProductUpdateDeps, sku string) (*ProductHandle, error) {
	if deps.ProductRepo == nil {
		return nil, errors.New("product repository is required")
	}
	code := strings.TrimSpace(sku)
	id, err := deps.ProductRepo.FindIDBySKU(code)
	if err != nil {
		return nil, wrapStorage(fmt.Sprintf("resolve sku %s", code), err)
	}
	if id == 0 {
		return nil, &SKUNotFoundError{SKU: code}
	}
	handle := &ProductHandle{
		deps: deps,
		sku:  code,
		id:   id,
		propagator: NewStockPropagator(
			deps.StockRepo,
			deps.Reindex,
			deps.ParentLocker,
			deps.IsolateParentFailures,
		),
	}
	handle.register(id)
	return handle, nil
}

// SKU 外部编码
func (h *ProductHandle) SKU() string {
	return h.sku
}

// ID 内部商品ID
func (h *ProductHandle) ID() uint {
	return h.id
}

// UpdateField 更新单个字段，失败写入错误收集器，不向调用方返回错误
func (h *ProductHandle) UpdateField(code string, value interface{}) {
	if err := h.applyField(code, value); err != nil {
		logger.Warnw("catalog_update_field_skipped",
			"sku", h.sku,
			"product_id", h.id,
			"field", code,
			"error", err,
		)
		h.report(fmt.Sprintf("SKU %s: field %q skipped: %s", h.sku, code, err.Error()))
	}
}

func (h *ProductHandle) applyField(code string, value interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()
	switch code {
	case constants.FieldQty:
		return h.updateStock(value)
	case constants.FieldWebsiteID:
		return h.updateWebsiteIDs(value)
	default:
		return h.updateAttribute(code, value)
	}
}

func (h *ProductHandle) updateStock(value interface{}) error {
	qty, err := normalizeStockQuantity(value)
	if err != nil {
		return err
	}
	inStock := isInStock(qty)
	affected, err := h.deps.StockRepo.UpdateQuantityAndStatus(h.id, qty, inStock)
	if err != nil {
		return wrapStorage("update stock item", err)
	}
	if affected == 0 {
		logger.Warnw("catalog_stock_item_missing", "sku", h.sku, "product_id", h.id)
	}

	hasParents, err := h.HasParents()
	if err != nil {
		return err
	}
	if !hasParents {
		return nil
	}
	return h.propagator.PropagateParents(h.parentIDs)
}

func (h *ProductHandle) updateWebsiteIDs(value interface{}) error {
	items, ok := toSequence(value)
	if !ok {
		return newInvalidValue("website_id value must be an array")
	}
	if len(items) == 0 {
		return newInvalidValue("website_id value must be a non-empty array")
	}
	for _, item := range items {
		websiteID, ok := toInteger(item)
		if !ok || websiteID < 0 {
			return newInvalidValue("website_id values must be integers")
		}
		if err := h.deps.WebsiteRepo.InsertIgnore(h.id, uint(websiteID)); err != nil {
			return wrapStorage("assign website", err)
		}
	}
	return nil
}

func (h *ProductHandle) updateAttribute(code string, value interface{}) error {
	if h.deps.Attributes == nil {
		return fmt.Errorf("%w: %q", ErrAttributeNotFound, code)
	}
	updater, err := h.deps.Attributes.ResolveAttribute(code)
	if err != nil {
		return err
	}
	return updater.UpdateValue(h.id, value)
}

// HasParents 是否存在父商品（首次调用时加载）
func (h *ProductHandle) HasParents() (bool, error) {
	ids, err := h.ParentIDs()
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// ParentIDs 父商品ID，每个句柄最多查询一次
func (h *ProductHandle) ParentIDs() ([]uint, error) {
	if h.parentsLoaded {
		return h.parentIDs, nil
	}
	ids, err := h.deps.SuperLinkRepo.ListParentIDs(h.id)
	if err != nil {
		return nil, wrapStorage("load parent links", err)
	}
	if len(ids) == 0 {
		ids = nil
	}
	h.parentIDs = ids
	h.parentsLoaded = true
	return h.parentIDs, nil
}

func (h *ProductHandle) register(productID uint) {
	if h.deps.Reindex != nil {
		h.deps.Reindex.AddProduct(productID)
	}
}

func (h *ProductHandle) report(message string) {
	if h.deps.Errors != nil {
		h.deps.Errors.AddError(message)
	}
}
