package catalog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/catalog-feed/internal/config"
	"github.com/catalog-feed/internal/models"
	"github.com/catalog-feed/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupCatalogHandlerTest(t *testing.T, maxItems int) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
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

	cfg := &config.Config{}
	cfg.Import.MaxItemsPerRequest = maxItems
	h := New(provider.NewContainerWithDB(cfg, db))

	r := gin.New()
	r.POST("/updates", h.PostUpdates)
	r.GET("/products/:sku/stock", h.GetProductStock)
	return r, db
}

func seedChildAndParent(t *testing.T, db *gorm.DB) {
	t.Helper()
	parent := &models.Product{SKU: "TEE", TypeID: "configurable"}
	child := &models.Product{SKU: "TEE-M", TypeID: "simple"}
	for _, p := range []*models.Product{parent, child} {
		if err := db.Create(p).Error; err != nil {
			t.Fatalf("create product failed: %v", err)
		}
		if err := db.Create(&models.StockItem{ProductID: p.ID}).Error; err != nil {
			t.Fatalf("create stock failed: %v", err)
		}
	}
	if err := db.Create(&models.SuperLink{ProductID: child.ID, ParentID: parent.ID}).Error; err != nil {
		t.Fatalf("create link failed: %v", err)
	}
}

func doRequest(r *gin.Engine, method, path, body string) envelope {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	var resp envelope
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func TestPostUpdatesAppliesBatch(t *testing.T) {
	r, db := setupCatalogHandlerTest(t, 0)
	seedChildAndParent(t, db)

	resp := doRequest(r, http.MethodPost, "/updates", `{"items":[
		{"sku":"TEE-M","fields":{"qty":2}},
		{"sku":"GHOST","fields":{"qty":1}}
	]}`)
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var result struct {
		Updated    int      `json:"updated"`
		Skipped    int      `json:"skipped"`
		ProductIDs []uint   `json:"product_ids"`
		Errors     []string `json:"errors"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatalf("decode result failed: %v", err)
	}
	if result.Updated != 1 || result.Skipped != 1 || len(result.ProductIDs) != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0] != "SKU GHOST skipped: Product not found" {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	stock := doRequest(r, http.MethodGet, "/products/TEE/stock", "")
	if stock.StatusCode != 0 {
		t.Fatalf("stock query failed: %d %s", stock.StatusCode, stock.Msg)
	}
	var state struct {
		IsInStock bool `json:"is_in_stock"`
	}
	if err := json.Unmarshal(stock.Data, &state); err != nil {
		t.Fatalf("decode stock failed: %v", err)
	}
	if !state.IsInStock {
		t.Fatalf("parent should be in stock after child restock")
	}
}

func TestPostUpdatesRejectsBadRequests(t *testing.T) {
	r, _ := setupCatalogHandlerTest(t, 1)

	if resp := doRequest(r, http.MethodPost, "/updates", `{"items":`); resp.StatusCode != 400 {
		t.Fatalf("malformed body want 400 got %d", resp.StatusCode)
	}
	if resp := doRequest(r, http.MethodPost, "/updates", `{"items":[]}`); resp.StatusCode != 400 || resp.Msg != "update batch is empty" {
		t.Fatalf("empty batch want 400 got %d %s", resp.StatusCode, resp.Msg)
	}
	body := `{"items":[{"sku":"A","fields":{}},{"sku":"B","fields":{}}]}`
	if resp := doRequest(r, http.MethodPost, "/updates", body); resp.StatusCode != 413 {
		t.Fatalf("oversized batch want 413 got %d", resp.StatusCode)
	}
}

func TestGetProductStockUnknownSKU(t *testing.T) {
	r, _ := setupCatalogHandlerTest(t, 0)
	resp := doRequest(r, http.MethodGet, "/products/NOPE/stock", "")
	if resp.StatusCode != 404 || resp.Msg != "product not found" {
		t.Fatalf("want 404 product not found, got %d %s", resp.StatusCode, resp.Msg)
	}
}
