package service

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/catalog-feed/internal/repository"

	"github.com/shopspring/decimal"
)

type productRepoStub struct {
	repository.ProductRepository
	ids map[string]uint
	err error
}

func (s productRepoStub) FindIDBySKU(sku string) (uint, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.ids[sku], nil
}

type stockWrite struct {
	productID uint
	qty       decimal.Decimal
	inStock   bool
}

type statusWrite struct {
	productID uint
	inStock   bool
}

type stockRepoStub struct {
	repository.StockItemRepository
	writes       []stockWrite
	statusWrites []statusWrite
	sumCalls     []uint
	sums         map[uint]decimal.Decimal
	sumErrs      map[uint]error
	writeErr     error
}

func (s *stockRepoStub) UpdateQuantityAndStatus(productID uint, qty decimal.Decimal, inStock bool) (int64, error) {
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	s.writes = append(s.writes, stockWrite{productID: productID, qty: qty, inStock: inStock})
	return 1, nil
}

func (s *stockRepoStub) UpdateStatus(productID uint, inStock bool) (int64, error) {
	s.statusWrites = append(s.statusWrites, statusWrite{productID: productID, inStock: inStock})
	return 1, nil
}

func (s *stockRepoStub) SumChildQuantity(parentID uint) (decimal.Decimal, error) {
	s.sumCalls = append(s.sumCalls, parentID)
	if err := s.sumErrs[parentID]; err != nil {
		return decimal.Zero, err
	}
	return s.sums[parentID], nil
}

type superLinkRepoStub struct {
	repository.SuperLinkRepository
	parents map[uint][]uint
	calls   int
}

func (s *superLinkRepoStub) ListParentIDs(childID uint) ([]uint, error) {
	s.calls++
	ids := make([]uint, 0)
	return append(ids, s.parents[childID]...), nil
}

type websiteRepoStub struct {
	repository.ProductWebsiteRepository
	inserts []uint
	err     error
}

func (s *websiteRepoStub) InsertIgnore(_ uint, websiteID uint) error {
	if s.err != nil {
		return s.err
	}
	s.inserts = append(s.inserts, websiteID)
	return nil
}

type countingRegistry struct {
	ids []uint
}

func (r *countingRegistry) AddProduct(productID uint) {
	r.ids = append(r.ids, productID)
}

type attributeResolverStub struct {
	updater AttributeUpdater
	err     error
}

func (s attributeResolverStub) ResolveAttribute(_ string) (AttributeUpdater, error) {
	return s.updater, s.err
}

type attributeUpdaterFunc func(productID uint, value interface{}) error

func (f attributeUpdaterFunc) UpdateValue(productID uint, value interface{}) error {
	return f(productID, value)
}

type handleFixture struct {
	stock    *stockRepoStub
	links    *superLinkRepoStub
	websites *websiteRepoStub
	registry *countingRegistry
	batch    *BatchRequest
	deps     ProductUpdateDeps
}

func newHandleFixture(parents map[uint][]uint) *handleFixture {
	f := &handleFixture{
		stock:    &stockRepoStub{sums: map[uint]decimal.Decimal{}, sumErrs: map[uint]error{}},
		links:    &superLinkRepoStub{parents: parents},
		websites: &websiteRepoStub{},
		registry: &countingRegistry{},
		batch:    NewBatchRequest(),
	}
	f.deps = ProductUpdateDeps{
		ProductRepo:   productRepoStub{ids: map[string]uint{"ABC123": 7, "LONE": 9}},
		StockRepo:     f.stock,
		SuperLinkRepo: f.links,
		WebsiteRepo:   f.websites,
		Reindex:       f.registry,
		Errors:        f.batch,
	}
	return f
}

func (f *handleFixture) handle(t *testing.T, sku string) *ProductHandle {
	t.Helper()
	handle, err := NewProductHandle(f.deps, sku)
	if err != nil {
		t.Fatalf("resolve %s failed: %v", sku, err)
	}
	return handle
}

func TestUpdateFieldQtyNonPositiveIsOutOfStock(t *testing.T) {
	values := []interface{}{-5, 0, "0", json.Number("-1.5"), -0.25, decimal.NewFromInt(-3)}
	for _, value := range values {
		f := newHandleFixture(nil)
		f.handle(t, "LONE").UpdateField("qty", value)

		if len(f.stock.writes) != 1 {
			t.Fatalf("value %v: want 1 stock write got %d", value, len(f.stock.writes))
		}
		write := f.stock.writes[0]
		if !write.qty.IsZero() || write.inStock {
			t.Fatalf("value %v: want qty=0 in_stock=false, got qty=%s in_stock=%v", value, write.qty.String(), write.inStock)
		}
		if f.batch.ErrorCount() != 0 {
			t.Fatalf("value %v: unexpected errors %v", value, f.batch.Errors())
		}
	}
}

func TestUpdateFieldQtyPositiveIsInStock(t *testing.T) {
	cases := []struct {
		value interface{}
		want  string
	}{
		{value: 3, want: "3"},
		{value: "2.5", want: "2.5"},
		{value: json.Number("4"), want: "4"},
		{value: 1.25, want: "1.25"},
		{value: uint8(9), want: "9"},
	}
	for _, tc := range cases {
		f := newHandleFixture(nil)
		f.handle(t, "LONE").UpdateField("qty", tc.value)

		if len(f.stock.writes) != 1 {
			t.Fatalf("value %v: want 1 stock write got %d", tc.value, len(f.stock.writes))
		}
		write := f.stock.writes[0]
		if !write.qty.Equal(decimal.RequireFromString(tc.want)) || !write.inStock {
			t.Fatalf("value %v: want qty=%s in_stock=true, got qty=%s in_stock=%v", tc.value, tc.want, write.qty.String(), write.inStock)
		}
	}
}

func TestUpdateFieldQtyNonNumericReportsOnce(t *testing.T) {
	values := []interface{}{"abc", nil, true, []int{1}, "", map[string]interface{}{"qty": 1}}
	for _, value := range values {
		f := newHandleFixture(map[uint][]uint{7: {50}})
		f.handle(t, "ABC123").UpdateField("qty", value)

		messages := f.batch.Errors()
		if len(messages) != 1 {
			t.Fatalf("value %v: want exactly one message got %v", value, messages)
		}
		if !strings.Contains(messages[0], "ABC123") || !strings.Contains(messages[0], `"qty"`) {
			t.Fatalf("value %v: message should name sku and field: %s", value, messages[0])
		}
		if !strings.Contains(messages[0], "Stock quantity cannot be set to non-numeric value") {
			t.Fatalf("value %v: unexpected detail: %s", value, messages[0])
		}
		if len(f.stock.writes) != 0 || len(f.stock.statusWrites) != 0 {
			t.Fatalf("value %v: no stock write expected", value)
		}
		if f.links.calls != 0 {
			t.Fatalf("value %v: parents should not be loaded", value)
		}
	}
}

func TestUpdateFieldQtyPropagatesToEveryParent(t *testing.T) {
	f := newHandleFixture(map[uint][]uint{7: {50, 51}})
	f.stock.sums[50] = decimal.NewFromInt(4)
	f.stock.sums[51] = decimal.Zero

	f.handle(t, "ABC123").UpdateField("qty", 4)

	if len(f.stock.writes) != 1 {
		t.Fatalf("want one child write got %d", len(f.stock.writes))
	}
	child := f.stock.writes[0]
	if child.productID != 7 || !child.qty.Equal(decimal.NewFromInt(4)) || !child.inStock {
		t.Fatalf("unexpected child write: %+v", child)
	}
	want := []statusWrite{{productID: 50, inStock: true}, {productID: 51, inStock: false}}
	if len(f.stock.statusWrites) != len(want) {
		t.Fatalf("want %d parent writes got %d", len(want), len(f.stock.statusWrites))
	}
	for i := range want {
		if f.stock.statusWrites[i] != want[i] {
			t.Fatalf("parent write %d want %+v got %+v", i, want[i], f.stock.statusWrites[i])
		}
	}
	if got := f.registry.ids; len(got) != 3 || got[0] != 7 || got[1] != 50 || got[2] != 51 {
		t.Fatalf("registrations want [7 50 51] got %v", got)
	}
	if f.batch.ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", f.batch.Errors())
	}
}

func TestUpdateFieldQtySingleParentRegisteredOnce(t *testing.T) {
	f := newHandleFixture(map[uint][]uint{7: {50}})
	f.stock.sums[50] = decimal.NewFromInt(5)

	f.handle(t, "ABC123").UpdateField("qty", 5)

	if len(f.stock.statusWrites) != 1 || f.stock.statusWrites[0] != (statusWrite{productID: 50, inStock: true}) {
		t.Fatalf("want one parent write with in_stock=true, got %+v", f.stock.statusWrites)
	}
	parentRegistrations := 0
	for _, id := range f.registry.ids {
		if id == 50 {
			parentRegistrations++
		}
	}
	if parentRegistrations != 1 {
		t.Fatalf("parent should be registered exactly once, got %d", parentRegistrations)
	}
}

func TestUpdateFieldQtyWithoutParentsSkipsPropagation(t *testing.T) {
	f := newHandleFixture(nil)
	f.handle(t, "LONE").UpdateField("qty", 2)

	if len(f.stock.writes) != 1 {
		t.Fatalf("want one child write got %d", len(f.stock.writes))
	}
	if len(f.stock.sumCalls) != 0 || len(f.stock.statusWrites) != 0 {
		t.Fatalf("no propagation expected, sums=%v status=%v", f.stock.sumCalls, f.stock.statusWrites)
	}
	if len(f.registry.ids) != 1 || f.registry.ids[0] != 9 {
		t.Fatalf("only the product itself should be registered, got %v", f.registry.ids)
	}
}

func TestParentIDsLoadedOncePerHandle(t *testing.T) {
	f := newHandleFixture(map[uint][]uint{7: {50}})
	handle := f.handle(t, "ABC123")
	handle.UpdateField("qty", 1)
	handle.UpdateField("qty", 2)
	if ok, err := handle.HasParents(); err != nil || !ok {
		t.Fatalf("has parents want true, got %v err=%v", ok, err)
	}
	if f.links.calls != 1 {
		t.Fatalf("parent links should be loaded once, got %d", f.links.calls)
	}

	lone := newHandleFixture(nil)
	loneHandle := lone.handle(t, "LONE")
	for i := 0; i < 3; i++ {
		if ok, err := loneHandle.HasParents(); err != nil || ok {
			t.Fatalf("lone product should have no parents, got %v err=%v", ok, err)
		}
	}
	if lone.links.calls != 1 {
		t.Fatalf("empty parent set should also be cached, got %d loads", lone.links.calls)
	}
}

func TestNewProductHandleTrimsSurroundingWhitespace(t *testing.T) {
	f := newHandleFixture(nil)
	handle := f.handle(t, " ABC123\t")
	if handle.SKU() != "ABC123" || handle.ID() != 7 {
		t.Fatalf("want ABC123/7 got %q/%d", handle.SKU(), handle.ID())
	}
	if _, err := NewProductHandle(f.deps, "abc123"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("sku match should stay case sensitive, got %v", err)
	}
}

func TestNewProductHandleUnknownSKU(t *testing.T) {
	f := newHandleFixture(nil)
	handle, err := NewProductHandle(f.deps, "MISSING")
	if handle != nil {
		t.Fatalf("handle should be nil for unknown sku")
	}
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound got %v", err)
	}
	var notFound *SKUNotFoundError
	if !errors.As(err, &notFound) || notFound.SKU != "MISSING" {
		t.Fatalf("error should carry sku, got %v", err)
	}
	if len(f.registry.ids) != 0 {
		t.Fatalf("unknown sku must not be registered, got %v", f.registry.ids)
	}
}

func TestNewProductHandleStorageFailure(t *testing.T) {
	deps := ProductUpdateDeps{ProductRepo: productRepoStub{err: errors.New("db down")}}
	_, err := NewProductHandle(deps, "ABC123")
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("want ErrStorage got %v", err)
	}
}

func TestUpdateFieldWebsiteIsIdempotentAndValidated(t *testing.T) {
	f := newHandleFixture(nil)
	handle := f.handle(t, "LONE")

	handle.UpdateField("website_id", []interface{}{json.Number("1"), json.Number("2")})
	if len(f.websites.inserts) != 2 || f.batch.ErrorCount() != 0 {
		t.Fatalf("valid website ids should be inserted, inserts=%v errors=%v", f.websites.inserts, f.batch.Errors())
	}

	handle.UpdateField("website_id", "1")
	handle.UpdateField("website_id", []interface{}{})
	messages := f.batch.Errors()
	if len(messages) != 2 {
		t.Fatalf("want 2 messages got %v", messages)
	}
	if !strings.HasSuffix(messages[0], "website_id value must be an array") {
		t.Fatalf("unexpected non-array message: %s", messages[0])
	}
	if !strings.HasSuffix(messages[1], "website_id value must be a non-empty array") {
		t.Fatalf("unexpected empty-array message: %s", messages[1])
	}
}

func TestUpdateFieldWebsiteStopsAtFirstInvalidElement(t *testing.T) {
	f := newHandleFixture(nil)
	f.handle(t, "LONE").UpdateField("website_id", []interface{}{1, "x", 3})

	if len(f.websites.inserts) != 1 || f.websites.inserts[0] != 1 {
		t.Fatalf("only the first element should be inserted, got %v", f.websites.inserts)
	}
	messages := f.batch.Errors()
	if len(messages) != 1 || !strings.Contains(messages[0], `SKU LONE: field "website_id" skipped: website_id values must be integers`) {
		t.Fatalf("unexpected messages: %v", messages)
	}
}

func TestParentFailureAbortsRemainingParentsByDefault(t *testing.T) {
	f := newHandleFixture(map[uint][]uint{7: {50, 51}})
	f.stock.sumErrs[50] = errors.New("deadlock")
	f.stock.sums[51] = decimal.NewFromInt(1)

	f.handle(t, "ABC123").UpdateField("qty", 1)

	if len(f.stock.writes) != 1 {
		t.Fatalf("child write should stay applied, got %d", len(f.stock.writes))
	}
	if len(f.stock.statusWrites) != 0 {
		t.Fatalf("no parent should be written after the first failure, got %+v", f.stock.statusWrites)
	}
	messages := f.batch.Errors()
	if len(messages) != 1 || !strings.Contains(messages[0], `field "qty" skipped`) || !strings.Contains(messages[0], "deadlock") {
		t.Fatalf("unexpected messages: %v", messages)
	}
}

func TestIsolatedParentFailuresAttemptEveryParent(t *testing.T) {
	f := newHandleFixture(map[uint][]uint{7: {50, 51, 52}})
	f.deps.IsolateParentFailures = true
	f.stock.sumErrs[50] = errors.New("deadlock on 50")
	f.stock.sumErrs[52] = errors.New("deadlock on 52")
	f.stock.sums[51] = decimal.NewFromInt(1)

	f.handle(t, "ABC123").UpdateField("qty", 1)

	if len(f.stock.statusWrites) != 1 || f.stock.statusWrites[0].productID != 51 {
		t.Fatalf("healthy parent should still be written, got %+v", f.stock.statusWrites)
	}
	messages := f.batch.Errors()
	if len(messages) != 1 {
		t.Fatalf("failures should be reported as one message, got %v", messages)
	}
	if !strings.Contains(messages[0], "deadlock on 50") || !strings.Contains(messages[0], "deadlock on 52") {
		t.Fatalf("joined message should name both failures: %s", messages[0])
	}
}

func TestUpdateFieldDelegatesToAttributes(t *testing.T) {
	f := newHandleFixture(nil)
	var gotID uint
	var gotValue interface{}
	f.deps.Attributes = attributeResolverStub{updater: attributeUpdaterFunc(func(productID uint, value interface{}) error {
		gotID = productID
		gotValue = value
		return nil
	})}

	f.handle(t, "LONE").UpdateField("name", "Shirt")
	if gotID != 9 || gotValue != "Shirt" {
		t.Fatalf("attribute update not delegated, id=%d value=%v", gotID, gotValue)
	}

	f.deps.Attributes = attributeResolverStub{err: errors.New(`attribute not found: "color"`)}
	f.handle(t, "LONE").UpdateField("color", "red")
	messages := f.batch.Errors()
	if len(messages) != 1 || messages[0] != `SKU LONE: field "color" skipped: attribute not found: "color"` {
		t.Fatalf("unexpected messages: %v", messages)
	}
}

func TestUpdateFieldRecoversPanics(t *testing.T) {
	f := newHandleFixture(nil)
	f.deps.Attributes = attributeResolverStub{updater: attributeUpdaterFunc(func(uint, interface{}) error {
		panic("boom")
	})}
	handle := f.handle(t, "LONE")
	handle.UpdateField("name", "x")
	handle.UpdateField("qty", 1)

	messages := f.batch.Errors()
	if len(messages) != 1 || !strings.Contains(messages[0], "boom") {
		t.Fatalf("panic should be reported as a skipped field, got %v", messages)
	}
	if len(f.stock.writes) != 1 {
		t.Fatalf("later fields should still be applied")
	}
}

func TestLocalParentLockerSerializesSameParent(t *testing.T) {
	locker := NewLocalParentLocker()
	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(50)
			if err != nil {
				t.Errorf("lock failed: %v", err)
				return
			}
			current := atomic.AddInt32(&active, 1)
			for {
				seen := atomic.LoadInt32(&maxActive)
				if current <= seen || atomic.CompareAndSwapInt32(&maxActive, seen, current) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
			unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxActive != 1 {
		t.Fatalf("same parent should be serialized, max concurrent holders %d", maxActive)
	}
	if len(locker.entries) != 0 {
		t.Fatalf("lock entries should be released, got %d", len(locker.entries))
	}
}
