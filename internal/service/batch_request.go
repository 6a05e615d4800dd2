package service

import "sync"

// BatchRequest 一次批量更新的上下文：触达商品与跳过记录
type BatchRequest struct {
	mu         sync.Mutex
	productIDs []uint
	seen       map[uint]struct{}
	errors     []string
}

// NewBatchRequest 创建批次上下文
func NewBatchRequest() *BatchRequest {
	return &BatchRequest{seen: make(map[uint]struct{})}
}

// AddProduct 登记触达商品，按首次出现顺序去重
func (r *BatchRequest) AddProduct(productID uint) {
	if productID == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[productID]; ok {
		return
	}
	r.seen[productID] = struct{}{}
	r.productIDs = append(r.productIDs, productID)
}

// AddError 记录跳过信息
func (r *BatchRequest) AddError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

// ProductIDs 返回已登记商品ID的副本
func (r *BatchRequest) ProductIDs() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint, len(r.productIDs))
	copy(ids, r.productIDs)
	return ids
}

// Errors 返回跳过信息的副本
func (r *BatchRequest) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	messages := make([]string, len(r.errors))
	copy(messages, r.errors)
	return messages
}

// ErrorCount 跳过信息数量
func (r *BatchRequest) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}
