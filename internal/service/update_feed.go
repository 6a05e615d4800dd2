package service

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// FieldUpdate 单个字段更新
type FieldUpdate struct {
	Code  string
	Value interface{}
}

// UpdateItem 单个 SKU 的字段更新集合，字段按顺序应用
type UpdateItem struct {
	SKU    string
	Fields []FieldUpdate
}

type updateFeedDocument struct {
	Items []updateFeedItem `json:"items"`
}

type updateFeedItem struct {
	SKU    string                 `json:"sku"`
	Fields map[string]interface{} `json:"fields"`
}

// DecodeUpdateItems 解析更新文档 {"items":[{"sku":"A","fields":{"qty":3}}]}
// 数字保持 json.Number，字段按编码排序以保证应用顺序稳定。
func DecodeUpdateItems(r io.Reader) ([]UpdateItem, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	var doc updateFeedDocument
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpdateFeed, err)
	}
	items := make([]UpdateItem, 0, len(doc.Items))
	for i, raw := range doc.Items {
		sku := strings.TrimSpace(raw.SKU)
		if sku == "" {
			return nil, fmt.Errorf("%w: item %d has no sku", ErrInvalidUpdateFeed, i)
		}
		codes := make([]string, 0, len(raw.Fields))
		for code := range raw.Fields {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		fields := make([]FieldUpdate, 0, len(codes))
		for _, code := range codes {
			fields = append(fields, FieldUpdate{Code: code, Value: raw.Fields[code]})
		}
		items = append(items, UpdateItem{SKU: sku, Fields: fields})
	}
	return items, nil
}
