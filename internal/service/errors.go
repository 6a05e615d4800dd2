package service

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidValue      = errors.New("invalid value")
	ErrStorage           = errors.New("storage error")
	ErrAttributeNotFound = errors.New("attribute not found")
	ErrEmptyBatch        = errors.New("update batch is empty")
	ErrBatchTooLarge     = errors.New("update batch too large")
	ErrInvalidUpdateFeed = errors.New("invalid update feed")
)

// SKUNotFoundError SKU 无法解析为商品
type SKUNotFoundError struct {
	SKU string
}

func (e *SKUNotFoundError) Error() string {
	return fmt.Sprintf("SKU %s skipped: Product not found", e.SKU)
}

// Is 兼容 errors.Is(err, ErrProductNotFound)
func (e *SKUNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}

// InvalidValueError 字段值格式不合法
type InvalidValueError struct {
	Message string
}

func newInvalidValue(format string, args ...interface{}) *InvalidValueError {
	return &InvalidValueError{Message: fmt.Sprintf(format, args...)}
}

func (e *InvalidValueError) Error() string {
	return e.Message
}

// Is 兼容 errors.Is(err, ErrInvalidValue)
func (e *InvalidValueError) Is(target error) bool {
	return target == ErrInvalidValue
}

// StorageError 存储读写失败
type StorageError struct {
	Op  string
	Err error
}

func wrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Op + " failed: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is 兼容 errors.Is(err, ErrStorage)
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
