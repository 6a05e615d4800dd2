package service

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/catalog-feed/internal/constants"
	"github.com/catalog-feed/internal/models"
	"github.com/catalog-feed/internal/repository"
)

const varcharMaxRunes = 255

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// AttributeService 普通属性（EAV）更新服务
type AttributeService struct {
	repo repository.AttributeRepository

	mu    sync.RWMutex
	known map[string]*models.Attribute
}

// NewAttributeService 创建属性服务
func NewAttributeService(repo repository.AttributeRepository) *AttributeService {
	return &AttributeService{
		repo:  repo,
		known: make(map[string]*models.Attribute),
	}
}

// ResolveAttribute 按属性编码获取写入器，结果在服务生命周期内缓存
func (s *AttributeService) ResolveAttribute(code string) (AttributeUpdater, error) {
	attribute, err := s.lookup(code)
	if err != nil {
		return nil, err
	}
	return &attributeWriter{repo: s.repo, attribute: attribute}, nil
}

func (s *AttributeService) lookup(code string) (*models.Attribute, error) {
	key := strings.TrimSpace(code)
	s.mu.RLock()
	attribute, ok := s.known[key]
	s.mu.RUnlock()
	if ok {
		return attribute, nil
	}

	attribute, err := s.repo.GetByCode(key)
	if err != nil {
		return nil, wrapStorage(fmt.Sprintf("load attribute %s", key), err)
	}
	if attribute == nil {
		return nil, fmt.Errorf("%w: %q", ErrAttributeNotFound, key)
	}
	s.mu.Lock()
	s.known[key] = attribute
	s.mu.Unlock()
	return attribute, nil
}

type attributeWriter struct {
	repo      repository.AttributeRepository
	attribute *models.Attribute
}

// UpdateValue 按存储类型转换后写入
func (w *attributeWriter) UpdateValue(productID uint, value interface{}) error {
	converted, err := convertAttributeValue(w.attribute, value)
	if err != nil {
		return err
	}
	if err := w.repo.UpsertValue(w.attribute, productID, converted); err != nil {
		return wrapStorage(fmt.Sprintf("write attribute %s", w.attribute.AttributeCode), err)
	}
	return nil
}

func convertAttributeValue(attribute *models.Attribute, value interface{}) (interface{}, error) {
	code := attribute.AttributeCode
	if value == nil {
		return nil, newInvalidValue("attribute %s cannot be set to null", code)
	}
	switch attribute.BackendType {
	case constants.BackendTypeVarchar:
		text, ok := toText(value)
		if !ok {
			return nil, newInvalidValue("attribute %s expects a text value", code)
		}
		if utf8.RuneCountInString(text) > varcharMaxRunes {
			return nil, newInvalidValue("attribute %s value exceeds %d characters", code, varcharMaxRunes)
		}
		return text, nil
	case constants.BackendTypeText:
		text, ok := toText(value)
		if !ok {
			return nil, newInvalidValue("attribute %s expects a text value", code)
		}
		return text, nil
	case constants.BackendTypeInt:
		number, ok := toInteger(value)
		if !ok {
			return nil, newInvalidValue("attribute %s expects an integer value", code)
		}
		return number, nil
	case constants.BackendTypeDecimal:
		amount, ok := toDecimal(value)
		if !ok {
			return nil, newInvalidValue("attribute %s expects a numeric value", code)
		}
		return amount, nil
	case constants.BackendTypeDatetime:
		at, ok := toTime(value)
		if !ok {
			return nil, newInvalidValue("attribute %s expects a datetime value", code)
		}
		return at, nil
	default:
		return nil, fmt.Errorf("attribute %s has unsupported backend type %q", code, attribute.BackendType)
	}
}

// toText 接受字符串与数字，其余类型视为非法
func toText(value interface{}) (string, bool) {
	if text, ok := value.(string); ok {
		return text, true
	}
	if _, ok := toSequence(value); ok {
		return "", false
	}
	if number, ok := toDecimal(value); ok {
		return number.String(), true
	}
	return "", false
}

func toTime(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), true
	case string:
		trimmed := strings.TrimSpace(v)
		for _, layout := range datetimeLayouts {
			if at, err := time.Parse(layout, trimmed); err == nil {
				return at.UTC(), true
			}
		}
	}
	return time.Time{}, false
}
