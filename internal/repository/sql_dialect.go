package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// insertIgnoreClause 构建“重复则忽略”的插入子句。
// mysql 直接使用 INSERT IGNORE，其余方言使用 ON CONFLICT DO NOTHING。
func insertIgnoreClause(db *gorm.DB, conflictColumns ...string) clause.Expression {
	return insertIgnoreClauseByDialect(dbDialectName(db), conflictColumns...)
}

func insertIgnoreClauseByDialect(dialect string, conflictColumns ...string) clause.Expression {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "mysql", "mariadb":
		return clause.Insert{Modifier: "IGNORE"}
	default:
		return clause.OnConflict{
			Columns:   toClauseColumns(conflictColumns),
			DoNothing: true,
		}
	}
}

// upsertValueClause 构建 (attribute_id, entity_id) 冲突时覆盖 value 的子句。
func upsertValueClause() clause.Expression {
	return clause.OnConflict{
		Columns:   toClauseColumns([]string{"attribute_id", "entity_id"}),
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}
}

func toClauseColumns(names []string) []clause.Column {
	columns := make([]clause.Column, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		columns = append(columns, clause.Column{Name: trimmed})
	}
	return columns
}
