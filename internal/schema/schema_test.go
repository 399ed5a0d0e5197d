package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gormschema "gorm.io/gorm/schema"
)

func TestModelsHaveDistinctTables(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Models() {
		tb, ok := m.(gormschema.Tabler)
		if !assert.True(t, ok, "%T has no TableName", m) {
			continue
		}
		assert.False(t, seen[tb.TableName()], "duplicate table %s", tb.TableName())
		seen[tb.TableName()] = true
	}
	assert.Len(t, seen, len(Models()))
}
