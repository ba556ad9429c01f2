package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

// 仓储层以字符串列名拼 SQL（查询条件、UpdateFields、OnConflict），
// 这里锁定关键字段在默认命名策略下解析出的列名，防止模型改动悄悄破坏 SQL
func TestProductMapping_ColumnNames(t *testing.T) {
	s, err := schema.Parse(&ProductMapping{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	cases := map[string]string{
		"BunjangPID":       "bunjang_pid",
		"ShopifyGID":       "shopify_gid",
		"ShopifyProductID": "shopify_product_id",
		"SyncStatus":       "sync_status",
		"IsFilteredOut":    "is_filtered_out",
	}
	for field, column := range cases {
		f := s.LookUpField(field)
		require.NotNil(t, f, "缺少字段 %s", field)
		assert.Equal(t, column, f.DBName, field)
	}

	assert.Equal(t, "product_mappings", s.Table)
}
