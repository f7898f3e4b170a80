// Package testutil はテスト用のsqlite DBと初期データを用意する。
package testutil

import (
	"testing"

	"powerchip/internal/domain/model"
	"powerchip/internal/infra/db"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite はマイグレーション済みのインメモリDBを返す。
// :memory: は接続ごとに別DBなので接続は1本に絞る
func OpenSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func SeedUser(t *testing.T, gdb *gorm.DB, email string, role model.Role) model.User {
	t.Helper()

	u := model.User{
		Email:        email,
		Name:         "Maria Silva",
		Document:     "52998224725",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}

// SeedProduct は公開中の商品を作る（price は "100.00" のような文字列）
func SeedProduct(t *testing.T, gdb *gorm.DB, name string, price string, stock int64) model.Product {
	t.Helper()

	p := model.Product{
		Name:          name,
		SKU:           "SKU-" + name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, gdb.Create(&p).Error)
	return p
}

func ReloadProduct(t *testing.T, gdb *gorm.DB, id int64) model.Product {
	t.Helper()

	var p model.Product
	require.NoError(t, gdb.Unscoped().First(&p, id).Error)
	return p
}

func ReloadOrder(t *testing.T, gdb *gorm.DB, id int64) model.Order {
	t.Helper()

	var o model.Order
	require.NoError(t, gdb.First(&o, id).Error)
	return o
}
