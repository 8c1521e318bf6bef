package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// setupLifecycleTest 打开独立内存库并迁移全部表
// 服务层事务走 models.DB 全局句柄，这里一并指向测试库
func setupLifecycleTest(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:lifecycle_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Store{},
		&models.Admin{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Fulfillment{},
		&models.FulfillmentItem{},
		&models.Refund{},
		&models.RefundItem{},
		&models.ReturnOrder{},
		&models.ReturnItem{},
		&models.Claim{},
		&models.ClaimItem{},
		&models.Exchange{},
		&models.ExchangeItem{},
		&models.OrderEdit{},
		&models.OrderEditChange{},
		&models.Webhook{},
		&models.WebhookLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return db
}

func money(t *testing.T, value string) models.Money {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q failed: %v", value, err)
	}
	return models.NewMoneyFromDecimal(d)
}

// createLifecycleTestOrder 创建一笔两行的测试订单并标记已支付
// 第一行数量 3 单价 20.00，第二行数量 2 单价 20.00，合计 100.00
func createLifecycleTestOrder(t *testing.T, db *gorm.DB) *models.Order {
	t.Helper()

	orderRepo := repository.NewOrderRepository(db)
	fulfillmentRepo := repository.NewFulfillmentRepository(db)
	orderSvc := NewOrderService(orderRepo, fulfillmentRepo, nil, nil)

	order, err := orderSvc.Create(context.Background(), CreateOrderInput{
		Currency: "USD",
		Items: []CreateOrderItemInput{
			{
				ProductID: 1,
				Title:     models.JSON(map[string]interface{}{"en-US": "Widget"}),
				UnitPrice: money(t, "20.00"),
				Quantity:  3,
			},
			{
				ProductID: 2,
				Title:     models.JSON(map[string]interface{}{"en-US": "Gadget"}),
				UnitPrice: money(t, "20.00"),
				Quantity:  2,
			},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	order, err = orderSvc.MarkPaid(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	return order
}

func createLifecycleTestProduct(t *testing.T, db *gorm.DB, slug, price string) models.Product {
	t.Helper()

	row := models.Product{
		StoreID:     1,
		Slug:        slug,
		TitleJSON:   models.JSON(map[string]interface{}{"en-US": slug}),
		PriceAmount: money(t, price),
		IsActive:    true,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return row
}

func reloadLifecycleOrder(t *testing.T, db *gorm.DB, orderID uint) *models.Order {
	t.Helper()

	order, err := repository.NewOrderRepository(db).GetDetail(orderID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if order == nil {
		t.Fatalf("order %d not found", orderID)
	}
	return order
}
