package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupFulfillmentRepoTest(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:fulfillment_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Fulfillment{}, &models.FulfillmentItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func TestFulfillmentUpdateFromStatusSingleWinner(t *testing.T) {
	db := setupFulfillmentRepoTest(t)
	repo := NewFulfillmentRepository(db)

	row := models.Fulfillment{
		OrderID: 1,
		Status:  constants.FulfillmentStatusCreated,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create fulfillment failed: %v", err)
	}

	now := time.Now()
	ok, err := repo.UpdateFromStatus(row.ID, constants.FulfillmentStatusCreated, map[string]interface{}{
		"status":     constants.FulfillmentStatusShipped,
		"shipped_at": now,
		"updated_at": now,
	})
	if err != nil {
		t.Fatalf("update from status failed: %v", err)
	}
	if !ok {
		t.Fatal("expected first transition to win")
	}

	// 同一前置状态的第二次转移不再命中
	ok, err = repo.UpdateFromStatus(row.ID, constants.FulfillmentStatusCreated, map[string]interface{}{
		"status":     constants.FulfillmentStatusShipped,
		"shipped_at": now,
		"updated_at": now,
	})
	if err != nil {
		t.Fatalf("update from status failed: %v", err)
	}
	if ok {
		t.Fatal("expected second transition from stale status to miss")
	}

	reloaded, err := repo.GetByID(row.ID)
	if err != nil {
		t.Fatalf("reload fulfillment failed: %v", err)
	}
	if reloaded.Status != constants.FulfillmentStatusShipped {
		t.Fatalf("expected shipped, got %s", reloaded.Status)
	}
	if reloaded.ShippedAt == nil {
		t.Fatal("expected shipped_at to be set")
	}
}
