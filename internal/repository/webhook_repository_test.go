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

func setupWebhookRepoTest(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:webhook_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Webhook{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func TestWebhookListFiltersByEvent(t *testing.T) {
	db := setupWebhookRepoTest(t)
	repo := NewWebhookRepository(db)

	subscribed := &models.Webhook{
		StoreID:  1,
		Name:     "orders",
		URL:      "https://example.com/orders",
		Secret:   "whsec_a",
		Events:   models.StringArray{constants.EventOrderCreated, constants.EventOrderUpdated},
		IsActive: true,
	}
	catchAll := &models.Webhook{
		StoreID:  1,
		Name:     "firehose",
		URL:      "https://example.com/all",
		Secret:   "whsec_b",
		IsActive: true, // 无订阅列表，订阅全部事件
	}
	other := &models.Webhook{
		StoreID:  1,
		Name:     "refunds",
		URL:      "https://example.com/refunds",
		Secret:   "whsec_c",
		Events:   models.StringArray{constants.EventPaymentRefunded},
		IsActive: true,
	}
	for _, hook := range []*models.Webhook{subscribed, catchAll, other} {
		if err := repo.Create(hook); err != nil {
			t.Fatalf("create webhook failed: %v", err)
		}
	}

	hooks, total, err := repo.List(WebhookListFilter{Event: constants.EventOrderCreated})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected total 2, got %d", total)
	}
	if len(hooks) != 2 {
		t.Fatalf("expected 2 webhooks, got %d", len(hooks))
	}
	for _, hook := range hooks {
		if hook.ID == other.ID {
			t.Fatalf("webhook %d does not subscribe to %s", hook.ID, constants.EventOrderCreated)
		}
	}

	// 不带事件过滤时返回全部
	_, total, err = repo.List(WebhookListFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
}
