package worker

import (
	"fmt"
	"testing"
	"time"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/queue"
	"github.com/vendora-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupFanOutTest(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:fanout_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Webhook{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createFanOutWebhook(t *testing.T, db *gorm.DB, storeID uint, events models.StringArray, active bool) *models.Webhook {
	t.Helper()

	hook := &models.Webhook{
		StoreID:  storeID,
		Name:     fmt.Sprintf("hook-%d", time.Now().UnixNano()),
		URL:      "https://example.com/hook",
		Secret:   "whsec_test",
		Events:   events,
		IsActive: active,
	}
	if err := db.Create(hook).Error; err != nil {
		t.Fatalf("create webhook failed: %v", err)
	}
	return hook
}

// recordingEnqueuer 收集投递载荷，替代真实队列客户端
type recordingEnqueuer struct {
	payloads []queue.WebhookDeliverPayload
}

func (e *recordingEnqueuer) EnqueueWebhookDeliver(payload queue.WebhookDeliverPayload, _ ...asynq.Option) error {
	e.payloads = append(e.payloads, payload)
	return nil
}

func TestFanOutCreatesOneDeliveryPerSubscription(t *testing.T) {
	db := setupFanOutTest(t)
	repo := repository.NewWebhookRepository(db)

	first := createFanOutWebhook(t, db, 1, models.StringArray{constants.EventOrderCreated}, true)
	second := createFanOutWebhook(t, db, 1, nil, true) // 空订阅列表视为订阅全部事件
	createFanOutWebhook(t, db, 1, models.StringArray{constants.EventPaymentRefunded}, true)
	createFanOutWebhook(t, db, 1, models.StringArray{constants.EventOrderCreated}, false)

	enqueuer := &recordingEnqueuer{}
	payload := queue.WebhookDispatchPayload{
		Event:      constants.EventOrderCreated,
		StoreID:    1,
		OccurredAt: time.Now(),
		Data:       map[string]interface{}{"order_id": float64(42)},
	}
	count, err := fanOutWebhookEvent(repo, enqueuer, payload)
	if err != nil {
		t.Fatalf("fan out failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 matched subscriptions, got %d", count)
	}
	if len(enqueuer.payloads) != 2 {
		t.Fatalf("expected 2 delivery tasks, got %d", len(enqueuer.payloads))
	}

	got := map[uint]queue.WebhookDeliverPayload{}
	for _, p := range enqueuer.payloads {
		got[p.WebhookID] = p
	}
	for _, id := range []uint{first.ID, second.ID} {
		p, ok := got[id]
		if !ok {
			t.Fatalf("expected delivery task for webhook %d", id)
		}
		if p.Event != constants.EventOrderCreated {
			t.Fatalf("expected event %s, got %s", constants.EventOrderCreated, p.Event)
		}
		if p.DeliveryID == "" {
			t.Fatalf("expected delivery id for webhook %d", id)
		}
	}
	if got[first.ID].DeliveryID == got[second.ID].DeliveryID {
		t.Fatal("expected independent delivery ids per subscription")
	}
}

func TestFanOutScopedToStore(t *testing.T) {
	db := setupFanOutTest(t)
	repo := repository.NewWebhookRepository(db)

	mine := createFanOutWebhook(t, db, 1, nil, true)
	createFanOutWebhook(t, db, 2, nil, true)

	enqueuer := &recordingEnqueuer{}
	count, err := fanOutWebhookEvent(repo, enqueuer, queue.WebhookDispatchPayload{
		Event:      constants.EventOrderCreated,
		StoreID:    1,
		OccurredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("fan out failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected only store 1 subscription, got %d", count)
	}
	if len(enqueuer.payloads) != 1 || enqueuer.payloads[0].WebhookID != mine.ID {
		t.Fatalf("expected delivery for webhook %d only, got %+v", mine.ID, enqueuer.payloads)
	}
}
