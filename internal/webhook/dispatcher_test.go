package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/vendora-next/internal/config"
	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/repository"
)

func setupDispatcherTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:webhook_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Webhook{}, &models.WebhookLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createTestWebhook(t *testing.T, db *gorm.DB, url string) *models.Webhook {
	t.Helper()
	hook := &models.Webhook{
		StoreID:  1,
		Name:     "test subscriber",
		URL:      url,
		Secret:   "whsec_dispatcher_test",
		Events:   models.StringArray{"order.created"},
		IsActive: true,
	}
	if err := db.Create(hook).Error; err != nil {
		t.Fatalf("create webhook: %v", err)
	}
	return hook
}

func reloadTestWebhook(t *testing.T, db *gorm.DB, id uint) *models.Webhook {
	t.Helper()
	var hook models.Webhook
	if err := db.First(&hook, id).Error; err != nil {
		t.Fatalf("reload webhook: %v", err)
	}
	return &hook
}

func TestDeliverSignsAndLogsSuccess(t *testing.T) {
	db := setupDispatcherTest(t)

	var gotBody []byte
	var gotSignature string
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get(SignatureHeader)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	hook := createTestWebhook(t, db, server.URL)
	deliverer := NewDeliverer(config.WebhookConfig{TimeoutMS: 2000},
		repository.NewWebhookRepository(db), repository.NewWebhookLogRepository(db))

	occurredAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	result := deliverer.Deliver(context.Background(), DeliverInput{
		Webhook:    hook,
		DeliveryID: "dlv_123",
		Event:      "order.created",
		OccurredAt: occurredAt,
		Payload:    map[string]interface{}{"order_id": float64(7)},
		Attempt:    1,
	})
	if !result.Success || result.StatusCode != http.StatusOK {
		t.Fatalf("unexpected result: %+v", result)
	}

	if gotContentType != "application/json" {
		t.Fatalf("unexpected content type %q", gotContentType)
	}
	if gotSignature != Sign(hook.Secret, gotBody) {
		t.Fatal("signature does not match body")
	}
	if !VerifySignature(hook.Secret, gotBody, gotSignature) {
		t.Fatal("signature verification failed")
	}

	var envelope Envelope
	if err := json.Unmarshal(gotBody, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Type != "order.created" || envelope.WebhookID != "dlv_123" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	if envelope.Timestamp != occurredAt.Format(time.RFC3339) {
		t.Fatalf("unexpected timestamp %q", envelope.Timestamp)
	}
	if envelope.Payload["order_id"] != float64(7) {
		t.Fatalf("unexpected payload: %+v", envelope.Payload)
	}

	var logs []models.WebhookLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatalf("load logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log row, got %d", len(logs))
	}
	if logs[0].Status != constants.WebhookLogStatusSuccess || logs[0].Attempt != 1 {
		t.Fatalf("unexpected log: %+v", logs[0])
	}

	reloaded := reloadTestWebhook(t, db, hook.ID)
	if reloaded.RetryCount != 0 || reloaded.LastTriggeredAt == nil {
		t.Fatalf("unexpected webhook counters: %+v", reloaded)
	}
}

func TestDeliverRecordsFailureWithoutError(t *testing.T) {
	db := setupDispatcherTest(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	hook := createTestWebhook(t, db, server.URL)
	deliverer := NewDeliverer(config.WebhookConfig{TimeoutMS: 2000},
		repository.NewWebhookRepository(db), repository.NewWebhookLogRepository(db))

	result := deliverer.Deliver(context.Background(), DeliverInput{
		Webhook:    hook,
		DeliveryID: "dlv_456",
		Event:      "order.created",
		Payload:    map[string]interface{}{"order_id": float64(8)},
		Attempt:    1,
	})
	if result.Success {
		t.Fatal("expected failed delivery")
	}
	if result.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", result.StatusCode)
	}

	var logs []models.WebhookLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatalf("load logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != constants.WebhookLogStatusFailed {
		t.Fatalf("unexpected logs: %+v", logs)
	}

	reloaded := reloadTestWebhook(t, db, hook.ID)
	if reloaded.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", reloaded.RetryCount)
	}
	if reloaded.FailureCount != 0 {
		t.Fatalf("non-final attempt must not count as failure, got %d", reloaded.FailureCount)
	}

	// 最终尝试失败计入最终失败
	final := deliverer.Deliver(context.Background(), DeliverInput{
		Webhook:    hook,
		DeliveryID: "dlv_456",
		Event:      "order.created",
		Payload:    map[string]interface{}{"order_id": float64(8)},
		Attempt:    2,
		Final:      true,
	})
	if final.Success {
		t.Fatal("expected failed delivery")
	}
	reloaded = reloadTestWebhook(t, db, hook.ID)
	if reloaded.FailureCount != 1 || reloaded.RetryCount != 2 {
		t.Fatalf("unexpected counters after final attempt: %+v", reloaded)
	}
}

func TestDeliverUnreachableTargetJustLogs(t *testing.T) {
	db := setupDispatcherTest(t)

	hook := createTestWebhook(t, db, "http://127.0.0.1:1/hook")
	deliverer := NewDeliverer(config.WebhookConfig{TimeoutMS: 500},
		repository.NewWebhookRepository(db), repository.NewWebhookLogRepository(db))

	result := deliverer.Deliver(context.Background(), DeliverInput{
		Webhook:    hook,
		DeliveryID: "dlv_789",
		Event:      "order.created",
		Payload:    map[string]interface{}{},
		Attempt:    1,
	})
	if result.Success || result.ErrorMessage == "" {
		t.Fatalf("expected connection failure, got: %+v", result)
	}
	if result.StatusCode != 0 {
		t.Fatalf("expected no status code, got %d", result.StatusCode)
	}

	var count int64
	if err := db.Model(&models.WebhookLog{}).Count(&count).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 log row, got %d", count)
	}
}

func TestResetRetryCountAfterSuccess(t *testing.T) {
	db := setupDispatcherTest(t)

	failing := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	hook := createTestWebhook(t, db, server.URL)
	deliverer := NewDeliverer(config.WebhookConfig{TimeoutMS: 2000},
		repository.NewWebhookRepository(db), repository.NewWebhookLogRepository(db))

	input := DeliverInput{
		Webhook:    hook,
		DeliveryID: "dlv_retry",
		Event:      "order.created",
		Payload:    map[string]interface{}{},
		Attempt:    1,
	}
	deliverer.Deliver(context.Background(), input)
	if reloaded := reloadTestWebhook(t, db, hook.ID); reloaded.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", reloaded.RetryCount)
	}

	failing = false
	input.Attempt = 2
	result := deliverer.Deliver(context.Background(), input)
	if !result.Success {
		t.Fatalf("expected success, got: %+v", result)
	}
	if reloaded := reloadTestWebhook(t, db, hook.ID); reloaded.RetryCount != 0 {
		t.Fatalf("expected retry count reset, got %d", reloaded.RetryCount)
	}
}
