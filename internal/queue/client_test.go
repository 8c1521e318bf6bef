package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/vendora-next/internal/config"

	"github.com/hibiken/asynq"
)

func TestBuildRetryDelayFuncExponentialWithCap(t *testing.T) {
	fn := BuildRetryDelayFunc(&config.WebhookConfig{
		BackoffBaseSeconds: 2,
		BackoffMaxSeconds:  30,
	})
	task := asynq.NewTask(TaskWebhookDeliver, nil)

	cases := []struct {
		n    int
		want time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{3, 16 * time.Second},
		{4, 30 * time.Second}, // 2*2^4=32 超过上限
		{10, 30 * time.Second},
	}
	for _, tc := range cases {
		got := fn(tc.n, errors.New("delivery failed"), task)
		if got != tc.want {
			t.Fatalf("retry %d: expected %v, got %v", tc.n, tc.want, got)
		}
	}
}

func TestBuildRetryDelayFuncDefaults(t *testing.T) {
	fn := BuildRetryDelayFunc(nil)
	task := asynq.NewTask(TaskWebhookDeliver, nil)
	if got := fn(0, errors.New("x"), task); got != 2*time.Second {
		t.Fatalf("expected default base 2s, got %v", got)
	}
}
