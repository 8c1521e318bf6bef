package queue

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vendora-next/internal/config"
	"github.com/vendora-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// WebhookQueue 回调投递专用队列
	WebhookQueue = constants.QueueWebhooks
)

// Client 队列客户端封装
type Client struct {
	client       *asynq.Client
	enabled      bool
	defaultQueue string
	maxAttempts  int
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig, webhookCfg *config.WebhookConfig) (*Client, error) {
	maxAttempts := 6
	if webhookCfg != nil && webhookCfg.MaxAttempts > 0 {
		maxAttempts = webhookCfg.MaxAttempts
	}
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, defaultQueue: DefaultQueue, maxAttempts: maxAttempts}, nil
	}
	opt := buildRedisOpt(cfg)
	client := asynq.NewClient(opt)
	return &Client{
		client:       client,
		enabled:      true,
		defaultQueue: DefaultQueue,
		maxAttempts:  maxAttempts,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueWebhookDispatch 推送事件扇出任务
func (c *Client) EnqueueWebhookDispatch(payload WebhookDispatchPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewWebhookDispatchTask(payload)
	if err != nil {
		return err
	}
	options := append([]asynq.Option{asynq.Queue(WebhookQueue)}, opts...)
	_, err = c.client.Enqueue(task, options...)
	return err
}

// EnqueueWebhookDeliver 推送单订阅投递任务
// asynq.MaxRetry 为重试次数上限（不含首次执行）
func (c *Client) EnqueueWebhookDeliver(payload WebhookDeliverPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewWebhookDeliverTask(payload)
	if err != nil {
		return err
	}
	options := append([]asynq.Option{
		asynq.Queue(WebhookQueue),
		asynq.MaxRetry(c.maxAttempts - 1),
	}, opts...)
	_, err = c.client.Enqueue(task, options...)
	return err
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig, webhookCfg *config.WebhookConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{DefaultQueue: 10, WebhookQueue: 5}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency:    concurrency,
		Queues:         queues,
		RetryDelayFunc: BuildRetryDelayFunc(webhookCfg),
	}
}

// BuildRetryDelayFunc 生成指数退避函数（base * 2^n，封顶 max）
func BuildRetryDelayFunc(webhookCfg *config.WebhookConfig) asynq.RetryDelayFunc {
	base := 2
	max := 600
	if webhookCfg != nil {
		if webhookCfg.BackoffBaseSeconds > 0 {
			base = webhookCfg.BackoffBaseSeconds
		}
		if webhookCfg.BackoffMaxSeconds > 0 {
			max = webhookCfg.BackoffMaxSeconds
		}
	}
	return func(n int, err error, task *asynq.Task) time.Duration {
		if task != nil && task.Type() != TaskWebhookDeliver {
			return asynq.DefaultRetryDelayFunc(n, err, task)
		}
		seconds := float64(base) * math.Pow(2, float64(n))
		if seconds > float64(max) {
			seconds = float64(max)
		}
		return time.Duration(seconds) * time.Second
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
