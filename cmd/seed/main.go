package main

import (
	"github.com/vendora-next/internal/config"
	"github.com/vendora-next/internal/logger"
	"github.com/vendora-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认店铺
	if err := models.InitDefaultStore("", ""); err != nil {
		stdLog.Printf("Failed to init default store: %v", err)
	}

	// 添加商品（换货与改单引用的商品目录）
	products := []models.Product{
		{
			TitleJSON: models.JSON(map[string]interface{}{
				"zh-CN": "无线蓝牙耳机",
				"zh-TW": "無線藍牙耳機",
				"en-US": "Wireless Bluetooth Earphones",
			}),
			Slug:        "wireless-earphones",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(99.99)),
			IsActive:    true,
		},
		{
			TitleJSON: models.JSON(map[string]interface{}{
				"zh-CN": "智能手表",
				"zh-TW": "智能手錶",
				"en-US": "Smart Watch",
			}),
			Slug:        "smart-watch",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(199.00)),
			IsActive:    true,
		},
		{
			TitleJSON: models.JSON(map[string]interface{}{
				"zh-CN": "便携充电宝",
				"zh-TW": "便攜充電寶",
				"en-US": "Portable Power Bank",
			}),
			Slug:        "power-bank",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(39.50)),
			IsActive:    true,
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", product.Slug)
			}
		} else {
			stdLog.Printf("Product already exists: %s", product.Slug)
		}
	}

	stdLog.Printf("Seed finished")
}
