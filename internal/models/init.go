package models

import (
	"strings"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultAdmin 初始化默认管理员账号
func InitDefaultAdmin(username, password string) error {
	var count int64
	DB.Model(&Admin{}).Count(&count)

	// 如果已有管理员，确保默认 admin 拥有超级管理员权限
	if count > 0 {
		if err := DB.Model(&Admin{}).Where("username = ?", "admin").Update("is_super", true).Error; err != nil {
			logger.Warnw("ensure_default_admin_super_failed", "error", err)
		}
		return nil
	}

	// 创建默认管理员
	if username == "" {
		username = "admin"
	}
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := Admin{
		Username:     username,
		PasswordHash: string(hash),
		IsSuper:      strings.EqualFold(strings.TrimSpace(username), "admin"),
	}

	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if password == "admin123" {
		logger.Warnw("default_admin_created_with_default_password", "username", username, "password", password)
		logger.Warnw("default_admin_password_change_required", "username", username)
	} else {
		logger.Warnw("default_admin_created", "username", username, "password_hidden", true)
	}

	return nil
}

// InitDefaultStore 初始化默认店铺
func InitDefaultStore(name, currency string) error {
	var count int64
	DB.Model(&Store{}).Count(&count)
	if count > 0 {
		return nil
	}

	if name == "" {
		name = "Default Store"
	}
	if currency == "" {
		currency = constants.SiteCurrencyDefault
	}
	store := Store{Name: name, Currency: currency, IsActive: true}
	if err := DB.Create(&store).Error; err != nil {
		return err
	}
	logger.Infow("default_store_created", "name", name, "currency", currency)
	return nil
}
