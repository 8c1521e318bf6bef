package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "readonly_auditor",
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
		},
		{
			Role:     "support",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/orders/:id/status", Action: "PATCH"},
				{Object: "/admin/orders/:id/cancel", Action: "POST"},
				{Object: "/admin/fulfillments", Action: "*"},
				{Object: "/admin/fulfillments/:id/ship", Action: "POST"},
				{Object: "/admin/fulfillments/:id/deliver", Action: "POST"},
				{Object: "/admin/fulfillments/:id/cancel", Action: "POST"},
				{Object: "/admin/returns", Action: "*"},
				{Object: "/admin/returns/:id/receive", Action: "POST"},
				{Object: "/admin/returns/:id/complete", Action: "POST"},
				{Object: "/admin/returns/:id/cancel", Action: "POST"},
				{Object: "/admin/claims", Action: "*"},
				{Object: "/admin/claims/:id/process", Action: "POST"},
				{Object: "/admin/claims/:id/complete", Action: "POST"},
				{Object: "/admin/claims/:id/cancel", Action: "POST"},
				{Object: "/admin/exchanges", Action: "*"},
				{Object: "/admin/exchanges/:id/process", Action: "POST"},
				{Object: "/admin/exchanges/:id/pay-difference", Action: "POST"},
				{Object: "/admin/exchanges/:id/complete", Action: "POST"},
				{Object: "/admin/exchanges/:id/cancel", Action: "POST"},
				{Object: "/admin/order-edits", Action: "*"},
				{Object: "/admin/order-edits/:id/request", Action: "POST"},
				{Object: "/admin/order-edits/:id/confirm", Action: "POST"},
				{Object: "/admin/order-edits/:id/decline", Action: "POST"},
			},
		},
		{
			Role:     "finance",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/refunds", Action: "*"},
				{Object: "/admin/orders/:id/mark-paid", Action: "POST"},
			},
		},
		{
			Role:     "integrations",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/webhooks", Action: "*"},
				{Object: "/admin/webhooks/:id", Action: "*"},
				{Object: "/admin/webhooks/:id/test", Action: "POST"},
				{Object: "/admin/webhooks/:id/logs", Action: "GET"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor); err != nil {
			return fmt.Errorf("create builtin role failed: %w", err)
		}
		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
