// Package seed bootstraps the default plans and admin account for
// self-hosted installs so a fresh database is immediately usable.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	authdomain "github.com/stegashield/stegashield/internal/auth/domain"
	"github.com/stegashield/stegashield/internal/auth/password"
	plandomain "github.com/stegashield/stegashield/internal/plan/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@stegashield.io"
	defaultAdminPassword = "admin"
	defaultAdminDisplay  = "StegaShield Admin"
)

// EnsureDefaultPlans seeds the built-in plan tiers for startup bootstrap.
func EnsureDefaultPlans(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, plan := range defaultPlans(node) {
			var existing plandomain.Plan
			err := tx.WithContext(ctx).Where("code = ?", plan.Code).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := tx.WithContext(ctx).Create(&plan).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureAdminUser seeds the default admin account on the free plan.
func EnsureAdminUser(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user authdomain.User
		err := tx.WithContext(ctx).Where("email = ?", defaultAdminEmail).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var free plandomain.Plan
		if err := tx.WithContext(ctx).Where("code = ?", plandomain.CodeFree).First(&free).Error; err != nil {
			return err
		}

		hashed, err := password.Hash(defaultAdminPassword)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		user = authdomain.User{
			ID:           node.Generate(),
			Email:        defaultAdminEmail,
			PasswordHash: hashed,
			DisplayName:  defaultAdminDisplay,
			Role:         authdomain.RoleAdmin,
			PlanID:       free.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}

func defaultPlans(node *snowflake.Node) []plandomain.Plan {
	now := time.Now().UTC()
	return []plandomain.Plan{
		{
			ID:          node.Generate(),
			Code:        plandomain.CodeFree,
			Name:        "Free",
			Description: "Personal use with monthly quotas.",
			PriceUSD:    decimal.Zero,
			UploadLimit: 5,
			VerifyLimit: 10,
			Features:    datatypes.JSON(`["watermark_embed","deepfake_verify"]`),
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          node.Generate(),
			Code:        plandomain.CodePro,
			Name:        "Pro",
			Description: "Higher quotas for creators and small teams.",
			PriceUSD:    decimal.NewFromInt(10),
			UploadLimit: 100,
			VerifyLimit: 200,
			Features:    datatypes.JSON(`["watermark_embed","deepfake_verify","priority_support"]`),
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          node.Generate(),
			Code:        plandomain.CodeEnterprise,
			Name:        "Enterprise",
			Description: "Unmetered usage and dedicated support.",
			PriceUSD:    decimal.NewFromInt(50),
			UploadLimit: 0,
			VerifyLimit: 0,
			Features:    datatypes.JSON(`["watermark_embed","deepfake_verify","priority_support","sla"]`),
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}
