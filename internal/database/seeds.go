package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Fixed ids let local clients send X-User-ID without looking them up first.
const (
	DemoPayerID     = "5b0f6a1e-2f4c-4c1a-9d53-1f0f1a000001"
	DemoPayeeUSID   = "5b0f6a1e-2f4c-4c1a-9d53-1f0f1a000002"
	DemoPayeeGBID   = "5b0f6a1e-2f4c-4c1a-9d53-1f0f1a000003"
	DemoPayeeNoneID = "5b0f6a1e-2f4c-4c1a-9d53-1f0f1a000004"
	DemoAdminID     = "5b0f6a1e-2f4c-4c1a-9d53-1f0f1a000005"
)

var demoUsers = []struct {
	ID          string
	Email       string
	DisplayName string
	Role        string
}{
	{DemoPayerID, "requester@example.com", "Demo Requester", "payer"},
	{DemoPayeeUSID, "annotator.us@example.com", "Annotator (US)", "payee"},
	{DemoPayeeGBID, "annotator.gb@example.com", "Annotator (GB)", "payee"},
	{DemoPayeeNoneID, "annotator.new@example.com", "Annotator (not onboarded)", "payee"},
	{DemoAdminID, "ops@example.com", "Platform Ops", "admin"},
}

var demoAccounts = []struct {
	UserID     string
	ExternalID string
	Country    string
	Status     string
	Enabled    bool
}{
	{DemoPayeeUSID, "acct_demo_us", "US", "active", true},
	{DemoPayeeGBID, "acct_demo_gb", "GB", "pending", false},
}

func SeedData(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return fmt.Errorf("check existing data: %w", err)
	}
	if count > 0 {
		log.Info().Msg("seed data already exists, skipping")
		return nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, u := range demoUsers {
		_, err := tx.Exec(ctx,
			"INSERT INTO users (id, email, display_name, role) VALUES ($1::uuid, $2, $3, $4)",
			u.ID, u.Email, u.DisplayName, u.Role)
		if err != nil {
			return fmt.Errorf("insert user %s: %w", u.Email, err)
		}
	}
	log.Info().Int("count", len(demoUsers)).Msg("inserted users")

	for _, a := range demoAccounts {
		_, err := tx.Exec(ctx,
			`INSERT INTO payee_accounts (user_id, external_account_id, country, status,
				charges_enabled, payouts_enabled, details_submitted)
			VALUES ($1::uuid, $2, $3, $4, $5, $5, TRUE)`,
			a.UserID, a.ExternalID, a.Country, a.Status, a.Enabled)
		if err != nil {
			return fmt.Errorf("insert payee account %s: %w", a.ExternalID, err)
		}
	}
	log.Info().Int("count", len(demoAccounts)).Msg("inserted payee accounts")

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed data: %w", err)
	}

	log.Info().Msg("seed data generation complete")
	return nil
}
