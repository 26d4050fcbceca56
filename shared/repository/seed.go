package repository

import (
	"context"
	"fmt"

	"github.com/pavitra93/dealer-management-api/shared/models"
)

// SeedAdminEmail and SeedAdminPassword are the development producer admin
// credentials. The password is stored as a legacy plaintext secret.
const (
	SeedAdminEmail    = "admin@x.com"
	SeedAdminPassword = "admin-sifresi"
)

func uintPtr(v uint) *uint { return &v }

// Seed loads the development data set: two dealers, one user per role and a
// sample order for each dealer.
func Seed(ctx context.Context, store *Store) error {
	dealers := []models.Dealer{
		{ID: 101, Name: "Merkez Optik", LinkHash: "a1b2c3d4-test-hash", IsActive: true, QuotaLimit: 10},
		{ID: 102, Name: "Batı Optik", LinkHash: "x9y8z7w6-test-hash", IsActive: true, QuotaLimit: 10},
	}
	for i := range dealers {
		if err := store.Dealers.Create(ctx, &dealers[i]); err != nil {
			return fmt.Errorf("seed dealer %d: %w", dealers[i].ID, err)
		}
	}

	users := []models.User{
		{ID: 1, Email: SeedAdminEmail, PasswordHash: SeedAdminPassword, Name: "Sistem Yöneticisi", Role: models.RoleProducerAdmin, IsActive: true},
		{ID: 2, Email: "owner@merkezoptik.com", PasswordHash: "bayi-sifresi", Name: "Merkez Optik Sahibi", Role: models.RoleDealerAdmin, DealerID: uintPtr(101), IsActive: true},
		{ID: 3, Email: "staff@batioptik.com", PasswordHash: "personel-sifresi", Name: "Batı Optik Personeli", Role: models.RoleDealerUser, DealerID: uintPtr(102), IsActive: true},
	}
	for i := range users {
		if err := store.Users.Create(ctx, &users[i]); err != nil {
			return fmt.Errorf("seed user %s: %w", users[i].Email, err)
		}
	}

	orders := []models.Order{
		{
			ID:            5001,
			DealerID:      101,
			CustomerName:  "Ata Arpat",
			Status:        models.OrderStatusPending,
			Configuration: models.Configuration(`{"frame":"Aviator","lensType":"BlueCut","prescription":{"left":-1.5,"right":-1.0}}`),
		},
		{
			ID:            5002,
			DealerID:      102,
			CustomerName:  "Deniz Kaya",
			Status:        models.OrderStatusConfirmed,
			Configuration: models.Configuration(`{"frame":"Wayfarer","lensType":"Photochromic"}`),
		},
	}
	for i := range orders {
		if err := store.Orders.Create(ctx, &orders[i]); err != nil {
			return fmt.Errorf("seed order %d: %w", orders[i].ID, err)
		}
	}
	return nil
}
