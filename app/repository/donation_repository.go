package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/CertiFox/app/models"
)

// donationRepository implements the DonationRepository interface
type donationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a new donation repository instance
func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &donationRepository{db: db}
}

// CreateWithDetails fills in the generated ids on donation, on every detail
// and on every detail's Generated record
func (r *donationRepository) CreateWithDetails(ctx context.Context, donation *models.Donation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(donation).Error; err != nil {
			return fmt.Errorf("insert donation: %w", err)
		}

		for i := range donation.Details {
			detail := &donation.Details[i]
			detail.DonationID = donation.ID
			if err := tx.Omit(clause.Associations).Create(detail).Error; err != nil {
				return fmt.Errorf("insert detail %d: %w", i, err)
			}

			if detail.Generated == nil {
				return fmt.Errorf("detail %d has no generated record", i)
			}
			detail.Generated.DonationDetailID = detail.ID
			if err := tx.Create(detail.Generated).Error; err != nil {
				return fmt.Errorf("insert generated record %d: %w", i, err)
			}
		}
		return nil
	})
}

func (r *donationRepository) GetByID(ctx context.Context, id uint) (*models.Donation, error) {
	var donation models.Donation
	if err := r.db.WithContext(ctx).First(&donation, id).Error; err != nil {
		return nil, err
	}
	return &donation, nil
}

// Recent returns the newest donations first
func (r *donationRepository) Recent(ctx context.Context, limit int) ([]models.Donation, error) {
	var donations []models.Donation
	err := r.db.WithContext(ctx).Order("fecha DESC").Order("id DESC").Limit(limit).Find(&donations).Error
	return donations, err
}
