package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/CertiFox/app/models"
)

// certificateRepository implements the CertificateRepository interface
type certificateRepository struct {
	db *gorm.DB
}

// NewCertificateRepository creates a new issued certificate repository instance
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

// GetDetail loads a detail with its donation, its catalog type and its
// generated record. Type and generated record may be nil.
func (r *certificateRepository) GetDetail(ctx context.Context, detailID uint) (*models.DonationDetail, error) {
	var detail models.DonationDetail
	err := r.db.WithContext(ctx).
		Preload("Donation").
		Preload("CertificateType").
		Preload("Generated").
		First(&detail, detailID).Error
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *certificateRepository) ListByDonation(ctx context.Context, donationID uint) ([]models.DonationDetail, error) {
	var details []models.DonationDetail
	err := r.db.WithContext(ctx).
		Preload("Donation").
		Preload("Generated").
		Where("donacion_id = ?", donationID).
		Order("id ASC").
		Find(&details).Error
	return details, err
}

// ListByEmail returns every detail bought with the email, newest donation first
func (r *certificateRepository) ListByEmail(ctx context.Context, email string) ([]models.DonationDetail, error) {
	var details []models.DonationDetail
	err := r.db.WithContext(ctx).
		Joins("Donation").
		Preload("Generated").
		Where(clause.Eq{Column: clause.Column{Table: "Donation", Name: "email"}, Value: email}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: "Donation", Name: "fecha"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}, Desc: true}).
		Find(&details).Error
	return details, err
}

func (r *certificateRepository) RecordDownload(ctx context.Context, detailID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.GeneratedCertificate{}).
		Where("donacion_detalle_id = ?", detailID).
		Updates(map[string]interface{}{
			"veces_descargado": gorm.Expr("veces_descargado + ?", 1),
			"ultima_descarga":  at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
