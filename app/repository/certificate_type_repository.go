package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/CertiFox/app/models"
)

// certificateTypeRepository implements the CertificateTypeRepository interface
type certificateTypeRepository struct {
	db *gorm.DB
}

// NewCertificateTypeRepository creates a new catalog repository instance
func NewCertificateTypeRepository(db *gorm.DB) CertificateTypeRepository {
	return &certificateTypeRepository{db: db}
}

func (r *certificateTypeRepository) Create(ctx context.Context, certificateType *models.CertificateType) error {
	return r.db.WithContext(ctx).Create(certificateType).Error
}

func (r *certificateTypeRepository) GetByID(ctx context.Context, id uint) (*models.CertificateType, error) {
	var certificateType models.CertificateType
	if err := r.db.WithContext(ctx).First(&certificateType, id).Error; err != nil {
		return nil, err
	}
	return &certificateType, nil
}

// GetActiveByID ignores inactive types, they behave as not found
func (r *certificateTypeRepository) GetActiveByID(ctx context.Context, id uint) (*models.CertificateType, error) {
	var certificateType models.CertificateType
	err := r.db.WithContext(ctx).Where("activo = ?", true).First(&certificateType, id).Error
	if err != nil {
		return nil, err
	}
	return &certificateType, nil
}

func (r *certificateTypeRepository) ListActive(ctx context.Context) ([]models.CertificateType, error) {
	var types []models.CertificateType
	err := r.db.WithContext(ctx).Where("activo = ?", true).Order("id ASC").Find(&types).Error
	return types, err
}
