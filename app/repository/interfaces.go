package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/CertiFox/app/models"
)

// CertificateTypeRepository defines the catalog operations
type CertificateTypeRepository interface {
	Create(ctx context.Context, certificateType *models.CertificateType) error
	GetByID(ctx context.Context, id uint) (*models.CertificateType, error)
	GetActiveByID(ctx context.Context, id uint) (*models.CertificateType, error)
	ListActive(ctx context.Context) ([]models.CertificateType, error)
}

// DonationRepository defines the ledger write path and donation reads
type DonationRepository interface {
	// CreateWithDetails writes the donation, its details and one generated
	// record per detail in a single transaction
	CreateWithDetails(ctx context.Context, donation *models.Donation) error
	GetByID(ctx context.Context, id uint) (*models.Donation, error)
	Recent(ctx context.Context, limit int) ([]models.Donation, error)
}

// CertificateRepository defines reads over issued certificates and the
// download counter
type CertificateRepository interface {
	GetDetail(ctx context.Context, detailID uint) (*models.DonationDetail, error)
	ListByDonation(ctx context.Context, donationID uint) ([]models.DonationDetail, error)
	ListByEmail(ctx context.Context, email string) ([]models.DonationDetail, error)
	// RecordDownload atomically bumps the counter; false when the detail has no generated record
	RecordDownload(ctx context.Context, detailID uint, at time.Time) (bool, error)
}

// StatisticsRepository defines the aggregate queries behind the stats and
// diagnostics endpoints
type StatisticsRepository interface {
	DonationTotals(ctx context.Context, from, to *time.Time) (models.DonationTotals, error)
	AverageDonation(ctx context.Context) (float64, error)
	TopCertificates(ctx context.Context, limit int) ([]models.TopCertificate, error)
	GeneratedCount(ctx context.Context) (int64, error)
	DownloadCount(ctx context.Context) (int64, error)
	// TableCounts returns a row count per table, -1 when the table is missing
	TableCounts(ctx context.Context, tables []string) (map[string]int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	CertificateType CertificateTypeRepository
	Donation        DonationRepository
	Certificate     CertificateRepository
	Statistics      StatisticsRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		CertificateType: NewCertificateTypeRepository(db),
		Donation:        NewDonationRepository(db),
		Certificate:     NewCertificateRepository(db),
		Statistics:      NewStatisticsRepository(db),
	}
}
