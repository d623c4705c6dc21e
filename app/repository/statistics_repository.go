package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/CertiFox/app/models"
)

// statisticsRepository implements the StatisticsRepository interface
type statisticsRepository struct {
	db *gorm.DB
}

// NewStatisticsRepository creates a new statistics repository instance
func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

// DonationTotals counts completed donations with fecha in [from, to).
// A nil bound is open.
func (r *statisticsRepository) DonationTotals(ctx context.Context, from, to *time.Time) (models.DonationTotals, error) {
	var row struct {
		Count  int64
		Amount float64
	}
	q := r.db.WithContext(ctx).Model(&models.Donation{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total), 0) AS amount").
		Where("estado = ?", models.DonationStatusCompleted)
	if from != nil {
		q = q.Where("fecha >= ?", *from)
	}
	if to != nil {
		q = q.Where("fecha < ?", *to)
	}
	if err := q.Scan(&row).Error; err != nil {
		return models.DonationTotals{}, err
	}
	return models.DonationTotals{Count: row.Count, Amount: row.Amount}, nil
}

func (r *statisticsRepository) AverageDonation(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).Model(&models.Donation{}).
		Select("COALESCE(AVG(total), 0)").
		Where("estado = ?", models.DonationStatusCompleted).
		Scan(&avg).Error
	return avg, err
}

// TopCertificates ranks snapshotted certificate names by revenue
func (r *statisticsRepository) TopCertificates(ctx context.Context, limit int) ([]models.TopCertificate, error) {
	var rows []models.TopCertificate
	err := r.db.WithContext(ctx).Model(&models.DonationDetail{}).
		Select("nombre_certificado AS name, SUM(cantidad) AS quantity, SUM(cantidad * precio_unitario) AS revenue").
		Group("nombre_certificado").
		Order("revenue DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *statisticsRepository) GeneratedCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GeneratedCertificate{}).Count(&count).Error
	return count, err
}

func (r *statisticsRepository) DownloadCount(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.GeneratedCertificate{}).
		Select("COALESCE(SUM(veces_descargado), 0)").
		Scan(&total).Error
	return total, err
}

func (r *statisticsRepository) TableCounts(ctx context.Context, tables []string) (map[string]int64, error) {
	db := r.db.WithContext(ctx)
	counts := make(map[string]int64, len(tables))
	for _, table := range tables {
		if !db.Migrator().HasTable(table) {
			counts[table] = -1
			continue
		}
		var count int64
		if err := db.Table(table).Count(&count).Error; err != nil {
			return nil, err
		}
		counts[table] = count
	}
	return counts, nil
}
