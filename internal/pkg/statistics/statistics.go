// Package statistics builds the donation dashboard and the database check,
// caching the dashboard in redis when a client is available.
package statistics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/CertiFox/app/models"
	"github.com/ManuelReschke/CertiFox/app/repository"
	"github.com/ManuelReschke/CertiFox/internal/pkg/apperr"
)

const (
	CacheKeySummary = "statistics:donations:summary"
	CacheExpiration = time.Minute
	TopLimit        = 5
	RecentLimit     = 5
)

// Tables checked by Health
var Tables = []string{"certificados", "donaciones", "donacion_detalles", "certificados_generados"}

type Totals struct {
	Count   int64   `json:"donaciones"`
	Amount  float64 `json:"monto"`
	Average float64 `json:"promedio"`
}

type CertificateCounts struct {
	Generated int64 `json:"generados"`
	Downloads int64 `json:"descargas"`
}

// Summary is the dashboard payload
type Summary struct {
	Totals          Totals                  `json:"totales"`
	Today           models.DonationTotals   `json:"hoy"`
	Month           models.DonationTotals   `json:"mes"`
	Certificates    CertificateCounts       `json:"certificados"`
	TopCertificates []models.TopCertificate `json:"top_certificados"`
}

// Health is the database diagnostic payload
type Health struct {
	Status          string                  `json:"status"`
	Timestamp       string                  `json:"timestamp"`
	Tables          map[string]interface{}  `json:"tablas"`
	RecentDonations []models.RecentDonation `json:"ultimas_donaciones"`
}

// Service computes statistics from the repositories
type Service struct {
	stats     repository.StatisticsRepository
	donations repository.DonationRepository
	client    *redis.Client
	now       func() time.Time
}

// NewService creates the service; client may be nil to disable caching
func NewService(repos *repository.Repositories, client *redis.Client) *Service {
	return &Service{
		stats:     repos.Statistics,
		donations: repos.Donation,
		client:    client,
		now:       time.Now,
	}
}

// Summary returns the cached dashboard or recomputes it
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	if cached := s.cached(ctx); cached != nil {
		return cached, nil
	}

	summary, err := s.compute(ctx)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	s.store(ctx, summary)
	return summary, nil
}

// Invalidate drops the cached dashboard, called after every payment
func (s *Service) Invalidate(ctx context.Context) {
	if s.client == nil {
		return
	}
	if err := s.client.Del(ctx, CacheKeySummary).Err(); err != nil {
		log.Warnf("[Statistics] Failed to invalidate cache: %v", err)
	}
}

func (s *Service) cached(ctx context.Context) *Summary {
	if s.client == nil {
		return nil
	}
	raw, err := s.client.Get(ctx, CacheKeySummary).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warnf("[Statistics] Cache read failed: %v", err)
		}
		return nil
	}
	var summary Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		log.Warnf("[Statistics] Dropping unreadable cache entry: %v", err)
		return nil
	}
	return &summary
}

func (s *Service) store(ctx context.Context, summary *Summary) {
	if s.client == nil {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, CacheKeySummary, data, CacheExpiration).Err(); err != nil {
		log.Warnf("[Statistics] Cache write failed: %v", err)
	}
}

func (s *Service) compute(ctx context.Context) (*Summary, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	all, err := s.stats.DonationTotals(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	avg, err := s.stats.AverageDonation(ctx)
	if err != nil {
		return nil, err
	}
	today, err := s.stats.DonationTotals(ctx, &dayStart, &dayEnd)
	if err != nil {
		return nil, err
	}
	month, err := s.stats.DonationTotals(ctx, &monthStart, &monthEnd)
	if err != nil {
		return nil, err
	}
	generated, err := s.stats.GeneratedCount(ctx)
	if err != nil {
		return nil, err
	}
	downloads, err := s.stats.DownloadCount(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.stats.TopCertificates(ctx, TopLimit)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []models.TopCertificate{}
	}

	return &Summary{
		Totals:          Totals{Count: all.Count, Amount: all.Amount, Average: models.RoundAmount(avg)},
		Today:           today,
		Month:           month,
		Certificates:    CertificateCounts{Generated: generated, Downloads: downloads},
		TopCertificates: top,
	}, nil
}

// Health reports table row counts and the latest donations. Never cached.
func (s *Service) Health(ctx context.Context) (*Health, error) {
	counts, err := s.stats.TableCounts(ctx, Tables)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	tables := make(map[string]interface{}, len(counts))
	for name, count := range counts {
		if count < 0 {
			tables[name] = "Error - no existe"
			continue
		}
		tables[name] = count
	}

	recent, err := s.donations.Recent(ctx, RecentLimit)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	rows := make([]models.RecentDonation, 0, len(recent))
	for _, d := range recent {
		rows = append(rows, models.RecentDonation{
			Folio:     d.Folio,
			PayerName: d.PayerName,
			Total:     d.Total,
			Date:      d.Date.Format("2006-01-02 15:04:05"),
		})
	}

	return &Health{
		Status:          "ok",
		Timestamp:       s.now().Format(time.RFC3339),
		Tables:          tables,
		RecentDonations: rows,
	}, nil
}
