package statistics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/CertiFox/app/models"
	"github.com/ManuelReschke/CertiFox/app/repository"
	"github.com/ManuelReschke/CertiFox/internal/pkg/database"
)

var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, client *redis.Client) (*Service, *repository.Repositories) {
	t.Helper()
	db, err := database.OpenInMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	repos := repository.NewRepositories(db)
	svc := NewService(repos, client)
	svc.now = func() time.Time { return fixedNow }
	return svc, repos
}

func seed(t *testing.T, repos *repository.Repositories, folio string, at time.Time, name string, qty int, price float64) {
	t.Helper()
	d := &models.Donation{
		PayerName: "Ana",
		Email:     "ana@example.com",
		Date:      at,
		Status:    models.DonationStatusCompleted,
		Folio:     folio,
		Total:     float64(qty) * price,
		Details: []models.DonationDetail{{
			Quantity:        qty,
			UnitPrice:       price,
			CertificateName: name,
			BeneficiaryName: "Ana",
			LineFolio:       folio + "-GEN",
			Generated:       &models.GeneratedCertificate{DonorName: "Ana", DonorEmail: "ana@example.com"},
		}},
	}
	require.NoError(t, repos.Donation.CreateWithDetails(context.Background(), d))
}

func TestSummary_Aggregates(t *testing.T) {
	svc, repos := newTestService(t, nil)
	seed(t, repos, "F-TODAY", fixedNow.Add(-time.Hour), "Árbol", 2, 100)
	seed(t, repos, "F-MONTH", time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC), "Beca", 1, 1000)
	seed(t, repos, "F-OLD", time.Date(2023, time.December, 24, 9, 0, 0, 0, time.UTC), "Árbol", 1, 100)

	s, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), s.Totals.Count)
	assert.InDelta(t, 1300.0, s.Totals.Amount, 0.001)
	assert.InDelta(t, 433.33, s.Totals.Average, 0.001)
	assert.Equal(t, models.DonationTotals{Count: 1, Amount: 200}, s.Today)
	assert.Equal(t, models.DonationTotals{Count: 2, Amount: 1200}, s.Month)
	assert.Equal(t, CertificateCounts{Generated: 3, Downloads: 0}, s.Certificates)
	require.Len(t, s.TopCertificates, 2)
	assert.Equal(t, "Beca", s.TopCertificates[0].Name)
	assert.Equal(t, "Árbol", s.TopCertificates[1].Name)
	assert.Equal(t, int64(3), s.TopCertificates[1].Quantity)
}

func TestSummary_EmptyDatabase(t *testing.T) {
	svc, _ := newTestService(t, nil)

	s, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, s.Totals.Count)
	assert.NotNil(t, s.TopCertificates)
}

func TestSummary_CachedUntilInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, repos := newTestService(t, client)
	ctx := context.Background()
	seed(t, repos, "F-1", fixedNow, "Árbol", 1, 100)

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Totals.Count)
	assert.True(t, mr.Exists(CacheKeySummary))
	assert.Equal(t, CacheExpiration, mr.TTL(CacheKeySummary))

	seed(t, repos, "F-2", fixedNow, "Árbol", 1, 100)
	stale, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stale.Totals.Count)

	svc.Invalidate(ctx)
	fresh, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.Totals.Count)
}

func TestHealth(t *testing.T) {
	svc, repos := newTestService(t, nil)
	for i, folio := range []string{"F-1", "F-2", "F-3", "F-4", "F-5", "F-6"} {
		seed(t, repos, folio, fixedNow.Add(time.Duration(i)*time.Minute), "Árbol", 1, 100)
	}

	h, err := svc.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, int64(6), h.Tables["donaciones"])
	assert.Equal(t, int64(6), h.Tables["certificados_generados"])
	assert.Equal(t, int64(0), h.Tables["certificados"])
	require.Len(t, h.RecentDonations, RecentLimit)
	assert.Equal(t, "F-6", h.RecentDonations[0].Folio)
	assert.Equal(t, "2024-03-15 12:05:00", h.RecentDonations[0].Date)
}
