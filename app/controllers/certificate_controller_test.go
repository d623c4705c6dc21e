package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/CertiFox/app/models"
	"github.com/ManuelReschke/CertiFox/app/repository"
	"github.com/ManuelReschke/CertiFox/internal/pkg/certificate"
	"github.com/ManuelReschke/CertiFox/internal/pkg/database"
	"github.com/ManuelReschke/CertiFox/internal/pkg/ledger"
	"github.com/ManuelReschke/CertiFox/internal/pkg/mail"
	"github.com/ManuelReschke/CertiFox/internal/pkg/notify"
	"github.com/ManuelReschke/CertiFox/internal/pkg/statistics"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	got      []notify.Notification
	err      error
	statsErr error
}

func (f *fakeDispatcher) Submit(_ context.Context, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, n)
	return nil
}

func (f *fakeDispatcher) Stats(context.Context) (notify.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statsErr != nil {
		return notify.Stats{}, f.statsErr
	}
	return notify.Stats{Backend: "fake", Pending: int64(len(f.got))}, nil
}

func (f *fakeDispatcher) Close() {}

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type testServer struct {
	app        *fiber.App
	repos      *repository.Repositories
	dispatcher *fakeDispatcher
	mailer     *fakeMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.OpenInMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	repos := repository.NewRepositories(db)

	renderer := certificate.NewRenderer(certificate.Config{
		Profile:      certificate.ProfileV2,
		TemplatesDir: t.TempDir(),
		FontsDir:     filepath.Join(t.TempDir(), "missing"),
	})
	dispatcher := &fakeDispatcher{}
	mailer := &fakeMailer{}

	cc := NewCertificateController(Dependencies{
		Repositories: repos,
		Ledger:       ledger.New(repos, renderer.Profile()),
		Renderer:     renderer,
		Dispatcher:   dispatcher,
		Deliverer:    notify.NewDeliverer(mailer, nil),
		Statistics:   statistics.NewService(repos, nil),
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	api := app.Group("/api")
	api.Get("/certificados", cc.HandleListCertificateTypes)
	api.Get("/certificados/:id", cc.HandleGetCertificateType)
	api.Post("/procesar-pago", cc.HandleProcessPayment)
	api.Get("/certificado/:id", cc.HandleGetCertificate)
	api.Get("/donacion/:id/certificados", cc.HandleDonationCertificates)
	api.Get("/mis-certificados/:email", cc.HandleCertificatesByEmail)
	api.Post("/reenviar-certificado/:id", cc.HandleResendCertificate)
	api.Get("/estadisticas", cc.HandleStatistics)
	api.Get("/check-db", cc.HandleCheckDB)
	api.Get("/notificaciones/estado", cc.HandleNotificationStatus)

	return &testServer{app: app, repos: repos, dispatcher: dispatcher, mailer: mailer}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, []byte, http.Header) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data, resp.Header
}

func twoItemPayment() fiber.Map {
	return fiber.Map{
		"nombre_titular": "Juan Pérez",
		"email":          "juan@example.com",
		"items": []fiber.Map{
			{"nombre": "Árbol", "precio": 500, "cantidad": 2, "nombre_beneficiario": "María García", "mensaje": "Con cariño"},
			{"nombre": "Beca", "precio": 1000, "cantidad": 1},
		},
	}
}

func pay(t *testing.T, s *testServer) (uint, string) {
	t.Helper()
	status, body, headers := s.do(t, fiber.MethodPost, "/api/procesar-pago", twoItemPayment())
	require.Equal(t, fiber.StatusOK, status, string(body))
	var donationID uint
	require.NoError(t, json.Unmarshal([]byte(headers.Get("X-Donacion-ID")), &donationID))
	return donationID, headers.Get("X-Folio")
}

func firstDetailID(t *testing.T, s *testServer, donationID uint) uint {
	t.Helper()
	details, err := s.repos.Certificate.ListByDonation(context.Background(), donationID)
	require.NoError(t, err)
	require.NotEmpty(t, details)
	return details[0].ID
}

func TestCatalog(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	active := &models.CertificateType{Name: "Árbol", Price: 500, Active: true}
	inactive := &models.CertificateType{Name: "Retirado", Price: 1, Active: false}
	require.NoError(t, s.repos.CertificateType.Create(ctx, active))
	require.NoError(t, s.repos.CertificateType.Create(ctx, inactive))

	status, body, _ := s.do(t, fiber.MethodGet, "/api/certificados", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list struct {
		Certificados []certificateTypeResponse `json:"certificados"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Certificados, 1)
	assert.Equal(t, models.DefaultCertificateImageURL, list.Certificados[0].ImageURL)

	status, _, _ = s.do(t, fiber.MethodGet, "/api/certificados/"+itoa(active.ID), nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, body, _ = s.do(t, fiber.MethodGet, "/api/certificados/"+itoa(inactive.ID), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"Certificado no encontrado"}`, string(body))
}

func TestProcessPayment_TwoItems(t *testing.T) {
	s := newTestServer(t)

	status, body, headers := s.do(t, fiber.MethodPost, "/api/procesar-pago", twoItemPayment())
	require.Equal(t, fiber.StatusOK, status, string(body))

	assert.Equal(t, "2", headers.Get("X-Certificados"))
	assert.Equal(t, "true", headers.Get("X-Email-Enviado"))
	assert.Regexp(t, `^DON-\d{8}-[0-9A-F]{6}$`, headers.Get("X-Folio"))
	assert.Contains(t, headers.Get("Content-Disposition"), "attachment")
	assert.Contains(t, headers.Get("Content-Disposition"), "certificado_Mar")
	assert.Equal(t, "image/png", headers.Get("Content-Type"))

	_, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)

	require.Len(t, s.dispatcher.got, 1)
	n := s.dispatcher.got[0]
	assert.Equal(t, "juan@example.com", n.Email)
	assert.Equal(t, "María García", n.Name)
	assert.Equal(t, headers.Get("X-Folio"), n.Folio)
	assert.Equal(t, body, n.Image)
}

func TestProcessPayment_DispatchFailureStillSucceeds(t *testing.T) {
	s := newTestServer(t)
	s.dispatcher.err = errors.New("queue full")

	status, _, headers := s.do(t, fiber.MethodPost, "/api/procesar-pago", twoItemPayment())
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "false", headers.Get("X-Email-Enviado"))
}

func TestProcessPayment_Validation(t *testing.T) {
	s := newTestServer(t)

	status, body, _ := s.do(t, fiber.MethodPost, "/api/procesar-pago", fiber.Map{"email": "x@example.com"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(body), `"error"`)

	req := httptest.NewRequest(fiber.MethodPost, "/api/procesar-pago", strings.NewReader("{not json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	retired := &models.CertificateType{Name: "Retirado", Price: 1, Active: false}
	require.NoError(t, s.repos.CertificateType.Create(context.Background(), retired))
	status, body, _ = s.do(t, fiber.MethodPost, "/api/procesar-pago", fiber.Map{
		"nombre_titular": "Juan Pérez",
		"email":          "juan@example.com",
		"items":          []fiber.Map{{"certificado_id": retired.ID, "nombre": "Retirado", "precio": 1, "cantidad": 1}},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(body), "no está disponible")
	assert.Empty(t, s.dispatcher.got)
}

func TestGetCertificate_FormatsAndCounter(t *testing.T) {
	s := newTestServer(t)
	donationID, folio := pay(t, s)
	detailID := firstDetailID(t, s, donationID)
	base := "/api/certificado/" + itoa(detailID)

	status, body, _ := s.do(t, fiber.MethodGet, base+"?formato=json", nil)
	require.Equal(t, fiber.StatusOK, status)
	var spec certificate.Spec
	require.NoError(t, json.Unmarshal(body, &spec))
	assert.Equal(t, "María García", spec.BeneficiaryName)
	assert.True(t, strings.HasPrefix(spec.Folio, folio))

	status, _, headers := s.do(t, fiber.MethodGet, base, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, headers.Get("Content-Disposition"), "inline")

	status, _, headers = s.do(t, fiber.MethodGet, base+"?formato=bogus", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, headers.Get("Content-Disposition"), "inline")

	status, _, headers = s.do(t, fiber.MethodGet, base+"?formato=download", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, headers.Get("Content-Disposition"), "attachment")

	status, body, headers = s.do(t, fiber.MethodGet, base+"?formato=pdf", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "application/pdf", headers.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	detail, err := s.repos.Certificate.GetDetail(context.Background(), detailID)
	require.NoError(t, err)
	require.NotNil(t, detail.Generated)
	assert.Equal(t, 5, detail.Generated.DownloadCount)
	assert.NotNil(t, detail.Generated.LastDownloadAt)
}

func TestGetCertificate_NotFound(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/certificado/999", "/api/certificado/abc", "/api/certificado/0?formato=json"} {
		status, body, _ := s.do(t, fiber.MethodGet, path, nil)
		assert.Equal(t, fiber.StatusNotFound, status, path)
		assert.JSONEq(t, `{"error":"Certificado no encontrado"}`, string(body), path)
	}
}

func TestListings(t *testing.T) {
	s := newTestServer(t)
	donationID, _ := pay(t, s)

	status, body, _ := s.do(t, fiber.MethodGet, "/api/donacion/"+itoa(donationID)+"/certificados", nil)
	require.Equal(t, fiber.StatusOK, status)
	var byDonation struct {
		DonationID   uint                         `json:"donacion_id"`
		Certificados []ledger.DonationCertificate `json:"certificados"`
	}
	require.NoError(t, json.Unmarshal(body, &byDonation))
	assert.Equal(t, donationID, byDonation.DonationID)
	require.Len(t, byDonation.Certificados, 2)
	assert.InDelta(t, 1000.0, byDonation.Certificados[0].Amount, 0.001)

	status, body, _ = s.do(t, fiber.MethodGet, "/api/mis-certificados/juan@example.com", nil)
	require.Equal(t, fiber.StatusOK, status)
	var byEmail struct {
		Email string `json:"email"`
		Total int    `json:"total_certificados"`
	}
	require.NoError(t, json.Unmarshal(body, &byEmail))
	assert.Equal(t, "juan@example.com", byEmail.Email)
	assert.Equal(t, 2, byEmail.Total)

	status, body, _ = s.do(t, fiber.MethodGet, "/api/mis-certificados/nadie@example.com", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"certificados":[]`)
}

func TestResendCertificate(t *testing.T) {
	s := newTestServer(t)
	donationID, _ := pay(t, s)
	detailID := firstDetailID(t, s, donationID)

	status, body, _ := s.do(t, fiber.MethodPost, "/api/reenviar-certificado/"+itoa(detailID), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"success":true,"message":"Certificado reenviado correctamente"}`, string(body))
	require.Len(t, s.mailer.sent, 1)
	assert.Equal(t, "juan@example.com", s.mailer.sent[0].To)

	s.mailer.err = errors.New("smtp down")
	status, body, _ = s.do(t, fiber.MethodPost, "/api/reenviar-certificado/"+itoa(detailID), nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.JSONEq(t, `{"error":"Error al enviar el email"}`, string(body))

	detail, err := s.repos.Certificate.GetDetail(context.Background(), detailID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Generated.DownloadCount)

	status, _, _ = s.do(t, fiber.MethodPost, "/api/reenviar-certificado/4242", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestStatisticsAndCheckDB(t *testing.T) {
	s := newTestServer(t)
	pay(t, s)

	status, body, _ := s.do(t, fiber.MethodGet, "/api/estadisticas", nil)
	require.Equal(t, fiber.StatusOK, status)
	var summary statistics.Summary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, int64(1), summary.Totals.Count)
	assert.InDelta(t, 2000.0, summary.Totals.Amount, 0.001)
	assert.Equal(t, int64(2), summary.Certificates.Generated)

	status, body, _ = s.do(t, fiber.MethodGet, "/api/check-db", nil)
	require.Equal(t, fiber.StatusOK, status)
	var health statistics.Health
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, float64(2), health.Tables["donacion_detalles"])
	assert.Len(t, health.RecentDonations, 1)
}

func TestNotificationStatus(t *testing.T) {
	s := newTestServer(t)
	pay(t, s)

	status, body, _ := s.do(t, fiber.MethodGet, "/api/notificaciones/estado", nil)
	require.Equal(t, fiber.StatusOK, status)
	var stats notify.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, "fake", stats.Backend)
	assert.Equal(t, int64(1), stats.Pending)

	s.dispatcher.mu.Lock()
	s.dispatcher.statsErr = errors.New("redis down")
	s.dispatcher.mu.Unlock()
	status, body, _ = s.do(t, fiber.MethodGet, "/api/notificaciones/estado", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Contains(t, string(body), "no disponible")
}
