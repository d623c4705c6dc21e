package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountToCents(t *testing.T) {
	assert.Equal(t, int64(500000), AmountToCents(5000))
	assert.Equal(t, int64(1999), AmountToCents(19.99))
	assert.Equal(t, int64(30), AmountToCents(0.1+0.2))
	assert.Equal(t, 19.99, CentsToAmount(1999))
}

func TestDonationDetail_Amount(t *testing.T) {
	d := DonationDetail{UnitPrice: 0.1, Quantity: 3}
	assert.Equal(t, 0.3, d.Amount())

	d = DonationDetail{UnitPrice: 1500, Quantity: 2}
	assert.Equal(t, 3000.0, d.Amount())
}

func TestCertificateType_PublicImageURL(t *testing.T) {
	c := CertificateType{}
	assert.Equal(t, DefaultCertificateImageURL, c.PublicImageURL())

	c.ImageURL = "/static/arbol.jpg"
	assert.Equal(t, "/static/arbol.jpg", c.PublicImageURL())
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "certificados", CertificateType{}.TableName())
	assert.Equal(t, "donaciones", Donation{}.TableName())
	assert.Equal(t, "donacion_detalles", DonationDetail{}.TableName())
	assert.Equal(t, "certificados_generados", GeneratedCertificate{}.TableName())
}
