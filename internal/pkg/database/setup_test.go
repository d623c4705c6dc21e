package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/CertiFox/app/models"
)

func TestOpenInMemory_CreatesSchema(t *testing.T) {
	db, err := OpenInMemory(t.Name())
	require.NoError(t, err)

	for _, table := range []string{"certificados", "donaciones", "donacion_detalles", "certificados_generados"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasColumn(&models.DonationDetail{}, "plantilla"))
}

func TestOpenInMemory_IsolatedByName(t *testing.T) {
	a, err := OpenInMemory(t.Name() + "_a")
	require.NoError(t, err)
	b, err := OpenInMemory(t.Name() + "_b")
	require.NoError(t, err)

	require.NoError(t, a.Create(&models.CertificateType{Name: "Árbol", Price: 100, Active: true}).Error)

	var count int64
	require.NoError(t, b.Model(&models.CertificateType{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
