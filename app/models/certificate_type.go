package models

import (
	"time"
)

const DefaultCertificateImageURL = "/static/default-cert.jpg"

// CertificateType is a purchasable certificate offered in the catalog
type CertificateType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"column:nombre;type:varchar(255);not null" json:"nombre" validate:"required,max=255"`
	Description string    `gorm:"column:descripcion;type:text" json:"descripcion"`
	Price       float64   `gorm:"column:precio;type:decimal(12,2);not null" json:"precio" validate:"gte=0"`
	ImageURL    string    `gorm:"column:imagen_url;type:varchar(512)" json:"imagen_url"`
	Active      bool      `gorm:"column:activo;not null;index" json:"activo"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
}

// TableName specifies the table name for the CertificateType model
func (CertificateType) TableName() string {
	return "certificados"
}

// PublicImageURL returns the configured image or the catalog default
func (c *CertificateType) PublicImageURL() string {
	if c.ImageURL == "" {
		return DefaultCertificateImageURL
	}
	return c.ImageURL
}
