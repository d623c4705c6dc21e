package models

import (
	"time"
)

// GeneratedCertificate tracks delivery of one line's certificate. It is
// created with the line and never deleted.
type GeneratedCertificate struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	DonationDetailID uint       `gorm:"column:donacion_detalle_id;uniqueIndex;not null" json:"donacion_detalle_id"`
	DonorName        string     `gorm:"column:nombre_donante;type:varchar(255)" json:"nombre_donante"`
	DonorEmail       string     `gorm:"column:email_donante;type:varchar(255)" json:"email_donante"`
	BeneficiaryName  string     `gorm:"column:nombre_beneficiario;type:varchar(255)" json:"nombre_beneficiario"`
	Message          string     `gorm:"column:mensaje;type:text" json:"mensaje"`
	DownloadCount    int        `gorm:"column:veces_descargado;not null;default:0" json:"veces_descargado"`
	LastDownloadAt   *time.Time `gorm:"column:ultima_descarga" json:"ultima_descarga"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the GeneratedCertificate model
func (GeneratedCertificate) TableName() string {
	return "certificados_generados"
}
