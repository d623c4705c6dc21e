package models

// DonationDetail is one purchased line of a donation. Name and unit price are
// snapshots taken at purchase time; Template is the resolved template
// reference, empty on rows written before the column existed.
type DonationDetail struct {
	ID                uint                  `gorm:"primaryKey" json:"id"`
	DonationID        uint                  `gorm:"column:donacion_id;not null;index" json:"donacion_id"`
	CertificateTypeID *uint                 `gorm:"column:certificado_id;index" json:"certificado_id"`
	Quantity          int                   `gorm:"column:cantidad;not null" json:"cantidad"`
	UnitPrice         float64               `gorm:"column:precio_unitario;type:decimal(12,2);not null" json:"precio_unitario"`
	CertificateName   string                `gorm:"column:nombre_certificado;type:varchar(255);not null" json:"nombre_certificado"`
	BeneficiaryName   string                `gorm:"column:nombre_beneficiario;type:varchar(255)" json:"nombre_beneficiario"`
	Message           string                `gorm:"column:mensaje_personalizado;type:text" json:"mensaje_personalizado"`
	LineFolio         string                `gorm:"column:folio_certificado;type:varchar(96);index" json:"folio_certificado"`
	Template          string                `gorm:"column:plantilla;type:varchar(512)" json:"plantilla"`
	Donation          *Donation             `gorm:"foreignKey:DonationID" json:"-"`
	CertificateType   *CertificateType      `gorm:"foreignKey:CertificateTypeID" json:"-"`
	Generated         *GeneratedCertificate `gorm:"foreignKey:DonationDetailID" json:"-"`
}

// TableName specifies the table name for the DonationDetail model
func (DonationDetail) TableName() string {
	return "donacion_detalles"
}

// Amount is quantity times the snapshotted unit price, rounded to cents
func (d *DonationDetail) Amount() float64 {
	return CentsToAmount(AmountToCents(d.UnitPrice) * int64(d.Quantity))
}
