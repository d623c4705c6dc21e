package models

import (
	"time"
)

const (
	DonationStatusCompleted = "completada"
)

// Donation is one payment. Rows are immutable except Status.
type Donation struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	PayerName   string           `gorm:"column:nombre_titular;type:varchar(255);not null" json:"nombre_titular"`
	Email       string           `gorm:"column:email;type:varchar(255);not null;index" json:"email"`
	Total       float64          `gorm:"column:total;type:decimal(12,2);not null" json:"total"`
	Date        time.Time        `gorm:"column:fecha;not null;index" json:"fecha"`
	Status      string           `gorm:"column:estado;type:varchar(32);not null;default:'completada'" json:"estado"`
	Folio       string           `gorm:"column:folio;type:varchar(64);uniqueIndex;not null" json:"folio"`
	Details     []DonationDetail `gorm:"foreignKey:DonationID" json:"detalles,omitempty"`
}

// TableName specifies the table name for the Donation model
func (Donation) TableName() string {
	return "donaciones"
}
