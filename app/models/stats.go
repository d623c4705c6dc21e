package models

// DonationTotals aggregates a set of donations
type DonationTotals struct {
	Count  int64   `json:"donaciones"`
	Amount float64 `json:"monto"`
}

// TopCertificate is one row of the revenue ranking
type TopCertificate struct {
	Name     string  `json:"nombre"`
	Quantity int64   `json:"cantidad"`
	Revenue  float64 `json:"recaudado"`
}

// RecentDonation is the short form used by diagnostics
type RecentDonation struct {
	Folio     string  `json:"folio"`
	PayerName string  `json:"nombre_titular"`
	Total     float64 `json:"total"`
	Date      string  `json:"fecha"`
}
