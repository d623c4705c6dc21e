package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetCertificateTypeRepository returns the catalog repository instance
func (f *Factory) GetCertificateTypeRepository() CertificateTypeRepository {
	return f.GetRepositories().CertificateType
}

// GetDonationRepository returns the donation repository instance
func (f *Factory) GetDonationRepository() DonationRepository {
	return f.GetRepositories().Donation
}

// GetCertificateRepository returns the issued certificate repository instance
func (f *Factory) GetCertificateRepository() CertificateRepository {
	return f.GetRepositories().Certificate
}

// GetStatisticsRepository returns the statistics repository instance
func (f *Factory) GetStatisticsRepository() StatisticsRepository {
	return f.GetRepositories().Statistics
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
