package services

import (
	"errors"
	"fmt"

	"fundflow-service/internal/models"

	"gorm.io/gorm"
)

// SettingsService owns the platform_settings singleton row. Fee changes are
// prospective only; withdrawals snapshot the fee at request time.
type SettingsService struct {
	DB *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{DB: db}
}

// Get returns the settings row, creating it with defaults on first access.
func (s *SettingsService) Get() (*models.PlatformSettings, error) {
	var settings models.PlatformSettings
	err := s.DB.Where("id = ?", 1).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.PlatformSettings{
			ID:                    1,
			PlatformFeePercentage: 2.50,
			MinimumDonation:       10.00,
		}
		if err := s.DB.Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

type UpdateSettingsDTO struct {
	PlatformFeePercentage *float64 `json:"platform_fee_percentage"`
	MinimumDonation       *float64 `json:"minimum_donation"`
	UpdatedBy             string   `json:"-"`
}

func (s *SettingsService) Update(data UpdateSettingsDTO) (*models.PlatformSettings, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	if data.PlatformFeePercentage != nil {
		pct := *data.PlatformFeePercentage
		if pct < 0 || pct > 100 {
			return nil, fmt.Errorf("platform fee percentage must be between 0 and 100")
		}
		settings.PlatformFeePercentage = pct
	}
	if data.MinimumDonation != nil {
		if *data.MinimumDonation < 0 {
			return nil, ErrInvalidAmount
		}
		settings.MinimumDonation = *data.MinimumDonation
	}
	settings.UpdatedBy = data.UpdatedBy

	if err := s.DB.Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}
