package services

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"fundflow-service/internal/models"
	"fundflow-service/pkg/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	aadhaarPattern = regexp.MustCompile(`^[0-9]{12}$`)
	ifscPattern    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	upiPattern     = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,}@[a-zA-Z]{2,}$`)
)

// KYCService owns the identity-verification state machine:
// not_submitted -> pending -> approved | rejected, with rejected -> pending
// on resubmission. Approved records are immutable until an admin acts.
type KYCService struct {
	DB *gorm.DB
}

func NewKYCService(db *gorm.DB) *KYCService {
	return &KYCService{DB: db}
}

type SubmitKYCDTO struct {
	UserId            string `json:"-"`
	PanNumber         string `json:"pan_number" binding:"required"`
	AadhaarNumber     string `json:"aadhaar_number" binding:"required"`
	BankAccountNumber string `json:"bank_account_number"`
	BankIfsc          string `json:"bank_ifsc"`
	BankAccountHolder string `json:"bank_account_holder"`
	UpiId             string `json:"upi_id"`
}

// KYCView is the masked read projection. Full identity and account numbers
// never leave the service.
type KYCView struct {
	Status              string     `json:"status"`
	PanMasked           string     `json:"pan_masked,omitempty"`
	AadhaarLastFour     string     `json:"aadhaar_last_four,omitempty"`
	BankAccountLastFour string     `json:"bank_account_last_four,omitempty"`
	BankIfsc            string     `json:"bank_ifsc,omitempty"`
	BankAccountHolder   string     `json:"bank_account_holder,omitempty"`
	UpiId               string     `json:"upi_id,omitempty"`
	RejectionReason     string     `json:"rejection_reason,omitempty"`
	SubmittedAt         *time.Time `json:"submitted_at,omitempty"`
	ReviewedAt          *time.Time `json:"reviewed_at,omitempty"`
}

func (d *SubmitKYCDTO) validate() error {
	if !panPattern.MatchString(d.PanNumber) {
		return fmt.Errorf("invalid PAN format")
	}
	if !aadhaarPattern.MatchString(d.AadhaarNumber) {
		return fmt.Errorf("aadhaar must be a 12 digit number")
	}

	hasBank := d.BankAccountNumber != "" || d.BankIfsc != "" || d.BankAccountHolder != ""
	if hasBank {
		if d.BankAccountNumber == "" || d.BankIfsc == "" || d.BankAccountHolder == "" {
			return fmt.Errorf("bank details require account number, IFSC and account holder name")
		}
		if !ifscPattern.MatchString(d.BankIfsc) {
			return fmt.Errorf("invalid IFSC code")
		}
		if len(d.BankAccountNumber) < 9 || len(d.BankAccountNumber) > 18 {
			return fmt.Errorf("bank account number must be 9 to 18 digits")
		}
	}
	if d.UpiId != "" && !upiPattern.MatchString(d.UpiId) {
		return fmt.Errorf("invalid UPI id")
	}
	if !hasBank && d.UpiId == "" {
		return fmt.Errorf("at least one payout destination (bank account or UPI) is required")
	}
	return nil
}

// Submit files a verification request. A first submission creates the record
// in pending; submitting again while pending or after rejection overwrites
// the record's contents and (re)enters pending. Approved records are locked.
func (s *KYCService) Submit(data SubmitKYCDTO) (*KYCView, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}

	var existing models.KYCRecord
	err := s.DB.Where("user_id = ?", data.UserId).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err == nil {
		if existing.Status == models.KycApproved {
			return nil, fmt.Errorf("kyc is already approved")
		}

		// Resubmission replaces the record's contents wholesale.
		existing.PanNumber = data.PanNumber
		existing.AadhaarNumber = data.AadhaarNumber
		existing.BankAccountNumber = data.BankAccountNumber
		existing.BankIfsc = data.BankIfsc
		existing.BankAccountHolder = data.BankAccountHolder
		existing.UpiId = data.UpiId
		existing.Status = models.KycPending
		existing.RejectionReason = ""
		existing.ReviewedBy = ""
		existing.ReviewedAt = nil
		if err := s.DB.Save(&existing).Error; err != nil {
			return nil, err
		}
		return s.view(&existing), nil
	}

	record := models.KYCRecord{
		ID:                uuid.NewString(),
		UserId:            data.UserId,
		PanNumber:         data.PanNumber,
		AadhaarNumber:     data.AadhaarNumber,
		BankAccountNumber: data.BankAccountNumber,
		BankIfsc:          data.BankIfsc,
		BankAccountHolder: data.BankAccountHolder,
		UpiId:             data.UpiId,
		Status:            models.KycPending,
	}
	if err := s.DB.Create(&record).Error; err != nil {
		return nil, err
	}
	return s.view(&record), nil
}

// GetStatus returns the masked view of a user's record. Users with no record
// see not_submitted rather than an error.
func (s *KYCService) GetStatus(userId string) (*KYCView, error) {
	var record models.KYCRecord
	err := s.DB.Where("user_id = ?", userId).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &KYCView{Status: models.KycNotSubmitted}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.view(&record), nil
}

type ReviewKYCDTO struct {
	UserId  string
	Approve bool
	Reason  string
	AdminId string
}

// Review applies an admin decision to a pending record. Rejection requires
// a reason so the user knows what to fix on resubmission.
func (s *KYCService) Review(data ReviewKYCDTO) (*KYCView, error) {
	var record models.KYCRecord
	if err := s.DB.Where("user_id = ?", data.UserId).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no kyc submission found for user")
		}
		return nil, err
	}
	if record.Status != models.KycPending {
		return nil, fmt.Errorf("only pending submissions can be reviewed")
	}
	if !data.Approve && data.Reason == "" {
		return nil, fmt.Errorf("a rejection reason is required")
	}

	now := time.Now()
	record.ReviewedBy = data.AdminId
	record.ReviewedAt = &now
	if data.Approve {
		record.Status = models.KycApproved
		record.RejectionReason = ""
	} else {
		record.Status = models.KycRejected
		record.RejectionReason = data.Reason
	}

	if err := s.DB.Save(&record).Error; err != nil {
		return nil, err
	}
	return s.view(&record), nil
}

// ListPending returns the review queue, oldest submissions first.
func (s *KYCService) ListPending(page, limit int) ([]models.KYCRecord, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}

	query := s.DB.Model(&models.KYCRecord{}).Where("status = ?", models.KycPending)

	var total int64
	query.Count(&total)

	var records []models.KYCRecord
	err := query.Order("created_at ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&records).Error
	return records, total, err
}

func (s *KYCService) view(record *models.KYCRecord) *KYCView {
	view := &KYCView{
		Status:            record.Status,
		PanMasked:         common.MaskTail(record.PanNumber, 4),
		AadhaarLastFour:   common.LastN(record.AadhaarNumber, 4),
		BankIfsc:          record.BankIfsc,
		BankAccountHolder: record.BankAccountHolder,
		UpiId:             record.UpiId,
		RejectionReason:   record.RejectionReason,
		SubmittedAt:       &record.CreatedAt,
		ReviewedAt:        record.ReviewedAt,
	}
	if record.BankAccountNumber != "" {
		view.BankAccountLastFour = common.LastN(record.BankAccountNumber, 4)
	}
	return view
}
