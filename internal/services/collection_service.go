package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fundflow-service/internal/models"
	"fundflow-service/pkg/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CollectionService covers the collection lifecycle around the ledger:
// creation, discovery and read projections. Balance math stays in
// LedgerService; this service only reads it.
type CollectionService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewCollectionService(db *gorm.DB, ledger *LedgerService) *CollectionService {
	return &CollectionService{DB: db, Ledger: ledger}
}

type Category struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

var categories = []Category{
	{Id: "celebration", Name: "Celebration", Icon: "party-popper"},
	{Id: "medical", Name: "Medical Emergency", Icon: "heart-pulse"},
	{Id: "festival", Name: "Festival", Icon: "sparkles"},
	{Id: "society", Name: "Society/Community", Icon: "home"},
	{Id: "social", Name: "Social Cause", Icon: "hand-heart"},
	{Id: "office", Name: "Office/Team", Icon: "briefcase"},
	{Id: "reunion", Name: "Reunion", Icon: "users"},
	{Id: "other", Name: "Other", Icon: "folder"},
}

var categoryCovers = map[string]string{
	"celebration": "https://images.unsplash.com/photo-1758272133831-510256416378",
	"medical":     "https://images.unsplash.com/photo-1581056771107-24ca5f033842",
	"festival":    "https://images.unsplash.com/photo-1599807502285-4b218782d601",
	"society":     "https://images.unsplash.com/photo-1556761175-5973dc0f32e7",
	"social":      "https://images.unsplash.com/photo-1708593343700-a101f8fe4d11",
	"office":      "https://images.unsplash.com/photo-1758691737182-d42aefd6dee8",
}

func (s *CollectionService) Categories() []Category {
	return categories
}

func defaultCoverImage(category string) string {
	if cover, ok := categoryCovers[strings.ToLower(category)]; ok {
		return cover
	}
	return categoryCovers["society"]
}

type CreateCollectionDTO struct {
	Title          string     `json:"title" binding:"required"`
	Description    string     `json:"description"`
	Category       string     `json:"category" binding:"required"`
	GoalAmount     float64    `json:"goal_amount" binding:"required"`
	Visibility     string     `json:"visibility"`
	Deadline       *time.Time `json:"deadline"`
	CoverImage     string     `json:"cover_image"`
	OrganizerId    string     `json:"-"`
	OrganizerName  string     `json:"organizer_name" binding:"required"`
	OrganizerEmail string     `json:"organizer_email" binding:"required,email"`
	OrganizerPhone string     `json:"organizer_phone"`
}

func (s *CollectionService) Create(data CreateCollectionDTO) (*models.Collection, error) {
	if data.GoalAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	if data.Deadline != nil && data.Deadline.Before(time.Now()) {
		return nil, fmt.Errorf("deadline must be in the future")
	}

	visibility := data.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if visibility != models.VisibilityPublic && visibility != models.VisibilityPrivate {
		return nil, fmt.Errorf("visibility must be public or private")
	}

	cover := data.CoverImage
	if cover == "" {
		cover = defaultCoverImage(data.Category)
	}

	collection := models.Collection{
		ID:             uuid.NewString(),
		Title:          data.Title,
		Description:    data.Description,
		Category:       data.Category,
		GoalAmount:     data.GoalAmount,
		Visibility:     visibility,
		Status:         models.CollectionActive,
		Deadline:       data.Deadline,
		CoverImage:     cover,
		ShareLink:      common.GenerateReference(),
		OrganizerId:    data.OrganizerId,
		OrganizerName:  data.OrganizerName,
		OrganizerEmail: data.OrganizerEmail,
		OrganizerPhone: data.OrganizerPhone,
	}
	if err := s.DB.Create(&collection).Error; err != nil {
		return nil, err
	}
	return &collection, nil
}

type ListCollectionsDTO struct {
	Category string
	Status   string
	Search   string
	Page     int
	Limit    int
}

// List returns public collections for discovery.
func (s *CollectionService) List(data ListCollectionsDTO) (common.PaginationResult, error) {
	limit := data.Limit
	if limit <= 0 {
		limit = 20
	}
	page := data.Page
	if page < 1 {
		page = 1
	}

	query := s.DB.Model(&models.Collection{}).Where("visibility = ?", models.VisibilityPublic)
	if data.Category != "" {
		query = query.Where("category = ?", data.Category)
	}
	if data.Status != "" {
		query = query.Where("status = ?", data.Status)
	}
	if data.Search != "" {
		query = query.Where("title LIKE ?", "%"+data.Search+"%")
	}

	var total int64
	query.Count(&total)

	var list []models.Collection
	if err := query.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error; err != nil {
		return common.PaginationResult{}, err
	}

	return common.PaginateResponse(list, total, page, limit, "Collections fetched successfully"), nil
}

func (s *CollectionService) Get(id string) (*models.Collection, error) {
	var collection models.Collection
	if err := s.DB.Where("id = ?", id).First(&collection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}
	return &collection, nil
}

// GetByShareLink resolves the public share code used on donation pages.
func (s *CollectionService) GetByShareLink(link string) (*models.Collection, error) {
	var collection models.Collection
	if err := s.DB.Where("share_link = ?", link).First(&collection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}
	return &collection, nil
}

func (s *CollectionService) ListByOrganizer(organizerId string) ([]models.Collection, error) {
	var list []models.Collection
	err := s.DB.Where("organizer_id = ?", organizerId).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// DonationView is the public projection of a confirmed donation. Anonymous
// donors are masked here; contact details never appear in any projection.
type DonationView struct {
	DonorName string    `json:"donor_name"`
	Amount    float64   `json:"amount"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ListDonations returns the confirmed donations for a collection's public
// page. Initiated and failed rows never show.
func (s *CollectionService) ListDonations(collectionId string, page, limit int) (common.PaginationResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}

	query := s.DB.Model(&models.Donation{}).
		Where("collection_id = ? AND status = ?", collectionId, models.DonationConfirmed)

	var total int64
	query.Count(&total)

	var donations []models.Donation
	err := query.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&donations).Error
	if err != nil {
		return common.PaginationResult{}, err
	}

	views := make([]DonationView, 0, len(donations))
	for _, d := range donations {
		name := d.DonorName
		if d.Anonymous {
			name = "Anonymous"
		}
		views = append(views, DonationView{
			DonorName: name,
			Amount:    d.Amount,
			Message:   d.Message,
			CreatedAt: d.CreatedAt,
		})
	}

	return common.PaginateResponse(views, total, page, limit, "Donations fetched successfully"), nil
}

type CollectionStats struct {
	Collection      *models.Collection `json:"collection"`
	Available       float64            `json:"available_amount"`
	Reserved        float64            `json:"reserved_amount"`
	GoalProgressPct float64            `json:"goal_progress_pct"`
}

// Stats is the organizer dashboard projection, including the authoritative
// reservation-aware available balance.
func (s *CollectionService) Stats(collectionId string) (*CollectionStats, error) {
	collection, err := s.Get(collectionId)
	if err != nil {
		return nil, err
	}

	available, err := s.Ledger.GetAvailable(collectionId)
	if err != nil && !errors.Is(err, ErrCollectionFrozen) {
		return nil, err
	}

	reserved, err := s.Ledger.ReservedAmount(s.DB, collectionId)
	if err != nil {
		return nil, err
	}

	progress := 0.0
	if collection.GoalAmount > 0 {
		progress = collection.CurrentAmount / collection.GoalAmount * 100
	}

	return &CollectionStats{
		Collection:      collection,
		Available:       available,
		Reserved:        reserved,
		GoalProgressPct: progress,
	}, nil
}

// PlatformStats is the public landing-page counter set.
type PlatformStats struct {
	TotalCollections int64   `json:"total_collections"`
	TotalDonations   int64   `json:"total_donations"`
	TotalRaised      float64 `json:"total_raised"`
}

func (s *CollectionService) PublicStats() (*PlatformStats, error) {
	var stats PlatformStats

	s.DB.Model(&models.Collection{}).Where("status = ?", models.CollectionActive).Count(&stats.TotalCollections)
	s.DB.Model(&models.Donation{}).Where("status = ?", models.DonationConfirmed).Count(&stats.TotalDonations)
	s.DB.Model(&models.Donation{}).
		Where("status = ?", models.DonationConfirmed).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.TotalRaised)

	return &stats, nil
}

// PlatformSummary aggregates figures for the admin dashboard.
type PlatformSummary struct {
	TotalCollections   int64   `json:"total_collections"`
	ActiveCollections  int64   `json:"active_collections"`
	FrozenCollections  int64   `json:"frozen_collections"`
	TotalRaised        float64 `json:"total_raised"`
	TotalWithdrawn     float64 `json:"total_withdrawn"`
	PendingWithdrawals int64   `json:"pending_withdrawals"`
	PendingKyc         int64   `json:"pending_kyc"`
}

func (s *CollectionService) Summary() (*PlatformSummary, error) {
	var summary PlatformSummary

	s.DB.Model(&models.Collection{}).Count(&summary.TotalCollections)
	s.DB.Model(&models.Collection{}).Where("status = ?", models.CollectionActive).Count(&summary.ActiveCollections)
	s.DB.Model(&models.Collection{}).Where("status = ?", models.CollectionFrozen).Count(&summary.FrozenCollections)
	s.DB.Model(&models.Collection{}).Select("COALESCE(SUM(current_amount), 0)").Scan(&summary.TotalRaised)
	s.DB.Model(&models.Collection{}).Select("COALESCE(SUM(withdrawn_amount), 0)").Scan(&summary.TotalWithdrawn)
	s.DB.Model(&models.Withdrawal{}).Where("status = ?", models.WithdrawalPending).Count(&summary.PendingWithdrawals)
	s.DB.Model(&models.KYCRecord{}).Where("status = ?", models.KycPending).Count(&summary.PendingKyc)

	return &summary, nil
}
