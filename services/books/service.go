package books

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quillify-app/quillify/apperr"
	"github.com/quillify-app/quillify/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrBookNotFound = apperr.NotFound("book not found")

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type Service struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewService(db *gorm.DB, logger *logging.Service) *Service {
	return &Service{db: db, logger: logger}
}

type CreateInput struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	Status    Status `json:"status"`
	Rating    *int   `json:"rating"`
	PageCount int    `json:"page_count"`
	Notes     string `json:"notes"`
}

type UpdateInput struct {
	Title     *string `json:"title"`
	Author    *string `json:"author"`
	Status    *Status `json:"status"`
	Rating    *int    `json:"rating"`
	PageCount *int    `json:"page_count"`
	Notes     *string `json:"notes"`
}

func validateRating(rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return apperr.BadRequest("rating must be between 1 and 5")
	}
	return nil
}

func (s *Service) Create(userID string, in CreateInput) (*Book, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.BadRequest("title is required")
	}
	if in.Status == "" {
		in.Status = StatusWant
	}
	if !in.Status.Valid() {
		return nil, apperr.BadRequest("invalid status")
	}
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	b := &Book{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     strings.TrimSpace(in.Title),
		Author:    strings.TrimSpace(in.Author),
		Status:    in.Status,
		Rating:    in.Rating,
		PageCount: in.PageCount,
		Notes:     in.Notes,
	}
	if b.Status == StatusFinished {
		now := time.Now()
		b.FinishedAt = &now
	}

	if err := s.db.Create(b).Error; err != nil {
		s.logger.Error("failed to create book", zap.Error(err), zap.String("user_id", userID))
		return nil, apperr.Internal("failed to create book", err)
	}

	return b, nil
}

// Get loads a book scoped to its owner. Another user's book is
// indistinguishable from a missing one.
func (s *Service) Get(userID, bookID string) (*Book, error) {
	var b Book
	if err := s.db.First(&b, "id = ? AND user_id = ?", bookID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		s.logger.Error("failed to load book", zap.Error(err), zap.String("book_id", bookID))
		return nil, apperr.Internal("failed to load book", err)
	}
	return &b, nil
}

func (s *Service) Update(userID, bookID string, in UpdateInput) (*Book, error) {
	b, err := s.Get(userID, bookID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, apperr.BadRequest("title is required")
		}
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Author != nil {
		updates["author"] = strings.TrimSpace(*in.Author)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.BadRequest("invalid status")
		}
		updates["status"] = *in.Status
		if *in.Status == StatusFinished && b.FinishedAt == nil {
			updates["finished_at"] = time.Now()
		}
	}
	if in.Rating != nil {
		if err := validateRating(in.Rating); err != nil {
			return nil, err
		}
		updates["rating"] = *in.Rating
	}
	if in.PageCount != nil {
		updates["page_count"] = *in.PageCount
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}

	if len(updates) == 0 {
		return b, nil
	}

	if err := s.db.Model(b).Updates(updates).Error; err != nil {
		s.logger.Error("failed to update book", zap.Error(err), zap.String("book_id", bookID))
		return nil, apperr.Internal("failed to update book", err)
	}

	return s.Get(userID, bookID)
}

func (s *Service) Delete(userID, bookID string) error {
	result := s.db.Delete(&Book{}, "id = ? AND user_id = ?", bookID, userID)
	if result.Error != nil {
		s.logger.Error("failed to delete book", zap.Error(result.Error), zap.String("book_id", bookID))
		return apperr.Internal("failed to delete book", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

type Page struct {
	Books   []Book `json:"books"`
	Total   int64  `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

func (s *Service) List(userID string, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	var total int64
	if err := s.db.Model(&Book{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		s.logger.Error("failed to count books", zap.Error(err), zap.String("user_id", userID))
		return nil, apperr.Internal("failed to list books", err)
	}

	var items []Book
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&items).Error
	if err != nil {
		s.logger.Error("failed to list books", zap.Error(err), zap.String("user_id", userID))
		return nil, apperr.Internal("failed to list books", err)
	}

	return &Page{Books: items, Total: total, Page: page, PerPage: perPage}, nil
}

func (s *Service) Stats(userID string) (*Stats, error) {
	stats := &Stats{}

	type row struct {
		Status Status
		Count  int64
		Pages  int64
	}
	var rows []row
	err := s.db.Model(&Book{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(page_count), 0) as pages").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		s.logger.Error("failed to aggregate book stats", zap.Error(err), zap.String("user_id", userID))
		return nil, apperr.Internal("failed to load stats", err)
	}

	for _, r := range rows {
		stats.Total += r.Count
		switch r.Status {
		case StatusFinished:
			stats.Finished = r.Count
			stats.PagesFinished = r.Pages
		case StatusReading:
			stats.Reading = r.Count
		case StatusWant:
			stats.Want = r.Count
		}
	}

	var avg *float64
	err = s.db.Model(&Book{}).
		Select("AVG(rating)").
		Where("user_id = ? AND rating IS NOT NULL", userID).
		Scan(&avg).Error
	if err != nil {
		s.logger.Error("failed to average ratings", zap.Error(err), zap.String("user_id", userID))
		return nil, apperr.Internal("failed to load stats", err)
	}
	stats.AverageRating = avg

	return stats, nil
}
