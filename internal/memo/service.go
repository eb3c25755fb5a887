package memo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("memo not found")
var ErrInvalidInput = errors.New("invalid input")

// QueryTimeout bounds a single list query. Exhaustion maps to a 504 at the
// HTTP boundary so clients can switch to their long-backoff retry schedule.
const QueryTimeout = 20 * time.Second

type Service struct {
	DB *gorm.DB
}

// ListQuery carries the optional filters of GET /api/getMemo. Zero values
// mean "absent"; Page and PageSize default to 1 and 10 at the handler.
type ListQuery struct {
	UserID   string
	Message  string
	Page     int
	PageSize int
	Full     bool
}

// ListResult mirrors the list response envelope body.
type ListResult struct {
	Data        []Memo
	FullData    []Memo
	HasMore     bool
	TotalCount  int64
	CurrentPage int
	TotalPages  int
}

func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if strings.TrimSpace(q.UserID) == "" {
		return nil, ErrInvalidInput
	}
	if q.Page < 1 || q.PageSize < 1 {
		return nil, ErrInvalidInput
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	base := s.DB.WithContext(ctx).Model(&Memo{}).Where("user_id = ?", q.UserID)
	if q.Message != "" {
		base = base.Where("message ILIKE ?", "%"+q.Message+"%")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	res := &ListResult{
		TotalCount:  total,
		CurrentPage: q.Page,
		TotalPages:  int((total + int64(q.PageSize) - 1) / int64(q.PageSize)),
	}

	// First page with full=true returns the paged slice plus the complete
	// snapshot so filtering can run against data not yet scrolled into view.
	if q.Full && q.Page == 1 {
		if err := base.Session(&gorm.Session{}).
			Order("created_at desc").
			Limit(q.PageSize).
			Find(&res.Data).Error; err != nil {
			return nil, err
		}
		if err := base.Session(&gorm.Session{}).
			Order("created_at desc").
			Find(&res.FullData).Error; err != nil {
			return nil, err
		}
		res.HasMore = int64(q.PageSize) < total
		return res, nil
	}

	skip := (q.Page - 1) * q.PageSize
	if err := base.Session(&gorm.Session{}).
		Order("created_at desc").
		Offset(skip).
		Limit(q.PageSize).
		Find(&res.Data).Error; err != nil {
		return nil, err
	}
	res.HasMore = int64(skip+len(res.Data)) < total
	return res, nil
}

func (s *Service) Create(ctx context.Context, userID, message string) (*Memo, error) {
	if strings.TrimSpace(message) == "" || strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}

	now := Now()
	m := Memo{
		ID:        uuid.NewString(),
		Message:   message,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.DB.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) Update(ctx context.Context, id, userID, message string) (*Memo, error) {
	if id == "" || strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(message) == "" || message == EmptyMessage {
		return nil, ErrInvalidInput
	}

	var m Memo
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		m.Message = message
		m.UpdatedAt = Now()
		return tx.Save(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) Delete(ctx context.Context, id, userID string) (*Memo, error) {
	if id == "" || strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}

	var m Memo
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return tx.Delete(&Memo{}, "id = ? AND user_id = ?", id, userID).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}
