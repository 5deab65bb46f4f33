package books

import (
	"time"

	"github.com/quillify-app/quillify/services/user"
)

type Status string

const (
	StatusWant     Status = "want"
	StatusReading  Status = "reading"
	StatusFinished Status = "finished"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWant, StatusReading, StatusFinished:
		return true
	}
	return false
}

type Book struct {
	ID         string     `json:"id" gorm:"primaryKey;size:36"`
	UserID     string     `json:"user_id" gorm:"size:36;not null;index"`
	Title      string     `json:"title" gorm:"size:500;not null"`
	Author     string     `json:"author" gorm:"size:255"`
	Status     Status     `json:"status" gorm:"size:16;not null;default:'want'"`
	Rating     *int       `json:"rating"`
	PageCount  int        `json:"page_count"`
	Notes      string     `json:"notes"`
	FinishedAt *time.Time `json:"finished_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	User user.User `json:"-" gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID"`
}

func (Book) TableName() string {
	return "books"
}

// Stats is the aggregate view of a user's catalog.
type Stats struct {
	Total         int64    `json:"total"`
	Finished      int64    `json:"finished"`
	Reading       int64    `json:"reading"`
	Want          int64    `json:"want"`
	PagesFinished int64    `json:"pages_finished"`
	AverageRating *float64 `json:"average_rating"`
}
