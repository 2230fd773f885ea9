package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SQLModel is embedded by every persisted entity. DeletedAt holds the
// soft-delete timestamp in unix millis; zero means the row is active.
type SQLModel struct {
	ID        string `json:"id" gorm:"type:varchar(36);primary_key"`
	CreatedAt int64  `json:"created_at" gorm:"autoCreateTime:milli"`
	UpdatedAt int64  `json:"updated_at" gorm:"autoUpdateTime:milli"`
	DeletedAt int64  `json:"deleted_at" gorm:"index;not null;default:0"`
}

func (m *SQLModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func (m *SQLModel) IsDeleted() bool {
	return m.DeletedAt != 0
}

// FindOneOption orders the candidates before the first one is taken.
type FindOneOption struct {
	Sort []string `json:"sort" form:"sort"`
}

// FindPageOption selects one page of a listing. Sort entries are
// "column asc|desc" clauses already checked against the sortable columns.
type FindPageOption struct {
	Sort    []string `json:"sort" form:"sort"`
	Page    int      `json:"page" form:"page" default:"1"`
	PerPage int      `json:"per_page" form:"per_page" default:"10"`
}
