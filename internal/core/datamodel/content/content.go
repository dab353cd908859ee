package content

import "time"

type Category struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	IsActive    bool      `gorm:"column:is_active;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time `gorm:"column:updated_at;default:now()"`
}

type Topic struct {
	ID          int64     `gorm:"primaryKey"`
	CategoryID  int64     `gorm:"column:category_id;not null;index"`
	Title       string    `gorm:"column:title;not null;index"`
	Description string    `gorm:"column:description"`
	IsActive    bool      `gorm:"column:is_active;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time `gorm:"column:updated_at;default:now()"`
}

type Article struct {
	ID        int64     `gorm:"primaryKey"`
	TopicID   int64     `gorm:"column:topic_id;not null;index"`
	Title     string    `gorm:"column:title;not null"`
	Body      string    `gorm:"column:body;type:text"`
	Position  int       `gorm:"column:position;default:0"`
	IsActive  bool      `gorm:"column:is_active;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}
