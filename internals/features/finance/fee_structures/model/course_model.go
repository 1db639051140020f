package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Course carries the canonical course name plus the external identifiers that
// older student records still use in place of the name.
type Course struct {
	CourseID        uuid.UUID      `gorm:"column:course_id;type:uuid;default:gen_random_uuid();primaryKey" json:"course_id"`
	CourseName      string         `gorm:"column:course_name;type:varchar(120);not null;uniqueIndex" json:"course_name"`
	CourseLegacyIDs pq.StringArray `gorm:"column:course_legacy_ids;type:text[]" json:"course_legacy_ids,omitempty"`

	CourseCreatedAt time.Time      `gorm:"column:course_created_at;type:timestamptz;not null;autoCreateTime" json:"course_created_at"`
	CourseDeletedAt gorm.DeletedAt `gorm:"column:course_deleted_at;type:timestamptz;index" json:"-"`
}

func (Course) TableName() string { return "courses" }
