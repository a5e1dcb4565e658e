package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CourseCategories is the closed set of catalog categories
var CourseCategories = []string{
	"Web Development",
	"Mobile Development",
	"Data Science",
	"Machine Learning",
	"Cloud Computing",
	"Cyber Security",
	"DevOps",
	"Programming Languages",
	"Database",
	"Design",
}

// Course represents a course in the catalog
type Course struct {
	ID           uint                         `gorm:"primaryKey" json:"id"`
	Title        string                       `gorm:"type:varchar(255);not null" json:"title"`
	Description  string                       `gorm:"type:text;not null" json:"description"`
	Category     string                       `gorm:"type:varchar(50);not null;index" json:"category"`
	ImageURL     string                       `gorm:"type:text" json:"image_url,omitempty"`
	OldPrice     int64                        `gorm:"not null;check:old_price >= 0" json:"old_price"`
	NewPrice     int64                        `gorm:"not null;check:new_price >= 0" json:"new_price"` // major units
	Duration     int                          `gorm:"default:0" json:"duration"`                      // access days, 0 means lifetime
	IsBestSeller bool                         `gorm:"default:false" json:"is_best_seller"`
	Syllabus     datatypes.JSONSlice[Section] `gorm:"type:jsonb" json:"syllabus"`
	CreatedAt    time.Time                    `json:"created_at"`
	UpdatedAt    time.Time                    `json:"updated_at"`
	DeletedAt    gorm.DeletedAt               `gorm:"index" json:"-"`
}

// TableName specifies the table name for Course
func (Course) TableName() string {
	return "courses"
}

// Section is an ordered group of lessons
type Section struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Lesson is one unit of a section, optionally ending in a quiz
type Lesson struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content,omitempty"`
	Duration int    `json:"duration,omitempty"` // minutes
	Quiz     *Quiz  `json:"quiz,omitempty"`
}

// Quiz has exactly four options and the correct answer is one of them
type Quiz struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// PriceMinor returns the selling price in minor currency units
func (c *Course) PriceMinor() int64 {
	return c.NewPrice * 100
}

// LessonIDs returns every lesson id in syllabus order
func (c *Course) LessonIDs() []string {
	var ids []string
	for _, s := range c.Syllabus {
		for _, l := range s.Lessons {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// Validate checks catalog rules before a course is written
func (c *Course) Validate() error {
	if c.Title == "" || c.Description == "" {
		return errors.New("title and description are required")
	}
	if !containsString(CourseCategories, c.Category) {
		return fmt.Errorf("invalid category %q", c.Category)
	}
	if c.NewPrice < 0 || c.OldPrice < 0 {
		return errors.New("prices must be non-negative")
	}
	if c.OldPrice < c.NewPrice {
		return errors.New("old price must be greater than or equal to new price")
	}

	seen := make(map[string]struct{})
	for _, s := range c.Syllabus {
		for _, l := range s.Lessons {
			if l.ID == "" {
				return fmt.Errorf("lesson in section %q has no id", s.Title)
			}
			if _, dup := seen[l.ID]; dup {
				return fmt.Errorf("duplicate lesson id %q", l.ID)
			}
			seen[l.ID] = struct{}{}
			if l.Quiz != nil {
				if err := l.Quiz.Validate(); err != nil {
					return fmt.Errorf("lesson %q: %w", l.ID, err)
				}
			}
		}
	}
	return nil
}

// Validate checks the fixed four-option shape
func (q *Quiz) Validate() error {
	if len(q.Options) != 4 {
		return errors.New("quiz must have exactly 4 options")
	}
	if !containsString(q.Options, q.CorrectAnswer) {
		return errors.New("correct answer must be one of the options")
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
