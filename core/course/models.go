package course

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
)

// Course is a teachable offering. SVCValue is the price in skill coins a
// learner pays at enrollment; the teacher is paid that price when the learner
// completes, not when they sign up. Learners is informational only - the
// authoritative enrollment state lives on the learner's Account.
type Course struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	TeacherID     string      `json:"teacher_id"`
	SkillCategory string      `json:"skill_category"`
	SVCValue      int         `json:"svc_value"`
	Duration      int         `json:"duration"` // hours
	Availability  []string    `json:"availability"`
	Learners      []string    `json:"learners"`
	ImageURL      null.String `json:"image_url"`
	VideoURLs     []string    `json:"video_urls"`
	DocumentURLs  []string    `json:"document_urls"`
	MediaFiles    []string    `json:"media_files"`
	CreatedAt     time.Time   `json:"created_at"` // UTC
	UpdatedAt     time.Time   `json:"updated_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title         string   `json:"title" validate:"required"`
	Description   string   `json:"description" validate:"required"`
	TeacherID     string   `json:"teacher_id" validate:"required"`
	SkillCategory string   `json:"skill_category" validate:"required"`
	SVCValue      int      `json:"svc_value" validate:"min=0"`
	Duration      int      `json:"duration" validate:"min=0"`
	Availability  []string `json:"availability"`
	ImageURL      string   `json:"image_url" validate:"omitempty,url"`
	VideoURLs     []string `json:"video_urls"`
	DocumentURLs  []string `json:"document_urls"`
	MediaFiles    []string `json:"media_files"`
}

func (nc *NewCourse) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.SkillCategory = core.CleanString(nc.SkillCategory)
	return core.Validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing
// Course. The teacher reference and the learner list are not settable.
type UpdateCourse struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	SkillCategory string   `json:"skill_category"`
	SVCValue      *int     `json:"svc_value" validate:"omitempty,min=0"`
	Duration      *int     `json:"duration" validate:"omitempty,min=0"`
	Availability  []string `json:"availability"`
	ImageURL      *string  `json:"image_url" validate:"omitempty,url"`
	VideoURLs     []string `json:"video_urls"`
	DocumentURLs  []string `json:"document_urls"`
	MediaFiles    []string `json:"media_files"`
}

func (uc *UpdateCourse) Validate() error {
	uc.Title = core.CleanString(uc.Title)
	uc.Description = core.CleanString(uc.Description)
	uc.SkillCategory = core.CleanString(uc.SkillCategory)
	return core.Validate.Struct(uc)
}

func (uc UpdateCourse) Apply(crs Course) Course {
	if uc.Title != "" {
		crs.Title = uc.Title
	}
	if uc.Description != "" {
		crs.Description = uc.Description
	}
	if uc.SkillCategory != "" {
		crs.SkillCategory = uc.SkillCategory
	}
	if uc.SVCValue != nil {
		crs.SVCValue = *uc.SVCValue
	}
	if uc.Duration != nil {
		crs.Duration = *uc.Duration
	}
	if uc.Availability != nil {
		crs.Availability = uc.Availability
	}
	if uc.ImageURL != nil {
		crs.ImageURL = null.StringFromPtr(uc.ImageURL)
	}
	if uc.VideoURLs != nil {
		crs.VideoURLs = uc.VideoURLs
	}
	if uc.DocumentURLs != nil {
		crs.DocumentURLs = uc.DocumentURLs
	}
	if uc.MediaFiles != nil {
		crs.MediaFiles = uc.MediaFiles
	}
	return crs
}

type QueryFilter struct {
	Search        string `query:"search"`
	TeacherID     string `query:"teacher_id"`
	SkillCategory string `query:"skill_category"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.TeacherID == "" && qf.SkillCategory == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.SkillCategory = core.CleanString(qf.SkillCategory)
}

// GetFilter selects a single course; see account.GetFilter for ForUpdate.
type GetFilter struct {
	ID        string
	ForUpdate bool
}
