package project

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
)

// Statuses. Open and in-progress are derived from the member count by
// Join/Leave; completed and paused are set through an admin path and are
// sticky while members come and go.
const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusPaused     = "paused"
)

// Difficulty levels
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Application statuses
const (
	ApplicationPending  = "pending"
	ApplicationAccepted = "accepted"
	ApplicationRejected = "rejected"
)

// Project is a collaboration with a bounded member set. The creator is
// always a member and can never leave; status follows the member count.
type Project struct {
	ID                string      `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	CreatorID         string      `json:"creator_id"`
	RequiredSkills    []string    `json:"required_skills"`
	MaxMembers        int         `json:"max_members"`
	CurrentMembers    []string    `json:"current_members"`
	Status            string      `json:"status"`
	Category          string      `json:"category"`
	Tags              []string    `json:"tags"`
	DifficultyLevel   string      `json:"difficulty_level"`
	EstimatedDuration string      `json:"estimated_duration"`
	ContactInfo       null.String `json:"contact_info"`
	ProjectLinks      []string    `json:"project_links"`
	GalleryImages     []string    `json:"gallery_images"`
	MediaFiles        []string    `json:"media_files"`
	Deadline          null.Time   `json:"deadline"`
	Requirements      null.String `json:"requirements"`
	ProjectGoals      []string    `json:"project_goals"`
	CreatedAt         time.Time   `json:"created_at"` // UTC
	UpdatedAt         time.Time   `json:"updated_at"` // UTC
}

func (p *Project) IsMember(userID string) bool {
	return core.ContainsString(p.CurrentMembers, userID)
}

func (p *Project) IsFull() bool {
	return len(p.CurrentMembers) >= p.MaxMembers
}

// deriveStatus recomputes the open/in-progress pair from the member count.
// Completed and paused are sticky here; shrinking back to the creator alone
// reverts to open regardless (matching the source behavior).
func (p *Project) deriveStatus() {
	switch {
	case len(p.CurrentMembers) == 1:
		p.Status = StatusOpen
	case p.Status == StatusOpen:
		p.Status = StatusInProgress
	}
}

// NewProject contains information needed to create a new Project.
type NewProject struct {
	Title             string   `json:"title" validate:"required"`
	Description       string   `json:"description" validate:"required"`
	CreatorID         string   `json:"creator_id" validate:"required"`
	RequiredSkills    []string `json:"required_skills"`
	MaxMembers        int      `json:"max_members" validate:"required,min=2"`
	Category          string   `json:"category"`
	Tags              []string `json:"tags"`
	DifficultyLevel   string   `json:"difficulty_level" validate:"omitempty,oneof=beginner intermediate advanced"`
	EstimatedDuration string   `json:"estimated_duration"`
	ContactInfo       string   `json:"contact_info"`
	ProjectLinks      []string `json:"project_links"`
	GalleryImages     []string `json:"gallery_images"`
	MediaFiles        []string `json:"media_files"`
	Deadline          *time.Time `json:"deadline"`
	Requirements      string   `json:"requirements"`
	ProjectGoals      []string `json:"project_goals"`
}

func (np *NewProject) Validate() error {
	np.Title = core.CleanString(np.Title)
	np.Description = core.CleanString(np.Description)
	np.Category = core.CleanString(np.Category)
	return core.Validate.Struct(np)
}

// UpdateProject defines what information may be provided to modify an
// existing Project. Membership and status are owned by Join/Leave and the
// admin path, not by profile edits.
type UpdateProject struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	RequiredSkills    []string   `json:"required_skills"`
	Category          string     `json:"category"`
	Tags              []string   `json:"tags"`
	DifficultyLevel   string     `json:"difficulty_level" validate:"omitempty,oneof=beginner intermediate advanced"`
	EstimatedDuration string     `json:"estimated_duration"`
	ContactInfo       *string    `json:"contact_info"`
	ProjectLinks      []string   `json:"project_links"`
	GalleryImages     []string   `json:"gallery_images"`
	MediaFiles        []string   `json:"media_files"`
	Deadline          *time.Time `json:"deadline"`
	Requirements      *string    `json:"requirements"`
	ProjectGoals      []string   `json:"project_goals"`
}

func (up *UpdateProject) Validate() error {
	up.Title = core.CleanString(up.Title)
	up.Description = core.CleanString(up.Description)
	return core.Validate.Struct(up)
}

func (up UpdateProject) Apply(prj Project) Project {
	if up.Title != "" {
		prj.Title = up.Title
	}
	if up.Description != "" {
		prj.Description = up.Description
	}
	if up.RequiredSkills != nil {
		prj.RequiredSkills = up.RequiredSkills
	}
	if up.Category != "" {
		prj.Category = up.Category
	}
	if up.Tags != nil {
		prj.Tags = up.Tags
	}
	if up.DifficultyLevel != "" {
		prj.DifficultyLevel = up.DifficultyLevel
	}
	if up.EstimatedDuration != "" {
		prj.EstimatedDuration = up.EstimatedDuration
	}
	if up.ContactInfo != nil {
		prj.ContactInfo = null.StringFromPtr(up.ContactInfo)
	}
	if up.ProjectLinks != nil {
		prj.ProjectLinks = up.ProjectLinks
	}
	if up.GalleryImages != nil {
		prj.GalleryImages = up.GalleryImages
	}
	if up.MediaFiles != nil {
		prj.MediaFiles = up.MediaFiles
	}
	if up.Deadline != nil {
		prj.Deadline = null.TimeFromPtr(up.Deadline)
	}
	if up.Requirements != nil {
		prj.Requirements = null.StringFromPtr(up.Requirements)
	}
	if up.ProjectGoals != nil {
		prj.ProjectGoals = up.ProjectGoals
	}
	return prj
}

// Application is a request to join a project, reviewed by the creator.
// Accepting one does not auto-join the applicant; joining stays explicit.
type Application struct {
	ID            string      `json:"id"`
	ProjectID     string      `json:"project_id"`
	ApplicantID   string      `json:"applicant_id"`
	Message       string      `json:"message"`
	SkillsOffered []string    `json:"skills_offered"`
	Status        string      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"` // UTC
}

// NewApplication contains information needed to apply to a project.
type NewApplication struct {
	ProjectID     string   `json:"project_id" validate:"required"`
	ApplicantID   string   `json:"applicant_id" validate:"required"`
	Message       string   `json:"message"`
	SkillsOffered []string `json:"skills_offered"`
}

func (na *NewApplication) Validate() error {
	na.Message = core.CleanString(na.Message)
	return core.Validate.Struct(na)
}

type QueryFilter struct {
	Search    string   `query:"search"`
	CreatorID string   `query:"creator_id"`
	MemberID  string   `query:"member_id"`
	Status    string   `query:"status"`
	Category  string   `query:"category"`
	Skills    []string `query:"skill"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.CreatorID == "" && qf.MemberID == "" &&
		qf.Status == "" && qf.Category == "" && qf.Skills == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category)
}

// GetFilter selects a single project; see account.GetFilter for ForUpdate.
type GetFilter struct {
	ID        string
	ForUpdate bool
}
