package account

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
)

// Verification statuses
const (
	VerificationUnverified = "unverified"
	VerificationPending    = "pending"
	VerificationVerified   = "verified"
	VerificationRejected   = "rejected"
)

// Account is a user profile plus its SVC ledger state: the skill-coin
// balance and the ongoing/completed course sets. The ID is issued by the
// external identity provider and is the primary key everywhere.
type Account struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	Email               string      `json:"email"`
	AvatarURL           null.String `json:"avatar_url"`
	Skills              []string    `json:"skills"`
	Bio                 null.String `json:"bio"`
	Rating              float64     `json:"rating"`
	SkillCoins          int         `json:"skill_coins"`
	OngoingCourses      []string    `json:"ongoing_courses"`
	CompletedCourses    []string    `json:"completed_courses"`
	Collaborations      []string    `json:"collaborations"`
	LinkedinURL         null.String `json:"linkedin_url"`
	GithubURL           null.String `json:"github_url"`
	PortfolioURL        null.String `json:"portfolio_url"`
	OtherLinks          []string    `json:"other_links"`
	SkillsVerified      bool        `json:"skills_verified"`
	VerificationStatus  string      `json:"verification_status"`
	OnboardingCompleted bool        `json:"onboarding_completed"`
	CreatedAt           time.Time   `json:"created_at"` // UTC
	UpdatedAt           time.Time   `json:"updated_at"` // UTC
}

func (a *Account) CanAfford(price int) bool {
	return a.SkillCoins >= price
}

// Debit removes amount from the balance; the balance can never go negative.
func (a *Account) Debit(amount int) error {
	if !a.CanAfford(amount) {
		return ErrInsufficientFunds
	}
	a.SkillCoins -= amount
	return nil
}

func (a *Account) Credit(amount int) {
	a.SkillCoins += amount
}

func (a *Account) IsEnrolledIn(courseID string) bool {
	return core.ContainsString(a.OngoingCourses, courseID)
}

func (a *Account) HasCompleted(courseID string) bool {
	return core.ContainsString(a.CompletedCourses, courseID)
}

// StartCourse adds courseID to the ongoing set.
func (a *Account) StartCourse(courseID string) error {
	if a.IsEnrolledIn(courseID) {
		return ErrAlreadyEnrolled
	}
	a.OngoingCourses = append(a.OngoingCourses, courseID)
	return nil
}

// FinishCourse moves courseID from the ongoing set to the completed set.
// The completed-set add is idempotent: a course id is never present twice,
// and never present in both sets at once.
func (a *Account) FinishCourse(courseID string) error {
	if !a.IsEnrolledIn(courseID) {
		return ErrNotEnrolled
	}
	a.OngoingCourses = core.RemoveString(a.OngoingCourses, courseID)
	a.CompletedCourses = core.AppendStringOnce(a.CompletedCourses, courseID)
	return nil
}

// NewAccount contains the identity-provider claims needed to create an Account
// on first sign-in.
type NewAccount struct {
	ID        string   `json:"id" validate:"required"`
	Name      string   `json:"name" validate:"required"`
	Email     string   `json:"email" validate:"required,email"`
	AvatarURL string   `json:"avatar_url" validate:"omitempty,url"`
	Skills    []string `json:"skills"`
}

func (na *NewAccount) Validate() error {
	na.ID = core.CleanString(na.ID)
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	return core.Validate.Struct(na)
}

// UpdateAccount defines what profile information may be modified on an
// existing Account. Ledger fields (skill_coins, course sets) are not settable
// here; only the enrollment and completion flows touch those.
type UpdateAccount struct {
	Name                string   `json:"name"`
	Bio                 *string  `json:"bio"`
	AvatarURL           *string  `json:"avatar_url" validate:"omitempty,url"`
	Skills              []string `json:"skills"`
	LinkedinURL         *string  `json:"linkedin_url" validate:"omitempty,url"`
	GithubURL           *string  `json:"github_url" validate:"omitempty,url"`
	PortfolioURL        *string  `json:"portfolio_url" validate:"omitempty,url"`
	OtherLinks          []string `json:"other_links"`
	OnboardingCompleted *bool    `json:"onboarding_completed"`
}

func (ua *UpdateAccount) Validate() error {
	ua.Name = core.CleanString(ua.Name)
	return core.Validate.Struct(ua)
}

// Apply overlays the provided fields on acct.
func (ua UpdateAccount) Apply(acct Account) Account {
	if ua.Name != "" {
		acct.Name = ua.Name
	}
	if ua.Bio != nil {
		acct.Bio = null.StringFromPtr(ua.Bio)
	}
	if ua.AvatarURL != nil {
		acct.AvatarURL = null.StringFromPtr(ua.AvatarURL)
	}
	if ua.Skills != nil {
		acct.Skills = ua.Skills
	}
	if ua.LinkedinURL != nil {
		acct.LinkedinURL = null.StringFromPtr(ua.LinkedinURL)
	}
	if ua.GithubURL != nil {
		acct.GithubURL = null.StringFromPtr(ua.GithubURL)
	}
	if ua.PortfolioURL != nil {
		acct.PortfolioURL = null.StringFromPtr(ua.PortfolioURL)
	}
	if ua.OtherLinks != nil {
		acct.OtherLinks = ua.OtherLinks
	}
	if ua.OnboardingCompleted != nil {
		acct.OnboardingCompleted = *ua.OnboardingCompleted
	}
	return acct
}

// Review is an append-only rating left on an account by another user.
type Review struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	ReviewerID string      `json:"reviewer_id"`
	Rating     int         `json:"rating"`
	Comment    null.String `json:"comment"`
	CreatedAt  time.Time   `json:"created_at"` // UTC
}

// NewReview contains information needed to review an account.
type NewReview struct {
	UserID     string `json:"user_id" validate:"required"`
	ReviewerID string `json:"reviewer_id" validate:"required"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment"`
}

func (nr *NewReview) Validate() error {
	nr.Comment = core.CleanString(nr.Comment)
	return core.Validate.Struct(nr)
}

// VerificationEvidence is what an account submits for the simulated AI
// skill check: claimed skills plus public profile links to back them up.
type VerificationEvidence struct {
	ClaimedSkills []string `json:"claimed_skills" validate:"required,min=1"`
	LinkedinURL   string   `json:"linkedin_url" validate:"omitempty,url"`
	GithubURL     string   `json:"github_url" validate:"omitempty,url"`
	PortfolioURL  string   `json:"portfolio_url" validate:"omitempty,url"`
	OtherLinks    []string `json:"other_links"`
	Bio           string   `json:"bio"`
}

func (ve *VerificationEvidence) Validate() error { return core.Validate.Struct(ve) }

type VerificationResult struct {
	Verified         bool     `json:"is_verified"`
	Confidence       float64  `json:"confidence"` // 0-1 scale
	VerifiedSkills   []string `json:"verified_skills"`
	UnverifiedSkills []string `json:"unverified_skills"`
	Suggestions      []string `json:"suggestions"`
	Reasoning        string   `json:"reasoning"`
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Skills      []string  `query:"skill"`
	Verified    *bool     `query:"verified"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Skills == nil && qf.Verified == nil &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single account. ForUpdate makes SQL-backed repositories
// take a row lock so a read-check-write sequence inside a transaction cannot
// race a concurrent ledger mutation.
type GetFilter struct {
	ID        string
	Email     string
	ForUpdate bool
}
