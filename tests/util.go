package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/account"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/course"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/project"
)

// NewConfig returns a fixed test config so tests never read the environment.
func NewConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "Skilldom",
		Build:            "test",
		SecretKey:        "secret",
		FrontendBaseURL:  "http://localhost:5173",
		DefaultFromEmail: "noreply@skilldom.local",
		WorkDir:          core.Getwd(),
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Auth: core.AuthConfig{ProviderSecret: "provider-secret"},
		SVC: core.SVCConfig{
			StartingBonus: 500,
			DefaultReward: 100,
			RewardPolicy:  core.RewardPolicyMint,
		},
	}
}

// Logger is a no-op core.Logger for tests.
type Logger struct{}

var _ core.Logger = (*Logger)(nil)

func (Logger) Enable(bool)                        {}
func (Logger) Debug(string, ...interface{})       {}
func (Logger) Info(string, ...interface{})        {}
func (Logger) Warn(string, ...interface{})        {}
func (Logger) Error(string, ...interface{})       {}
func (Logger) Fatal(msg string, _ ...interface{}) { panic(msg) }

func CreateAccount(t *testing.T, repo account.Repository, id, name, email string, coins int, skills ...string) account.Account {
	t.Helper()
	now := time.Now().UTC()
	acct := account.Account{
		ID:                 id,
		Name:               name,
		Email:              email,
		Skills:             skills,
		SkillCoins:         coins,
		OngoingCourses:     []string{},
		CompletedCourses:   []string{},
		Collaborations:     []string{},
		OtherLinks:         []string{},
		VerificationStatus: account.VerificationUnverified,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	acct, err := repo.CreateAccount(context.Background(), acct)
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acct
}

func CreateCourse(t *testing.T, repo course.Repository, teacherID, title string, price int) course.Course {
	t.Helper()
	now := time.Now().UTC()
	crs := course.Course{
		ID:            uuid.New().String(),
		Title:         title,
		Description:   title + " description",
		TeacherID:     teacherID,
		SkillCategory: "general",
		SVCValue:      price,
		Learners:      []string{},
		Availability:  []string{},
		VideoURLs:     []string{},
		DocumentURLs:  []string{},
		MediaFiles:    []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	crs, err := repo.CreateCourse(context.Background(), crs)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateProject(t *testing.T, repo project.Repository, creatorID, title string, maxMembers int) project.Project {
	t.Helper()
	now := time.Now().UTC()
	prj := project.Project{
		ID:             uuid.New().String(),
		Title:          title,
		Description:    title + " description",
		CreatorID:      creatorID,
		RequiredSkills: []string{},
		MaxMembers:     maxMembers,
		CurrentMembers: []string{creatorID},
		Status:         project.StatusOpen,
		Tags:           []string{},
		ProjectLinks:   []string{},
		GalleryImages:  []string{},
		MediaFiles:     []string{},
		ProjectGoals:   []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	prj, err := repo.CreateProject(context.Background(), prj)
	if err != nil {
		t.Fatalf("CreateProject() failed: %v", err)
	}
	return prj
}
