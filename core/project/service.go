package project

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/account"
)

var (
	// errors
	ErrNotFound            = errors.New("project not found")
	ErrAlreadyMember       = errors.New("already a member of this project")
	ErrNotMember           = errors.New("not a member of this project")
	ErrProjectFull         = errors.New("project is full")
	ErrCreatorCannotLeave  = errors.New("the project creator cannot leave")
	ErrApplicationNotFound = errors.New("application not found")
)

type (
	Repository interface {
		CreateProject(ctx context.Context, prj Project, exec ...core.DBExecutor) (Project, error)
		GetProject(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Project, error)
		// QueryProjects applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Title,
		// Description or Category.
		QueryProjects(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Project, error)
		UpdateProject(ctx context.Context, prj Project, exec ...core.DBExecutor) (Project, error)
		DeleteProjectsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error

		CreateApplication(ctx context.Context, app Application, exec ...core.DBExecutor) (Application, error)
		GetApplication(ctx context.Context, id string, exec ...core.DBExecutor) (Application, error)
		QueryApplications(ctx context.Context, projectID string, exec ...core.DBExecutor) ([]Application, error)
		UpdateApplication(ctx context.Context, app Application, exec ...core.DBExecutor) (Application, error)
	}

	Service interface {
		Create(ctx context.Context, np NewProject) (Project, error)
		GetByID(ctx context.Context, id string) (Project, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Project, error)
		Update(ctx context.Context, id string, up UpdateProject) (Project, error)
		Delete(ctx context.Context, ids ...string) error

		// Join adds userID to the project's member set, subject to capacity.
		Join(ctx context.Context, projectID, userID string) (Project, error)
		// Leave removes userID from the member set. The creator can never
		// leave; delete the project instead.
		Leave(ctx context.Context, projectID, userID string) (Project, error)
		// SetStatus sets the sticky statuses (completed, paused) or reopens.
		SetStatus(ctx context.Context, projectID, status string) (Project, error)

		Apply(ctx context.Context, na NewApplication) (Application, error)
		QueryApplications(ctx context.Context, projectID string) ([]Application, error)
		// ReviewApplication accepts or rejects a pending application.
		// Accepting does not add the applicant to the member set; they still
		// join explicitly so capacity is checked at join time.
		ReviewApplication(ctx context.Context, applicationID, status string) (Application, error)
	}

	service struct {
		db          core.DB
		repo        Repository
		accountRepo account.Repository
		mailSvc     core.EmailService
		conf        *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, accountRepo account.Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		db:          db,
		repo:        repo,
		accountRepo: accountRepo,
		mailSvc:     mailSvc,
		conf:        conf,
	}
}

// Create opens a new project with the creator as its sole member.
func (svc *service) Create(ctx context.Context, np NewProject) (Project, error) {
	now := time.Now().UTC()
	prj := Project{
		ID:                uuid.New().String(),
		Title:             np.Title,
		Description:       np.Description,
		CreatorID:         np.CreatorID,
		RequiredSkills:    orEmpty(np.RequiredSkills),
		MaxMembers:        np.MaxMembers,
		CurrentMembers:    []string{np.CreatorID},
		Status:            StatusOpen,
		Category:          np.Category,
		Tags:              orEmpty(np.Tags),
		DifficultyLevel:   np.DifficultyLevel,
		EstimatedDuration: np.EstimatedDuration,
		ContactInfo:       null.NewString(np.ContactInfo, np.ContactInfo != ""),
		ProjectLinks:      orEmpty(np.ProjectLinks),
		GalleryImages:     orEmpty(np.GalleryImages),
		MediaFiles:        orEmpty(np.MediaFiles),
		Deadline:          null.TimeFromPtr(np.Deadline),
		Requirements:      null.NewString(np.Requirements, np.Requirements != ""),
		ProjectGoals:      orEmpty(np.ProjectGoals),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := core.Atomic(ctx, svc.db, func(exec core.DBExecutor) error {
		var err error
		if prj, err = svc.repo.CreateProject(ctx, prj, exec); err != nil {
			return err
		}
		return svc.trackCollaboration(ctx, np.CreatorID, prj.ID, true, exec)
	})
	if err != nil {
		return Project{}, err
	}
	return prj, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Project, error) {
	return svc.repo.GetProject(ctx, GetFilter{ID: id})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Project, error) {
	return svc.repo.QueryProjects(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, id string, up UpdateProject) (Project, error) {
	prj, err := svc.repo.GetProject(ctx, GetFilter{ID: id})
	if err != nil {
		return Project{}, err
	}
	prj = up.Apply(prj)
	prj.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProject(ctx, prj)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteProjectsByID(ctx, ids)
}

func (svc *service) Join(ctx context.Context, projectID, userID string) (Project, error) {
	var prj Project
	err := core.Atomic(ctx, svc.db, func(exec core.DBExecutor) error {
		var err error
		prj, err = svc.repo.GetProject(ctx, GetFilter{ID: projectID, ForUpdate: true}, exec)
		if err != nil {
			return err
		}
		if prj.IsMember(userID) {
			return ErrAlreadyMember
		}
		if prj.IsFull() {
			return ErrProjectFull
		}

		prj.CurrentMembers = append(prj.CurrentMembers, userID)
		prj.deriveStatus()
		prj.UpdatedAt = time.Now().UTC()
		if prj, err = svc.repo.UpdateProject(ctx, prj, exec); err != nil {
			return pkgerrors.Wrap(err, "adding member")
		}
		return svc.trackCollaboration(ctx, userID, projectID, true, exec)
	})
	if err != nil {
		return Project{}, err
	}

	svc.sendJoinMail(ctx, prj, userID)
	return prj, nil
}

func (svc *service) Leave(ctx context.Context, projectID, userID string) (Project, error) {
	var prj Project
	err := core.Atomic(ctx, svc.db, func(exec core.DBExecutor) error {
		var err error
		prj, err = svc.repo.GetProject(ctx, GetFilter{ID: projectID, ForUpdate: true}, exec)
		if err != nil {
			return err
		}
		if userID == prj.CreatorID {
			return ErrCreatorCannotLeave
		}
		if !prj.IsMember(userID) {
			return ErrNotMember
		}

		prj.CurrentMembers = core.RemoveString(prj.CurrentMembers, userID)
		prj.deriveStatus()
		prj.UpdatedAt = time.Now().UTC()
		if prj, err = svc.repo.UpdateProject(ctx, prj, exec); err != nil {
			return pkgerrors.Wrap(err, "removing member")
		}
		return svc.trackCollaboration(ctx, userID, projectID, false, exec)
	})
	if err != nil {
		return Project{}, err
	}
	return prj, nil
}

func (svc *service) SetStatus(ctx context.Context, projectID, status string) (Project, error) {
	switch status {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusPaused:
	default:
		return Project{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "unknown status"})
	}

	var prj Project
	err := core.Atomic(ctx, svc.db, func(exec core.DBExecutor) error {
		var err error
		prj, err = svc.repo.GetProject(ctx, GetFilter{ID: projectID, ForUpdate: true}, exec)
		if err != nil {
			return err
		}
		prj.Status = status
		prj.UpdatedAt = time.Now().UTC()
		prj, err = svc.repo.UpdateProject(ctx, prj, exec)
		return err
	})
	if err != nil {
		return Project{}, err
	}
	return prj, nil
}

func (svc *service) Apply(ctx context.Context, na NewApplication) (Application, error) {
	prj, err := svc.repo.GetProject(ctx, GetFilter{ID: na.ProjectID})
	if err != nil {
		return Application{}, err
	}
	if prj.IsMember(na.ApplicantID) {
		return Application{}, ErrAlreadyMember
	}

	app := Application{
		ID:            uuid.New().String(),
		ProjectID:     na.ProjectID,
		ApplicantID:   na.ApplicantID,
		Message:       na.Message,
		SkillsOffered: orEmpty(na.SkillsOffered),
		Status:        ApplicationPending,
		CreatedAt:     time.Now().UTC(),
	}
	if app, err = svc.repo.CreateApplication(ctx, app); err != nil {
		return Application{}, err
	}

	svc.sendApplicationMail(ctx, prj, app)
	return app, nil
}

func (svc *service) QueryApplications(ctx context.Context, projectID string) ([]Application, error) {
	return svc.repo.QueryApplications(ctx, projectID)
}

func (svc *service) ReviewApplication(ctx context.Context, applicationID, status string) (Application, error) {
	if status != ApplicationAccepted && status != ApplicationRejected {
		return Application{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "must be accepted or rejected"})
	}

	app, err := svc.repo.GetApplication(ctx, applicationID)
	if err != nil {
		return Application{}, err
	}
	app.Status = status
	return svc.repo.UpdateApplication(ctx, app)
}

// trackCollaboration mirrors the membership change on the account's
// collaboration list. The member set on the project stays authoritative, so a
// missing account is not an error.
func (svc *service) trackCollaboration(ctx context.Context, userID, projectID string, add bool, exec core.DBExecutor) error {
	acct, err := svc.accountRepo.GetAccount(ctx, account.GetFilter{ID: userID, ForUpdate: true}, exec)
	if err != nil {
		if pkgerrors.Cause(err) == account.ErrNotFound {
			return nil
		}
		return pkgerrors.Wrap(err, "finding member account")
	}
	if add {
		acct.Collaborations = core.AppendStringOnce(acct.Collaborations, projectID)
	} else {
		acct.Collaborations = core.RemoveString(acct.Collaborations, projectID)
	}
	acct.UpdatedAt = time.Now().UTC()
	_, err = svc.accountRepo.UpdateAccount(ctx, acct, exec)
	return pkgerrors.Wrap(err, "tracking collaboration")
}

func (svc *service) sendJoinMail(ctx context.Context, prj Project, userID string) {
	creator, err := svc.accountRepo.GetAccount(ctx, account.GetFilter{ID: prj.CreatorID})
	if err != nil {
		return
	}
	member, err := svc.accountRepo.GetAccount(ctx, account.GetFilter{ID: userID})
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: creator.Name, Address: creator.Email}},
		Subject:      fmt.Sprintf("%s joined %q", member.Name, prj.Title),
		TemplateName: "project_join",
		TemplateData: struct {
			Name       string
			MemberName string
			Title      string
			Members    int
			MaxMembers int
		}{creator.Name, member.Name, prj.Title, len(prj.CurrentMembers), prj.MaxMembers},
	})
}

func (svc *service) sendApplicationMail(ctx context.Context, prj Project, app Application) {
	creator, err := svc.accountRepo.GetAccount(ctx, account.GetFilter{ID: prj.CreatorID})
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: creator.Name, Address: creator.Email}},
		Subject:      fmt.Sprintf("New application for %q", prj.Title),
		TemplateName: "project_application",
		TemplateData: struct {
			Name    string
			Title   string
			Message string
		}{creator.Name, prj.Title, app.Message},
	})
}

func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
