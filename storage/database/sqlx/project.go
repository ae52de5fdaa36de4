package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/project"
)

const projectColumns = `id, title, description, creator_id, required_skills, max_members,
	current_members, status, category, tags, difficulty_level, estimated_duration,
	contact_info, project_links, gallery_images, media_files, deadline, requirements,
	project_goals, created_at, updated_at`

type projectRow struct {
	ID                string         `db:"id"`
	Title             string         `db:"title"`
	Description       string         `db:"description"`
	CreatorID         string         `db:"creator_id"`
	RequiredSkills    pq.StringArray `db:"required_skills"`
	MaxMembers        int            `db:"max_members"`
	CurrentMembers    pq.StringArray `db:"current_members"`
	Status            string         `db:"status"`
	Category          string         `db:"category"`
	Tags              pq.StringArray `db:"tags"`
	DifficultyLevel   string         `db:"difficulty_level"`
	EstimatedDuration string         `db:"estimated_duration"`
	ContactInfo       null.String    `db:"contact_info"`
	ProjectLinks      pq.StringArray `db:"project_links"`
	GalleryImages     pq.StringArray `db:"gallery_images"`
	MediaFiles        pq.StringArray `db:"media_files"`
	Deadline          null.Time      `db:"deadline"`
	Requirements      null.String    `db:"requirements"`
	ProjectGoals      pq.StringArray `db:"project_goals"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

type applicationRow struct {
	ID            string         `db:"id"`
	ProjectID     string         `db:"project_id"`
	ApplicantID   string         `db:"applicant_id"`
	Message       string         `db:"message"`
	SkillsOffered pq.StringArray `db:"skills_offered"`
	Status        string         `db:"status"`
	CreatedAt     time.Time      `db:"created_at"`
}

type projectRepository struct {
	exec core.DBExecutor
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(exec core.DBExecutor) project.Repository {
	return &projectRepository{exec: exec}
}

func (repo projectRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func (repo projectRepository) row(prj project.Project) projectRow {
	return projectRow{
		ID:                prj.ID,
		Title:             prj.Title,
		Description:       prj.Description,
		CreatorID:         prj.CreatorID,
		RequiredSkills:    orEmptyArr(prj.RequiredSkills),
		MaxMembers:        prj.MaxMembers,
		CurrentMembers:    orEmptyArr(prj.CurrentMembers),
		Status:            prj.Status,
		Category:          prj.Category,
		Tags:              orEmptyArr(prj.Tags),
		DifficultyLevel:   prj.DifficultyLevel,
		EstimatedDuration: prj.EstimatedDuration,
		ContactInfo:       prj.ContactInfo,
		ProjectLinks:      orEmptyArr(prj.ProjectLinks),
		GalleryImages:     orEmptyArr(prj.GalleryImages),
		MediaFiles:        orEmptyArr(prj.MediaFiles),
		Deadline:          prj.Deadline,
		Requirements:      prj.Requirements,
		ProjectGoals:      orEmptyArr(prj.ProjectGoals),
		CreatedAt:         prj.CreatedAt.UTC(),
		UpdatedAt:         prj.UpdatedAt.UTC(),
	}
}

func (repo projectRepository) unrow(row projectRow) project.Project {
	return project.Project{
		ID:                row.ID,
		Title:             row.Title,
		Description:       row.Description,
		CreatorID:         row.CreatorID,
		RequiredSkills:    row.RequiredSkills,
		MaxMembers:        row.MaxMembers,
		CurrentMembers:    row.CurrentMembers,
		Status:            row.Status,
		Category:          row.Category,
		Tags:              row.Tags,
		DifficultyLevel:   row.DifficultyLevel,
		EstimatedDuration: row.EstimatedDuration,
		ContactInfo:       row.ContactInfo,
		ProjectLinks:      row.ProjectLinks,
		GalleryImages:     row.GalleryImages,
		MediaFiles:        row.MediaFiles,
		Deadline:          row.Deadline,
		Requirements:      row.Requirements,
		ProjectGoals:      row.ProjectGoals,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to project.ErrNotFound
func (repo projectRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return project.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo projectRepository) CreateProject(ctx context.Context, prj project.Project, exec ...core.DBExecutor) (project.Project, error) {
	q := `INSERT INTO project (` + projectColumns + `) VALUES (
		:id, :title, :description, :creator_id, :required_skills, :max_members,
		:current_members, :status, :category, :tags, :difficulty_level, :estimated_duration,
		:contact_info, :project_links, :gallery_images, :media_files, :deadline, :requirements,
		:project_goals, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, repo.row(prj)); err != nil {
		return project.Project{}, errors.Wrap(err, "inserting project")
	}
	return prj, nil
}

func (repo projectRepository) GetProject(ctx context.Context, filter project.GetFilter, exec ...core.DBExecutor) (project.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM project WHERE id = $1`
	if filter.ForUpdate {
		q += " FOR UPDATE"
	}

	var row projectRow
	if err := repo.getExec(exec).GetContext(ctx, &row, q, filter.ID); err != nil {
		return project.Project{}, repo.trapNoRowsErr(err, "finding project")
	}
	return repo.unrow(row), nil
}

func (repo projectRepository) QueryProjects(ctx context.Context, filter *project.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]project.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM project`
	var clauses []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		// projects with Title, Description or Category matching the keyword
		if filter.Search != "" {
			val := arg("%" + filter.Search + "%")
			clauses = append(clauses, fmt.Sprintf(
				"(title ILIKE %s OR description ILIKE %s OR category ILIKE %s)", val, val, val))
		}
		if filter.CreatorID != "" {
			clauses = append(clauses, fmt.Sprintf("creator_id = %s", arg(filter.CreatorID)))
		}
		if filter.MemberID != "" {
			clauses = append(clauses, fmt.Sprintf("%s = ANY(current_members)", arg(filter.MemberID)))
		}
		if filter.Status != "" {
			clauses = append(clauses, fmt.Sprintf("status = %s", arg(filter.Status)))
		}
		if filter.Category != "" {
			clauses = append(clauses, fmt.Sprintf("category ILIKE %s", arg(filter.Category)))
		}
		// projects requiring any of the provided skills
		if len(filter.Skills) > 0 {
			clauses = append(clauses, fmt.Sprintf("required_skills && %s", arg(pq.Array(filter.Skills))))
		}
	}

	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += orderBy(ordering)

	var rows []projectRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying projects")
	}

	projects := make([]project.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, repo.unrow(row))
	}
	return projects, nil
}

func (repo projectRepository) UpdateProject(ctx context.Context, prj project.Project, exec ...core.DBExecutor) (project.Project, error) {
	q := `UPDATE project SET
		title = :title, description = :description, required_skills = :required_skills,
		max_members = :max_members, current_members = :current_members, status = :status,
		category = :category, tags = :tags, difficulty_level = :difficulty_level,
		estimated_duration = :estimated_duration, contact_info = :contact_info,
		project_links = :project_links, gallery_images = :gallery_images,
		media_files = :media_files, deadline = :deadline, requirements = :requirements,
		project_goals = :project_goals, updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, repo.row(prj))
	if err != nil {
		return project.Project{}, errors.Wrap(err, "updating project")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return project.Project{}, project.ErrNotFound
	}
	return prj, nil
}

func (repo projectRepository) DeleteProjectsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	q := `DELETE FROM project WHERE id = ANY($1)`
	if _, err := repo.getExec(exec).ExecContext(ctx, q, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting projects")
	}
	return nil
}

func (repo projectRepository) CreateApplication(ctx context.Context, app project.Application, exec ...core.DBExecutor) (project.Application, error) {
	q := `INSERT INTO project_application (id, project_id, applicant_id, message, skills_offered, status, created_at)
		VALUES (:id, :project_id, :applicant_id, :message, :skills_offered, :status, :created_at)`
	row := applicationRow{
		ID:            app.ID,
		ProjectID:     app.ProjectID,
		ApplicantID:   app.ApplicantID,
		Message:       app.Message,
		SkillsOffered: orEmptyArr(app.SkillsOffered),
		Status:        app.Status,
		CreatedAt:     app.CreatedAt.UTC(),
	}
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, row); err != nil {
		return project.Application{}, errors.Wrap(err, "inserting application")
	}
	return app, nil
}

func (repo projectRepository) GetApplication(ctx context.Context, id string, exec ...core.DBExecutor) (project.Application, error) {
	q := `SELECT id, project_id, applicant_id, message, skills_offered, status, created_at
		FROM project_application WHERE id = $1`
	var row applicationRow
	if err := repo.getExec(exec).GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return project.Application{}, project.ErrApplicationNotFound
		}
		return project.Application{}, errors.Wrap(err, "finding application")
	}
	return repo.unrowApp(row), nil
}

func (repo projectRepository) QueryApplications(ctx context.Context, projectID string, exec ...core.DBExecutor) ([]project.Application, error) {
	q := `SELECT id, project_id, applicant_id, message, skills_offered, status, created_at
		FROM project_application WHERE project_id = $1 ORDER BY created_at`
	var rows []applicationRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, projectID); err != nil {
		return nil, errors.Wrap(err, "querying applications")
	}

	apps := make([]project.Application, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, repo.unrowApp(row))
	}
	return apps, nil
}

func (repo projectRepository) UpdateApplication(ctx context.Context, app project.Application, exec ...core.DBExecutor) (project.Application, error) {
	q := `UPDATE project_application SET status = :status WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, applicationRow{ID: app.ID, Status: app.Status})
	if err != nil {
		return project.Application{}, errors.Wrap(err, "updating application")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return project.Application{}, project.ErrApplicationNotFound
	}
	return app, nil
}

func (repo projectRepository) unrowApp(row applicationRow) project.Application {
	return project.Application{
		ID:            row.ID,
		ProjectID:     row.ProjectID,
		ApplicantID:   row.ApplicantID,
		Message:       row.Message,
		SkillsOffered: row.SkillsOffered,
		Status:        row.Status,
		CreatedAt:     row.CreatedAt,
	}
}
