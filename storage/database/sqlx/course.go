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
	"github.com/LestlinRobins/skilldom-BitnBuild/core/course"
)

const courseColumns = `id, title, description, teacher_id, skill_category, svc_value,
	duration, availability, learners, image_url, video_urls, document_urls,
	media_files, created_at, updated_at`

type courseRow struct {
	ID            string         `db:"id"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	TeacherID     string         `db:"teacher_id"`
	SkillCategory string         `db:"skill_category"`
	SVCValue      int            `db:"svc_value"`
	Duration      int            `db:"duration"`
	Availability  pq.StringArray `db:"availability"`
	Learners      pq.StringArray `db:"learners"`
	ImageURL      null.String    `db:"image_url"`
	VideoURLs     pq.StringArray `db:"video_urls"`
	DocumentURLs  pq.StringArray `db:"document_urls"`
	MediaFiles    pq.StringArray `db:"media_files"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

type courseRepository struct {
	exec core.DBExecutor
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) course.Repository {
	return &courseRepository{exec: exec}
}

func (repo courseRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func (repo courseRepository) row(crs course.Course) courseRow {
	return courseRow{
		ID:            crs.ID,
		Title:         crs.Title,
		Description:   crs.Description,
		TeacherID:     crs.TeacherID,
		SkillCategory: crs.SkillCategory,
		SVCValue:      crs.SVCValue,
		Duration:      crs.Duration,
		Availability:  orEmptyArr(crs.Availability),
		Learners:      orEmptyArr(crs.Learners),
		ImageURL:      crs.ImageURL,
		VideoURLs:     orEmptyArr(crs.VideoURLs),
		DocumentURLs:  orEmptyArr(crs.DocumentURLs),
		MediaFiles:    orEmptyArr(crs.MediaFiles),
		CreatedAt:     crs.CreatedAt.UTC(),
		UpdatedAt:     crs.UpdatedAt.UTC(),
	}
}

func (repo courseRepository) unrow(row courseRow) course.Course {
	return course.Course{
		ID:            row.ID,
		Title:         row.Title,
		Description:   row.Description,
		TeacherID:     row.TeacherID,
		SkillCategory: row.SkillCategory,
		SVCValue:      row.SVCValue,
		Duration:      row.Duration,
		Availability:  row.Availability,
		Learners:      row.Learners,
		ImageURL:      row.ImageURL,
		VideoURLs:     row.VideoURLs,
		DocumentURLs:  row.DocumentURLs,
		MediaFiles:    row.MediaFiles,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to course.ErrNotFound
func (repo courseRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return course.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	q := `INSERT INTO course (` + courseColumns + `) VALUES (
		:id, :title, :description, :teacher_id, :skill_category, :svc_value,
		:duration, :availability, :learners, :image_url, :video_urls, :document_urls,
		:media_files, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, repo.row(crs)); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, filter course.GetFilter, exec ...core.DBExecutor) (course.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM course WHERE id = $1`
	if filter.ForUpdate {
		q += " FOR UPDATE"
	}

	var row courseRow
	if err := repo.getExec(exec).GetContext(ctx, &row, q, filter.ID); err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, "finding course")
	}
	return repo.unrow(row), nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]course.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM course`
	var clauses []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		// courses with Title, Description or SkillCategory matching the keyword
		if filter.Search != "" {
			val := arg("%" + filter.Search + "%")
			clauses = append(clauses, fmt.Sprintf(
				"(title ILIKE %s OR description ILIKE %s OR skill_category ILIKE %s)", val, val, val))
		}
		if filter.TeacherID != "" {
			clauses = append(clauses, fmt.Sprintf("teacher_id = %s", arg(filter.TeacherID)))
		}
		if filter.SkillCategory != "" {
			clauses = append(clauses, fmt.Sprintf("skill_category ILIKE %s", arg(filter.SkillCategory)))
		}
	}

	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += orderBy(ordering)

	var rows []courseRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, repo.unrow(row))
	}
	return courses, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	q := `UPDATE course SET
		title = :title, description = :description, skill_category = :skill_category,
		svc_value = :svc_value, duration = :duration, availability = :availability,
		learners = :learners, image_url = :image_url, video_urls = :video_urls,
		document_urls = :document_urls, media_files = :media_files,
		updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, repo.row(crs))
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo courseRepository) DeleteCoursesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	q := `DELETE FROM course WHERE id = ANY($1)`
	if _, err := repo.getExec(exec).ExecContext(ctx, q, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	return nil
}
