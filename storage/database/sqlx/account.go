package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/account"
)

const accountColumns = `id, name, email, avatar_url, skills, bio, rating, skill_coins,
	ongoing_courses, completed_courses, collaborations, linkedin_url, github_url,
	portfolio_url, other_links, skills_verified, verification_status,
	onboarding_completed, created_at, updated_at`

type accountRow struct {
	ID                  string         `db:"id"`
	Name                string         `db:"name"`
	Email               string         `db:"email"`
	AvatarURL           null.String    `db:"avatar_url"`
	Skills              pq.StringArray `db:"skills"`
	Bio                 null.String    `db:"bio"`
	Rating              float64        `db:"rating"`
	SkillCoins          int            `db:"skill_coins"`
	OngoingCourses      pq.StringArray `db:"ongoing_courses"`
	CompletedCourses    pq.StringArray `db:"completed_courses"`
	Collaborations      pq.StringArray `db:"collaborations"`
	LinkedinURL         null.String    `db:"linkedin_url"`
	GithubURL           null.String    `db:"github_url"`
	PortfolioURL        null.String    `db:"portfolio_url"`
	OtherLinks          pq.StringArray `db:"other_links"`
	SkillsVerified      bool           `db:"skills_verified"`
	VerificationStatus  string         `db:"verification_status"`
	OnboardingCompleted bool           `db:"onboarding_completed"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

type reviewRow struct {
	ID         string      `db:"id"`
	UserID     string      `db:"user_id"`
	ReviewerID string      `db:"reviewer_id"`
	Rating     int         `db:"rating"`
	Comment    null.String `db:"comment"`
	CreatedAt  time.Time   `db:"created_at"`
}

type accountRepository struct {
	exec core.DBExecutor
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(exec core.DBExecutor) account.Repository {
	return &accountRepository{exec: exec}
}

func (repo accountRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func (repo accountRepository) row(acct account.Account) accountRow {
	return accountRow{
		ID:                  acct.ID,
		Name:                acct.Name,
		Email:               acct.Email,
		AvatarURL:           acct.AvatarURL,
		Skills:              orEmptyArr(acct.Skills),
		Bio:                 acct.Bio,
		Rating:              acct.Rating,
		SkillCoins:          acct.SkillCoins,
		OngoingCourses:      orEmptyArr(acct.OngoingCourses),
		CompletedCourses:    orEmptyArr(acct.CompletedCourses),
		Collaborations:      orEmptyArr(acct.Collaborations),
		LinkedinURL:         acct.LinkedinURL,
		GithubURL:           acct.GithubURL,
		PortfolioURL:        acct.PortfolioURL,
		OtherLinks:          orEmptyArr(acct.OtherLinks),
		SkillsVerified:      acct.SkillsVerified,
		VerificationStatus:  acct.VerificationStatus,
		OnboardingCompleted: acct.OnboardingCompleted,
		CreatedAt:           acct.CreatedAt.UTC(),
		UpdatedAt:           acct.UpdatedAt.UTC(),
	}
}

func (repo accountRepository) unrow(row accountRow) account.Account {
	return account.Account{
		ID:                  row.ID,
		Name:                row.Name,
		Email:               row.Email,
		AvatarURL:           row.AvatarURL,
		Skills:              row.Skills,
		Bio:                 row.Bio,
		Rating:              row.Rating,
		SkillCoins:          row.SkillCoins,
		OngoingCourses:      row.OngoingCourses,
		CompletedCourses:    row.CompletedCourses,
		Collaborations:      row.Collaborations,
		LinkedinURL:         row.LinkedinURL,
		GithubURL:           row.GithubURL,
		PortfolioURL:        row.PortfolioURL,
		OtherLinks:          row.OtherLinks,
		SkillsVerified:      row.SkillsVerified,
		VerificationStatus:  row.VerificationStatus,
		OnboardingCompleted: row.OnboardingCompleted,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to account.ErrNotFound
func (repo accountRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return account.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo accountRepository) CreateAccount(ctx context.Context, acct account.Account, exec ...core.DBExecutor) (account.Account, error) {
	q := `INSERT INTO "user" (` + accountColumns + `) VALUES (
		:id, :name, :email, :avatar_url, :skills, :bio, :rating, :skill_coins,
		:ongoing_courses, :completed_courses, :collaborations, :linkedin_url, :github_url,
		:portfolio_url, :other_links, :skills_verified, :verification_status,
		:onboarding_completed, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, repo.row(acct)); err != nil {
		return account.Account{}, errors.Wrap(err, "inserting account")
	}
	return acct, nil
}

func (repo accountRepository) GetAccount(ctx context.Context, filter account.GetFilter, exec ...core.DBExecutor) (account.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM "user" WHERE `
	var arg interface{}
	if filter.ID != "" {
		q += "id = $1"
		arg = filter.ID
	} else {
		q += "email = $1"
		arg = filter.Email
	}
	if filter.ForUpdate {
		q += " FOR UPDATE"
	}

	var row accountRow
	if err := repo.getExec(exec).GetContext(ctx, &row, q, arg); err != nil {
		return account.Account{}, repo.trapNoRowsErr(err, "finding account")
	}
	return repo.unrow(row), nil
}

func (repo accountRepository) QueryAccounts(ctx context.Context, filter *account.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]account.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM "user"`
	var clauses []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		// accounts with Name or Email matching the search keyword
		if filter.Search != "" {
			val := arg("%" + filter.Search + "%")
			clauses = append(clauses, fmt.Sprintf("(name ILIKE %s OR email ILIKE %s)", val, val))
		}
		// accounts offering any of the provided skills
		if len(filter.Skills) > 0 {
			clauses = append(clauses, fmt.Sprintf("skills && %s", arg(pq.Array(filter.Skills))))
		}
		if filter.Verified != nil {
			clauses = append(clauses, fmt.Sprintf("skills_verified = %s", arg(*filter.Verified)))
		}
		if !filter.CreatedFrom.IsZero() {
			clauses = append(clauses, fmt.Sprintf("created_at >= %s", arg(filter.CreatedFrom.UTC())))
		}
		if !filter.CreatedTo.IsZero() {
			clauses = append(clauses, fmt.Sprintf("created_at <= %s", arg(filter.CreatedTo.UTC())))
		}
	}

	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += orderBy(ordering)

	var rows []accountRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}

	accts := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		accts = append(accts, repo.unrow(row))
	}
	return accts, nil
}

func (repo accountRepository) UpdateAccount(ctx context.Context, acct account.Account, exec ...core.DBExecutor) (account.Account, error) {
	q := `UPDATE "user" SET
		name = :name, email = :email, avatar_url = :avatar_url, skills = :skills,
		bio = :bio, rating = :rating, skill_coins = :skill_coins,
		ongoing_courses = :ongoing_courses, completed_courses = :completed_courses,
		collaborations = :collaborations, linkedin_url = :linkedin_url,
		github_url = :github_url, portfolio_url = :portfolio_url,
		other_links = :other_links, skills_verified = :skills_verified,
		verification_status = :verification_status,
		onboarding_completed = :onboarding_completed, updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, repo.row(acct))
	if err != nil {
		return account.Account{}, errors.Wrap(err, "updating account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return acct, nil
}

func (repo accountRepository) CreateReview(ctx context.Context, rev account.Review, exec ...core.DBExecutor) (account.Review, error) {
	rev.ID = uuid.New().String()
	q := `INSERT INTO user_review (id, user_id, reviewer_id, rating, comment, created_at)
		VALUES (:id, :user_id, :reviewer_id, :rating, :comment, :created_at)`
	row := reviewRow{
		ID:         rev.ID,
		UserID:     rev.UserID,
		ReviewerID: rev.ReviewerID,
		Rating:     rev.Rating,
		Comment:    rev.Comment,
		CreatedAt:  rev.CreatedAt.UTC(),
	}
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, row); err != nil {
		return account.Review{}, errors.Wrap(err, "inserting review")
	}
	return rev, nil
}

func (repo accountRepository) QueryReviews(ctx context.Context, userID string, exec ...core.DBExecutor) ([]account.Review, error) {
	q := `SELECT id, user_id, reviewer_id, rating, comment, created_at
		FROM user_review WHERE user_id = $1 ORDER BY created_at`
	var rows []reviewRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying reviews")
	}

	revs := make([]account.Review, 0, len(rows))
	for _, row := range rows {
		revs = append(revs, account.Review{
			ID:         row.ID,
			UserID:     row.UserID,
			ReviewerID: row.ReviewerID,
			Rating:     row.Rating,
			Comment:    row.Comment,
			CreatedAt:  row.CreatedAt,
		})
	}
	return revs, nil
}

func orderBy(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return ""
	}
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}

func orEmptyArr(ss []string) pq.StringArray {
	if ss == nil {
		return pq.StringArray{}
	}
	return ss
}
