package course

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
	ErrNotFound        = errors.New("course not found")
	ErrTeacherNotFound = errors.New("course teacher not found")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		GetCourse(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Course, error)
		// QueryCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Title,
		// Description or SkillCategory.
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, nc NewCourse) (Course, error)
		GetByID(ctx context.Context, id string) (Course, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		Update(ctx context.Context, id string, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, ids ...string) error

		// Enroll debits price from the learner's balance and adds courseID to
		// their ongoing set. The teacher is paid nothing yet: the price is
		// implicitly escrowed until completion.
		Enroll(ctx context.Context, learnerID, courseID string, price int) (account.Account, error)
		// Complete moves courseID from the learner's ongoing set to the
		// completed set, credits the learner the flat reward (subject to the
		// configured reward policy) and pays the teacher the course price.
		Complete(ctx context.Context, learnerID, courseID string, reward int) (account.Account, error)
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

func (svc *service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		ID:            uuid.New().String(),
		Title:         nc.Title,
		Description:   nc.Description,
		TeacherID:     nc.TeacherID,
		SkillCategory: nc.SkillCategory,
		SVCValue:      nc.SVCValue,
		Duration:      nc.Duration,
		Availability:  orEmpty(nc.Availability),
		Learners:      []string{},
		ImageURL:      null.NewString(nc.ImageURL, nc.ImageURL != ""),
		VideoURLs:     orEmpty(nc.VideoURLs),
		DocumentURLs:  orEmpty(nc.DocumentURLs),
		MediaFiles:    orEmpty(nc.MediaFiles),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, GetFilter{ID: id})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, GetFilter{ID: id})
	if err != nil {
		return Course{}, err
	}
	crs = uc.Apply(crs)
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCoursesByID(ctx, ids)
}

func (svc *service) Enroll(ctx context.Context, learnerID, courseID string, price int) (account.Account, error) {
	if price < 0 {
		return account.Account{}, core.NewValidationError(nil, core.FieldError{Field: "price", Error: "cannot be negative"})
	}

	var (
		learner account.Account
		crs     *Course
	)
	err := core.Atomic(ctx, svc.db, func(exec core.DBExecutor) error {
		var err error
		learner, err = svc.accountRepo.GetAccount(ctx, account.GetFilter{ID: learnerID, ForUpdate: true}, exec)
		if err != nil {
			return err
		}
		if !learner.CanAfford(price) {
			return account.ErrInsufficientFunds
		}
		if err = learner.StartCourse(courseID); err != nil {
			return err
		}
		if err = learner.Debit(price); err != nil {
			return err
		}
		learner.UpdatedAt = time.Now().UTC()
		if learner, err = svc.accountRepo.UpdateAccount(ctx, learner, exec); err != nil {
			return pkgerrors.Wrap(err, "debiting learner")
		}

		// informational learner-list append; enrollment does not require the
		// course row to exist (the caller supplied the price)
		c, err := svc.repo.GetCourse(ctx, GetFilter{ID: courseID, ForUpdate: true}, exec)
		if err != nil {
			if pkgerrors.Cause(err) == ErrNotFound {
				return nil
			}
			return pkgerrors.Wrap(err, "finding course")
		}
		c.Learners = core.AppendStringOnce(c.Learners, learnerID)
		c.UpdatedAt = time.Now().UTC()
		if c, err = svc.repo.UpdateCourse(ctx, c, exec); err != nil {
			return pkgerrors.Wrap(err, "appending learner")
		}
		crs = &c
		return nil
	})
	if err != nil {
		return account.Account{}, err
	}

	if crs != nil {
		svc.sendEnrollmentMail(learner, *crs, price)
	}
	return learner, nil
}

func (svc *service) Complete(ctx context.Context, learnerID, courseID string, reward int) (account.Account, error) {
	if reward < 0 {
		return account.Account{}, core.NewValidationError(nil, core.FieldError{Field: "reward", Error: "cannot be negative"})
	}
	if svc.conf.SVC.RewardPolicy == core.RewardPolicyTransfer {
		// transfer-only mode conserves currency: the teacher is paid out of
		// the price escrowed at enrollment and nothing else is minted
		reward = 0
	}

	var (
		learner account.Account
		teacher account.Account
		crs     Course
	)
	err := core.Atomic(ctx, svc.db, func(exec core.DBExecutor) error {
		var err error
		learner, err = svc.accountRepo.GetAccount(ctx, account.GetFilter{ID: learnerID, ForUpdate: true}, exec)
		if err != nil {
			return err
		}
		if !learner.IsEnrolledIn(courseID) {
			return account.ErrNotEnrolled
		}
		if crs, err = svc.repo.GetCourse(ctx, GetFilter{ID: courseID}, exec); err != nil {
			return err
		}

		if err = learner.FinishCourse(courseID); err != nil {
			return err
		}
		learner.Credit(reward)
		learner.UpdatedAt = time.Now().UTC()

		// self-taught course: both credits land on the single account
		if crs.TeacherID == learner.ID {
			learner.Credit(crs.SVCValue)
			learner, err = svc.accountRepo.UpdateAccount(ctx, learner, exec)
			teacher = learner
			return pkgerrors.Wrap(err, "crediting learner")
		}

		teacher, err = svc.accountRepo.GetAccount(ctx, account.GetFilter{ID: crs.TeacherID, ForUpdate: true}, exec)
		if err != nil {
			if pkgerrors.Cause(err) == account.ErrNotFound {
				return ErrTeacherNotFound
			}
			return pkgerrors.Wrap(err, "finding teacher")
		}
		teacher.Credit(crs.SVCValue)
		teacher.UpdatedAt = time.Now().UTC()

		if learner, err = svc.accountRepo.UpdateAccount(ctx, learner, exec); err != nil {
			return pkgerrors.Wrap(err, "crediting learner")
		}
		if teacher, err = svc.accountRepo.UpdateAccount(ctx, teacher, exec); err != nil {
			return pkgerrors.Wrap(err, "crediting teacher")
		}
		return nil
	})
	if err != nil {
		return account.Account{}, err
	}

	svc.sendCompletionMails(learner, teacher, crs, reward)
	return learner, nil
}

func (svc *service) sendEnrollmentMail(learner account.Account, crs Course, price int) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: learner.Name, Address: learner.Email}},
		Subject:      fmt.Sprintf("You are enrolled in %q", crs.Title),
		TemplateName: "enrollment",
		TemplateData: struct {
			Name    string
			Title   string
			Price   int
			Balance int
		}{learner.Name, crs.Title, price, learner.SkillCoins},
	})
}

func (svc *service) sendCompletionMails(learner, teacher account.Account, crs Course, reward int) {
	messages := []*core.EmailMessage{{
		To:           []mail.Address{{Name: learner.Name, Address: learner.Email}},
		Subject:      fmt.Sprintf("Course %q completed", crs.Title),
		TemplateName: "completion",
		TemplateData: struct {
			Name    string
			Title   string
			Reward  int
			Balance int
		}{learner.Name, crs.Title, reward, learner.SkillCoins},
	}}
	if teacher.ID != learner.ID {
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: teacher.Name, Address: teacher.Email}},
			Subject:      fmt.Sprintf("A learner completed %q", crs.Title),
			TemplateName: "payout",
			TemplateData: struct {
				Name    string
				Title   string
				Payout  int
				Balance int
			}{teacher.Name, crs.Title, crs.SVCValue, teacher.SkillCoins},
		})
	}
	svc.mailSvc.SendMessages(messages...)
}

func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
