package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
)

var (
	// errors
	ErrNotFound          = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient SVC balance")
	ErrAlreadyEnrolled   = errors.New("already enrolled in this course")
	ErrNotEnrolled       = errors.New("not enrolled in this course")
)

type (
	Repository interface {
		CreateAccount(ctx context.Context, acct Account, exec ...core.DBExecutor) (Account, error)
		GetAccount(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Account, error)
		// QueryAccounts applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Name or Email.
		QueryAccounts(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Account, error)
		UpdateAccount(ctx context.Context, acct Account, exec ...core.DBExecutor) (Account, error)

		CreateReview(ctx context.Context, rev Review, exec ...core.DBExecutor) (Review, error)
		QueryReviews(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Review, error)
	}

	// SkillVerifier runs the (simulated) AI check of an account's claimed
	// skills against its public profile evidence.
	SkillVerifier interface {
		VerifySkills(ctx context.Context, evidence VerificationEvidence) (VerificationResult, error)
	}

	Service interface {
		SignIn(ctx context.Context, na NewAccount) (Account, error)
		GetByID(ctx context.Context, id string) (Account, error)
		GetByEmail(ctx context.Context, email string) (Account, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Account, error)
		Update(ctx context.Context, id string, ua UpdateAccount) (Account, error)
		AddReview(ctx context.Context, nr NewReview) (Review, error)
		QueryReviews(ctx context.Context, userID string) ([]Review, error)
		VerifySkills(ctx context.Context, id string, evidence VerificationEvidence) (Account, error)
	}

	service struct {
		db       core.DB
		repo     Repository
		mailSvc  core.EmailService
		verifier SkillVerifier
		conf     *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, mailSvc core.EmailService, verifier SkillVerifier, conf *core.Config) Service {
	return &service{
		db:       db,
		repo:     repo,
		mailSvc:  mailSvc,
		verifier: verifier,
		conf:     conf,
	}
}

// SignIn gets or creates the Account matching the identity provider's claims.
// A first sign-in seeds the balance with the configured starting bonus and
// sends a welcome email.
func (svc *service) SignIn(ctx context.Context, na NewAccount) (Account, error) {
	acct, err := svc.repo.GetAccount(ctx, GetFilter{ID: na.ID})
	if err == nil {
		return acct, nil
	}
	if pkgerrors.Cause(err) != ErrNotFound {
		return Account{}, pkgerrors.Wrap(err, "finding account")
	}

	now := time.Now().UTC()
	acct = Account{
		ID:                 na.ID,
		Name:               na.Name,
		Email:              na.Email,
		AvatarURL:          null.NewString(na.AvatarURL, na.AvatarURL != ""),
		Skills:             na.Skills,
		SkillCoins:         svc.conf.SVC.StartingBonus,
		OngoingCourses:     []string{},
		CompletedCourses:   []string{},
		Collaborations:     []string{},
		OtherLinks:         []string{},
		VerificationStatus: VerificationUnverified,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if acct.Bio.IsZero() {
		bio := "New Skilldom member."
		if len(na.Skills) > 0 {
			bio = fmt.Sprintf("New Skilldom member passionate about %s.", na.Skills[0])
		}
		acct.Bio = null.StringFrom(bio)
	}

	acct, err = svc.repo.CreateAccount(ctx, acct)
	if err != nil {
		return Account{}, pkgerrors.Wrap(err, "creating account")
	}

	svc.sendWelcomeMail(acct)
	return acct, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Account, error) {
	return svc.repo.QueryAccounts(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, id string, ua UpdateAccount) (Account, error) {
	acct, err := svc.repo.GetAccount(ctx, GetFilter{ID: id})
	if err != nil {
		return Account{}, err
	}
	acct = ua.Apply(acct)
	acct.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acct)
}

// AddReview appends the review and recomputes the reviewed account's
// aggregate rating, both inside one transaction.
func (svc *service) AddReview(ctx context.Context, nr NewReview) (Review, error) {
	var rev Review
	err := core.Atomic(ctx, svc.db, func(exec core.DBExecutor) error {
		acct, err := svc.repo.GetAccount(ctx, GetFilter{ID: nr.UserID, ForUpdate: true}, exec)
		if err != nil {
			return err
		}

		rev = Review{
			UserID:     nr.UserID,
			ReviewerID: nr.ReviewerID,
			Rating:     nr.Rating,
			Comment:    null.NewString(nr.Comment, nr.Comment != ""),
			CreatedAt:  time.Now().UTC(),
		}
		if rev, err = svc.repo.CreateReview(ctx, rev, exec); err != nil {
			return pkgerrors.Wrap(err, "creating review")
		}

		revs, err := svc.repo.QueryReviews(ctx, nr.UserID, exec)
		if err != nil {
			return pkgerrors.Wrap(err, "querying reviews")
		}
		var sum int
		for _, r := range revs {
			sum += r.Rating
		}
		acct.Rating = float64(sum) / float64(len(revs))
		acct.UpdatedAt = time.Now().UTC()

		_, err = svc.repo.UpdateAccount(ctx, acct, exec)
		return pkgerrors.Wrap(err, "updating rating")
	})
	return rev, err
}

func (svc *service) QueryReviews(ctx context.Context, userID string) ([]Review, error) {
	return svc.repo.QueryReviews(ctx, userID)
}

// VerifySkills runs the skill verifier on the submitted evidence and stores
// the outcome on the account.
func (svc *service) VerifySkills(ctx context.Context, id string, evidence VerificationEvidence) (Account, error) {
	acct, err := svc.repo.GetAccount(ctx, GetFilter{ID: id})
	if err != nil {
		return Account{}, err
	}

	res, err := svc.verifier.VerifySkills(ctx, evidence)
	if err != nil {
		return Account{}, pkgerrors.Wrap(err, "verifying skills")
	}

	acct.SkillsVerified = res.Verified
	if res.Verified {
		acct.VerificationStatus = VerificationVerified
	} else {
		acct.VerificationStatus = VerificationRejected
	}
	if evidence.LinkedinURL != "" {
		acct.LinkedinURL = null.StringFrom(evidence.LinkedinURL)
	}
	if evidence.GithubURL != "" {
		acct.GithubURL = null.StringFrom(evidence.GithubURL)
	}
	if evidence.PortfolioURL != "" {
		acct.PortfolioURL = null.StringFrom(evidence.PortfolioURL)
	}
	acct.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acct)
}

func (svc *service) sendWelcomeMail(acct Account) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acct.Name, Address: acct.Email}},
		Subject:      "Welcome to Skilldom!",
		TemplateName: "welcome",
		TemplateData: struct {
			Name       string
			SkillCoins int
		}{acct.Name, acct.SkillCoins},
	})
}
