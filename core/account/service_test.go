package account_test

import (
	"context"
	"strings"
	"testing"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/account"
	emailsvc "github.com/LestlinRobins/skilldom-BitnBuild/services/email"
	verifysvc "github.com/LestlinRobins/skilldom-BitnBuild/services/verify"
	inmemdb "github.com/LestlinRobins/skilldom-BitnBuild/storage/database/inmem"
	testutil "github.com/LestlinRobins/skilldom-BitnBuild/tests"
)

func setup(t *testing.T) (account.Service, account.Repository, *core.Config) {
	t.Helper()
	conf := testutil.NewConfig()
	core.ParseEmailTemplates(conf, testutil.Logger{})
	emailsvc.ClearSentMessages()

	repo := inmemdb.NewAccountRepository()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	verifier := verifysvc.NewSimulatedVerifier(testutil.Logger{})
	svc := account.NewServiceMock(repo, mailSvc, verifier, conf)
	return svc, repo, conf
}

func TestServiceSignIn(t *testing.T) {
	svc, repo, conf := setup(t)
	ctx := context.Background()

	na := account.NewAccount{
		ID:     "uid-alice",
		Name:   "Alice",
		Email:  "alice@test.test",
		Skills: []string{"Go", "SQL"},
	}

	acct, err := svc.SignIn(ctx, na)
	if err != nil {
		t.Fatalf("SignIn() failed: %v", err)
	}
	if acct.SkillCoins != conf.SVC.StartingBonus {
		t.Errorf("SkillCoins = %d; want %d", acct.SkillCoins, conf.SVC.StartingBonus)
	}
	if acct.VerificationStatus != account.VerificationUnverified {
		t.Errorf("VerificationStatus = %q; want %q", acct.VerificationStatus, account.VerificationUnverified)
	}
	if !strings.Contains(acct.Bio.String, "Go") {
		t.Errorf("Bio = %q; want the first skill mentioned", acct.Bio.String)
	}
	if len(acct.OngoingCourses) != 0 || len(acct.CompletedCourses) != 0 || len(acct.Collaborations) != 0 {
		t.Error("new account must start with empty course and collaboration sets")
	}

	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if msg.Subject != "Welcome to Skilldom!" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.To[0].Address != na.Email {
		t.Errorf("To = %q; want %q", msg.To[0].Address, na.Email)
	}
	if !strings.Contains(msg.TextContent, "Alice") {
		t.Errorf("TextContent = %q; want greeting by name", msg.TextContent)
	}

	// a later sign-in must not re-seed the balance nor resend the welcome mail
	acct.SkillCoins = 42
	if _, err = repo.UpdateAccount(ctx, acct); err != nil {
		t.Fatalf("UpdateAccount() failed: %v", err)
	}
	again, err := svc.SignIn(ctx, na)
	if err != nil {
		t.Fatalf("second SignIn() failed: %v", err)
	}
	if again.SkillCoins != 42 {
		t.Errorf("SkillCoins = %d; want 42 (no re-seed)", again.SkillCoins)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Errorf("len(SentMessages) = %d; want 1 (no duplicate welcome)", len(emailsvc.SentMessages))
	}
}

func TestAccountLedger(t *testing.T) {
	acct := account.Account{ID: "uid", SkillCoins: 100}

	if acct.CanAfford(101) {
		t.Error("CanAfford(101) = true; want false")
	}
	if err := acct.Debit(101); err != account.ErrInsufficientFunds {
		t.Errorf("Debit(101) error = %v; want ErrInsufficientFunds", err)
	}
	if acct.SkillCoins != 100 {
		t.Errorf("SkillCoins = %d; want 100 (failed debit must not mutate)", acct.SkillCoins)
	}
	if err := acct.Debit(60); err != nil {
		t.Fatalf("Debit(60) failed: %v", err)
	}
	acct.Credit(10)
	if acct.SkillCoins != 50 {
		t.Errorf("SkillCoins = %d; want 50", acct.SkillCoins)
	}
}

func TestAccountCourseSets(t *testing.T) {
	acct := account.Account{ID: "uid"}

	if err := acct.FinishCourse("crs1"); err != account.ErrNotEnrolled {
		t.Errorf("FinishCourse() error = %v; want ErrNotEnrolled", err)
	}
	if err := acct.StartCourse("crs1"); err != nil {
		t.Fatalf("StartCourse() failed: %v", err)
	}
	if err := acct.StartCourse("crs1"); err != account.ErrAlreadyEnrolled {
		t.Errorf("StartCourse() error = %v; want ErrAlreadyEnrolled", err)
	}
	if err := acct.FinishCourse("crs1"); err != nil {
		t.Fatalf("FinishCourse() failed: %v", err)
	}
	if acct.IsEnrolledIn("crs1") {
		t.Error("IsEnrolledIn() = true after completion")
	}
	if !acct.HasCompleted("crs1") {
		t.Error("HasCompleted() = false after completion")
	}

	// re-completing via a fresh enrollment must not duplicate the entry
	if err := acct.StartCourse("crs1"); err != nil {
		t.Fatalf("StartCourse() failed: %v", err)
	}
	if err := acct.FinishCourse("crs1"); err != nil {
		t.Fatalf("FinishCourse() failed: %v", err)
	}
	if len(acct.CompletedCourses) != 1 {
		t.Errorf("len(CompletedCourses) = %d; want 1", len(acct.CompletedCourses))
	}
}

func TestServiceAddReview(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	alice := testutil.CreateAccount(t, repo, "uid-alice", "Alice", "alice@test.test", 500)
	testutil.CreateAccount(t, repo, "uid-bob", "Bob", "bob@test.test", 500)
	testutil.CreateAccount(t, repo, "uid-carl", "Carl", "carl@test.test", 500)

	if _, err := svc.AddReview(ctx, account.NewReview{UserID: alice.ID, ReviewerID: "uid-bob", Rating: 4, Comment: "great teacher"}); err != nil {
		t.Fatalf("AddReview() failed: %v", err)
	}
	if _, err := svc.AddReview(ctx, account.NewReview{UserID: alice.ID, ReviewerID: "uid-carl", Rating: 5}); err != nil {
		t.Fatalf("AddReview() failed: %v", err)
	}

	alice, err := svc.GetByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if alice.Rating != 4.5 {
		t.Errorf("Rating = %v; want 4.5", alice.Rating)
	}

	revs, err := svc.QueryReviews(ctx, alice.ID)
	if err != nil {
		t.Fatalf("QueryReviews() failed: %v", err)
	}
	if len(revs) != 2 {
		t.Errorf("len(reviews) = %d; want 2", len(revs))
	}
}

func TestServiceVerifySkills(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	alice := testutil.CreateAccount(t, repo, "uid-alice", "Alice", "alice@test.test", 500, "go")

	tests := []struct {
		name       string
		evidence   account.VerificationEvidence
		wantStatus string
	}{
		{
			name: "strong evidence verifies",
			evidence: account.VerificationEvidence{
				ClaimedSkills: []string{"go"},
				GithubURL:     "https://github.com/alice",
				LinkedinURL:   "https://linkedin.com/in/alice",
				PortfolioURL:  "https://alice.dev",
			},
			wantStatus: account.VerificationVerified,
		},
		{
			name: "bare claim is rejected",
			evidence: account.VerificationEvidence{
				ClaimedSkills: []string{"quantum computing"},
			},
			wantStatus: account.VerificationRejected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct, err := svc.VerifySkills(ctx, alice.ID, tt.evidence)
			if err != nil {
				t.Fatalf("VerifySkills() failed: %v", err)
			}
			if acct.VerificationStatus != tt.wantStatus {
				t.Errorf("VerificationStatus = %q; want %q", acct.VerificationStatus, tt.wantStatus)
			}
			if tt.evidence.GithubURL != "" && acct.GithubURL.String != tt.evidence.GithubURL {
				t.Errorf("GithubURL = %q; want evidence link stored", acct.GithubURL.String)
			}
		})
	}

	if _, err := svc.VerifySkills(ctx, "uid-nobody", account.VerificationEvidence{ClaimedSkills: []string{"go"}}); err != account.ErrNotFound {
		t.Errorf("VerifySkills() error = %v; want ErrNotFound", err)
	}
	_ = repo
}

func TestServiceUpdate(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	alice := testutil.CreateAccount(t, repo, "uid-alice", "Alice", "alice@test.test", 500)

	bio := "Gopher at heart."
	done := true
	acct, err := svc.Update(ctx, alice.ID, account.UpdateAccount{
		Name:                "Alice A.",
		Bio:                 &bio,
		Skills:              []string{"go", "postgres"},
		OnboardingCompleted: &done,
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if acct.Name != "Alice A." || acct.Bio.String != bio || !acct.OnboardingCompleted {
		t.Errorf("Update() = %+v; profile fields not applied", acct)
	}
	if acct.SkillCoins != 500 {
		t.Errorf("SkillCoins = %d; want 500 (profile edits never touch the ledger)", acct.SkillCoins)
	}

	if _, err = svc.Update(ctx, "uid-nobody", account.UpdateAccount{Name: "X"}); err != account.ErrNotFound {
		t.Errorf("Update() error = %v; want ErrNotFound", err)
	}
}
