package course_test

import (
	"context"
	"strings"
	"testing"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/account"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/course"
	emailsvc "github.com/LestlinRobins/skilldom-BitnBuild/services/email"
	inmemdb "github.com/LestlinRobins/skilldom-BitnBuild/storage/database/inmem"
	testutil "github.com/LestlinRobins/skilldom-BitnBuild/tests"
)

func setup(t *testing.T, conf *core.Config) (course.Service, course.Repository, account.Repository) {
	t.Helper()
	core.ParseEmailTemplates(conf, testutil.Logger{})
	emailsvc.ClearSentMessages()

	crsRepo := inmemdb.NewCourseRepository()
	acctRepo := inmemdb.NewAccountRepository()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	svc := course.NewServiceMock(crsRepo, acctRepo, mailSvc, conf)
	return svc, crsRepo, acctRepo
}

func TestServiceEnroll(t *testing.T) {
	conf := testutil.NewConfig()
	svc, crsRepo, acctRepo := setup(t, conf)
	ctx := context.Background()

	bob := testutil.CreateAccount(t, acctRepo, "uid-bob", "Bob", "bob@test.test", 500)
	alice := testutil.CreateAccount(t, acctRepo, "uid-alice", "Alice", "alice@test.test", 500)
	testutil.CreateAccount(t, acctRepo, "uid-carol", "Carol", "carol@test.test", 100)
	crs := testutil.CreateCourse(t, crsRepo, bob.ID, "Intro to Go", 150)

	learner, err := svc.Enroll(ctx, alice.ID, crs.ID, crs.SVCValue)
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	if learner.SkillCoins != 350 {
		t.Errorf("SkillCoins = %d; want 350", learner.SkillCoins)
	}
	if !learner.IsEnrolledIn(crs.ID) {
		t.Error("IsEnrolledIn() = false after enrollment")
	}

	crs, err = svc.GetByID(ctx, crs.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if !core.ContainsString(crs.Learners, alice.ID) {
		t.Error("course learner list does not record the enrollment")
	}

	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if msg.To[0].Address != alice.Email {
		t.Errorf("To = %q; want %q", msg.To[0].Address, alice.Email)
	}
	if !strings.Contains(msg.TextContent, "Intro to Go") {
		t.Errorf("TextContent = %q; want the course title", msg.TextContent)
	}

	t.Run("already enrolled", func(t *testing.T) {
		if _, err := svc.Enroll(ctx, alice.ID, crs.ID, crs.SVCValue); err != account.ErrAlreadyEnrolled {
			t.Errorf("Enroll() error = %v; want ErrAlreadyEnrolled", err)
		}
		acct, _ := acctRepo.GetAccount(ctx, account.GetFilter{ID: alice.ID})
		if acct.SkillCoins != 350 {
			t.Errorf("SkillCoins = %d; want 350 (no double debit)", acct.SkillCoins)
		}
	})

	t.Run("insufficient funds", func(t *testing.T) {
		if _, err := svc.Enroll(ctx, "uid-carol", crs.ID, crs.SVCValue); err != account.ErrInsufficientFunds {
			t.Errorf("Enroll() error = %v; want ErrInsufficientFunds", err)
		}
		acct, _ := acctRepo.GetAccount(ctx, account.GetFilter{ID: "uid-carol"})
		if acct.SkillCoins != 100 {
			t.Errorf("SkillCoins = %d; want 100 (failed enrollment must not mutate)", acct.SkillCoins)
		}
		if len(acct.OngoingCourses) != 0 {
			t.Error("failed enrollment must not add to the ongoing set")
		}
	})

	t.Run("unknown learner", func(t *testing.T) {
		if _, err := svc.Enroll(ctx, "uid-nobody", crs.ID, crs.SVCValue); err != account.ErrNotFound {
			t.Errorf("Enroll() error = %v; want ErrNotFound", err)
		}
	})

	t.Run("negative price", func(t *testing.T) {
		_, err := svc.Enroll(ctx, bob.ID, crs.ID, -1)
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("Enroll() error = %v; want *core.ValidationError", err)
		}
	})

	t.Run("missing course row", func(t *testing.T) {
		// the ledger mutation still goes through; the learner-list append and
		// the mail are skipped
		emailsvc.ClearSentMessages()
		learner, err := svc.Enroll(ctx, bob.ID, "crs-ghost", 50)
		if err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
		if learner.SkillCoins != 450 {
			t.Errorf("SkillCoins = %d; want 450", learner.SkillCoins)
		}
		if !learner.IsEnrolledIn("crs-ghost") {
			t.Error("IsEnrolledIn() = false after enrollment")
		}
		if len(emailsvc.SentMessages) != 0 {
			t.Errorf("len(SentMessages) = %d; want 0", len(emailsvc.SentMessages))
		}
	})
}

func TestServiceComplete(t *testing.T) {
	conf := testutil.NewConfig()
	svc, crsRepo, acctRepo := setup(t, conf)
	ctx := context.Background()

	bob := testutil.CreateAccount(t, acctRepo, "uid-bob", "Bob", "bob@test.test", 500)
	alice := testutil.CreateAccount(t, acctRepo, "uid-alice", "Alice", "alice@test.test", 500)
	crs := testutil.CreateCourse(t, crsRepo, bob.ID, "Intro to Go", 150)

	if _, err := svc.Enroll(ctx, alice.ID, crs.ID, crs.SVCValue); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	emailsvc.ClearSentMessages()

	learner, err := svc.Complete(ctx, alice.ID, crs.ID, conf.SVC.DefaultReward)
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	if learner.SkillCoins != 450 { // 500 - 150 + 100
		t.Errorf("learner SkillCoins = %d; want 450", learner.SkillCoins)
	}
	if learner.IsEnrolledIn(crs.ID) || !learner.HasCompleted(crs.ID) {
		t.Error("completion must move the course from ongoing to completed")
	}

	teacher, err := acctRepo.GetAccount(ctx, account.GetFilter{ID: bob.ID})
	if err != nil {
		t.Fatalf("GetAccount() failed: %v", err)
	}
	if teacher.SkillCoins != 650 { // 500 + 150
		t.Errorf("teacher SkillCoins = %d; want 650", teacher.SkillCoins)
	}

	if len(emailsvc.SentMessages) != 2 {
		t.Fatalf("len(SentMessages) = %d; want 2 (completion + payout)", len(emailsvc.SentMessages))
	}

	t.Run("double completion", func(t *testing.T) {
		if _, err := svc.Complete(ctx, alice.ID, crs.ID, conf.SVC.DefaultReward); err != account.ErrNotEnrolled {
			t.Errorf("Complete() error = %v; want ErrNotEnrolled", err)
		}
		acct, _ := acctRepo.GetAccount(ctx, account.GetFilter{ID: alice.ID})
		if acct.SkillCoins != 450 {
			t.Errorf("SkillCoins = %d; want 450 (no double reward)", acct.SkillCoins)
		}
	})

	t.Run("not enrolled", func(t *testing.T) {
		if _, err := svc.Complete(ctx, bob.ID, crs.ID, conf.SVC.DefaultReward); err != account.ErrNotEnrolled {
			t.Errorf("Complete() error = %v; want ErrNotEnrolled", err)
		}
	})

	t.Run("missing course row", func(t *testing.T) {
		if _, err := svc.Enroll(ctx, bob.ID, "crs-ghost", 0); err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
		if _, err := svc.Complete(ctx, bob.ID, "crs-ghost", conf.SVC.DefaultReward); err != course.ErrNotFound {
			t.Errorf("Complete() error = %v; want ErrNotFound", err)
		}
	})

	t.Run("negative reward", func(t *testing.T) {
		_, err := svc.Complete(ctx, alice.ID, crs.ID, -1)
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("Complete() error = %v; want *core.ValidationError", err)
		}
	})
}

func TestServiceCompleteMissingTeacher(t *testing.T) {
	conf := testutil.NewConfig()
	svc, crsRepo, acctRepo := setup(t, conf)
	ctx := context.Background()

	alice := testutil.CreateAccount(t, acctRepo, "uid-alice", "Alice", "alice@test.test", 500)
	crs := testutil.CreateCourse(t, crsRepo, "uid-ghost", "Orphaned", 150)

	if _, err := svc.Enroll(ctx, alice.ID, crs.ID, crs.SVCValue); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}

	if _, err := svc.Complete(ctx, alice.ID, crs.ID, conf.SVC.DefaultReward); err != course.ErrTeacherNotFound {
		t.Errorf("Complete() error = %v; want ErrTeacherNotFound", err)
	}
	acct, _ := acctRepo.GetAccount(ctx, account.GetFilter{ID: alice.ID})
	if acct.SkillCoins != 350 {
		t.Errorf("SkillCoins = %d; want 350 (failed completion must not credit)", acct.SkillCoins)
	}
	if !acct.IsEnrolledIn(crs.ID) {
		t.Error("failed completion must leave the enrollment intact")
	}
}

func TestServiceCompleteSelfTaught(t *testing.T) {
	conf := testutil.NewConfig()
	svc, crsRepo, acctRepo := setup(t, conf)
	ctx := context.Background()

	bob := testutil.CreateAccount(t, acctRepo, "uid-bob", "Bob", "bob@test.test", 500)
	crs := testutil.CreateCourse(t, crsRepo, bob.ID, "Teach Yourself Go", 150)

	if _, err := svc.Enroll(ctx, bob.ID, crs.ID, crs.SVCValue); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	emailsvc.ClearSentMessages()

	learner, err := svc.Complete(ctx, bob.ID, crs.ID, conf.SVC.DefaultReward)
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	if learner.SkillCoins != 600 { // 500 - 150 + 100 + 150
		t.Errorf("SkillCoins = %d; want 600", learner.SkillCoins)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Errorf("len(SentMessages) = %d; want 1 (no separate payout mail)", len(emailsvc.SentMessages))
	}
}

func TestServiceCompleteTransferPolicy(t *testing.T) {
	conf := testutil.NewConfig()
	conf.SVC.RewardPolicy = core.RewardPolicyTransfer
	svc, crsRepo, acctRepo := setup(t, conf)
	ctx := context.Background()

	bob := testutil.CreateAccount(t, acctRepo, "uid-bob", "Bob", "bob@test.test", 500)
	alice := testutil.CreateAccount(t, acctRepo, "uid-alice", "Alice", "alice@test.test", 500)
	crs := testutil.CreateCourse(t, crsRepo, bob.ID, "Intro to Go", 150)

	if _, err := svc.Enroll(ctx, alice.ID, crs.ID, crs.SVCValue); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	learner, err := svc.Complete(ctx, alice.ID, crs.ID, conf.SVC.DefaultReward)
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	teacher, _ := acctRepo.GetAccount(ctx, account.GetFilter{ID: bob.ID})

	if learner.SkillCoins != 350 { // no reward minted
		t.Errorf("learner SkillCoins = %d; want 350", learner.SkillCoins)
	}
	if teacher.SkillCoins != 650 {
		t.Errorf("teacher SkillCoins = %d; want 650", teacher.SkillCoins)
	}
	if total := learner.SkillCoins + teacher.SkillCoins; total != 1000 {
		t.Errorf("total coins = %d; want 1000 (transfers conserve currency)", total)
	}
}

func TestServiceCRUD(t *testing.T) {
	conf := testutil.NewConfig()
	svc, _, acctRepo := setup(t, conf)
	ctx := context.Background()

	bob := testutil.CreateAccount(t, acctRepo, "uid-bob", "Bob", "bob@test.test", 500)

	crs, err := svc.Create(ctx, course.NewCourse{
		Title:         "Intro to Go",
		Description:   "From zero to gopher.",
		TeacherID:     bob.ID,
		SkillCategory: "programming",
		SVCValue:      150,
		Duration:      12,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if crs.ID == "" || len(crs.Learners) != 0 {
		t.Errorf("Create() = %+v; want an id and an empty learner list", crs)
	}

	price := 200
	crs, err = svc.Update(ctx, crs.ID, course.UpdateCourse{SVCValue: &price})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if crs.SVCValue != 200 {
		t.Errorf("SVCValue = %d; want 200", crs.SVCValue)
	}

	byTeacher, err := svc.Query(ctx, &course.QueryFilter{TeacherID: bob.ID}, nil)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(byTeacher) != 1 {
		t.Errorf("len(courses) = %d; want 1", len(byTeacher))
	}

	if err = svc.Delete(ctx, crs.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err = svc.GetByID(ctx, crs.ID); err != course.ErrNotFound {
		t.Errorf("GetByID() error = %v; want ErrNotFound", err)
	}
}
