package project_test

import (
	"context"
	"strings"
	"testing"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/account"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/project"
	emailsvc "github.com/LestlinRobins/skilldom-BitnBuild/services/email"
	inmemdb "github.com/LestlinRobins/skilldom-BitnBuild/storage/database/inmem"
	testutil "github.com/LestlinRobins/skilldom-BitnBuild/tests"
)

func setup(t *testing.T) (project.Service, project.Repository, account.Repository) {
	t.Helper()
	conf := testutil.NewConfig()
	core.ParseEmailTemplates(conf, testutil.Logger{})
	emailsvc.ClearSentMessages()

	prjRepo := inmemdb.NewProjectRepository()
	acctRepo := inmemdb.NewAccountRepository()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	svc := project.NewServiceMock(prjRepo, acctRepo, mailSvc, conf)
	return svc, prjRepo, acctRepo
}

func TestServiceCreate(t *testing.T) {
	svc, _, acctRepo := setup(t)
	ctx := context.Background()

	alice := testutil.CreateAccount(t, acctRepo, "uid-alice", "Alice", "alice@test.test", 500)

	prj, err := svc.Create(ctx, project.NewProject{
		Title:       "Skill Swap App",
		Description: "A marketplace for trading skills.",
		CreatorID:   alice.ID,
		MaxMembers:  3,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if prj.Status != project.StatusOpen {
		t.Errorf("Status = %q; want %q", prj.Status, project.StatusOpen)
	}
	if len(prj.CurrentMembers) != 1 || prj.CurrentMembers[0] != alice.ID {
		t.Errorf("CurrentMembers = %v; want the creator alone", prj.CurrentMembers)
	}

	// creation is mirrored on the creator's collaboration list
	alice, err = acctRepo.GetAccount(ctx, account.GetFilter{ID: alice.ID})
	if err != nil {
		t.Fatalf("GetAccount() failed: %v", err)
	}
	if !core.ContainsString(alice.Collaborations, prj.ID) {
		t.Errorf("Collaborations = %v; want the new project tracked", alice.Collaborations)
	}
}

func TestServiceJoinLeave(t *testing.T) {
	svc, prjRepo, acctRepo := setup(t)
	ctx := context.Background()

	alice := testutil.CreateAccount(t, acctRepo, "uid-alice", "Alice", "alice@test.test", 500)
	bob := testutil.CreateAccount(t, acctRepo, "uid-bob", "Bob", "bob@test.test", 500)
	carol := testutil.CreateAccount(t, acctRepo, "uid-carol", "Carol", "carol@test.test", 500)
	dave := testutil.CreateAccount(t, acctRepo, "uid-dave", "Dave", "dave@test.test", 500)
	prj := testutil.CreateProject(t, prjRepo, alice.ID, "Skill Swap App", 3)

	got, err := svc.Join(ctx, prj.ID, bob.ID)
	if err != nil {
		t.Fatalf("Join() failed: %v", err)
	}
	if got.Status != project.StatusInProgress {
		t.Errorf("Status = %q; want %q", got.Status, project.StatusInProgress)
	}
	if !got.IsMember(bob.ID) {
		t.Error("IsMember() = false after join")
	}

	// the creator gets a notification about the new member
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if msg.To[0].Address != alice.Email {
		t.Errorf("To = %q; want the creator", msg.To[0].Address)
	}
	if !strings.Contains(msg.TextContent, "Bob") {
		t.Errorf("TextContent = %q; want the member named", msg.TextContent)
	}

	bob, _ = acctRepo.GetAccount(ctx, account.GetFilter{ID: bob.ID})
	if !core.ContainsString(bob.Collaborations, prj.ID) {
		t.Errorf("Collaborations = %v; want the project tracked", bob.Collaborations)
	}

	t.Run("already a member", func(t *testing.T) {
		if _, err := svc.Join(ctx, prj.ID, bob.ID); err != project.ErrAlreadyMember {
			t.Errorf("Join() error = %v; want ErrAlreadyMember", err)
		}
	})

	t.Run("capacity", func(t *testing.T) {
		if _, err := svc.Join(ctx, prj.ID, carol.ID); err != nil {
			t.Fatalf("Join() failed: %v", err)
		}
		if _, err := svc.Join(ctx, prj.ID, dave.ID); err != project.ErrProjectFull {
			t.Errorf("Join() error = %v; want ErrProjectFull", err)
		}
	})

	t.Run("unknown project", func(t *testing.T) {
		if _, err := svc.Join(ctx, "prj-ghost", dave.ID); err != project.ErrNotFound {
			t.Errorf("Join() error = %v; want ErrNotFound", err)
		}
	})

	t.Run("creator cannot leave", func(t *testing.T) {
		if _, err := svc.Leave(ctx, prj.ID, alice.ID); err != project.ErrCreatorCannotLeave {
			t.Errorf("Leave() error = %v; want ErrCreatorCannotLeave", err)
		}
	})

	t.Run("not a member", func(t *testing.T) {
		if _, err := svc.Leave(ctx, prj.ID, dave.ID); err != project.ErrNotMember {
			t.Errorf("Leave() error = %v; want ErrNotMember", err)
		}
	})

	t.Run("leave reverts to open", func(t *testing.T) {
		if _, err := svc.Leave(ctx, prj.ID, carol.ID); err != nil {
			t.Fatalf("Leave() failed: %v", err)
		}
		got, err := svc.Leave(ctx, prj.ID, bob.ID)
		if err != nil {
			t.Fatalf("Leave() failed: %v", err)
		}
		if got.Status != project.StatusOpen {
			t.Errorf("Status = %q; want %q (creator alone reopens)", got.Status, project.StatusOpen)
		}

		bob, _ := acctRepo.GetAccount(ctx, account.GetFilter{ID: bob.ID})
		if core.ContainsString(bob.Collaborations, prj.ID) {
			t.Errorf("Collaborations = %v; want the project untracked after leaving", bob.Collaborations)
		}
	})
}

func TestServiceJoinStickyStatus(t *testing.T) {
	svc, prjRepo, acctRepo := setup(t)
	ctx := context.Background()

	alice := testutil.CreateAccount(t, acctRepo, "uid-alice", "Alice", "alice@test.test", 500)
	bob := testutil.CreateAccount(t, acctRepo, "uid-bob", "Bob", "bob@test.test", 500)
	carol := testutil.CreateAccount(t, acctRepo, "uid-carol", "Carol", "carol@test.test", 500)
	prj := testutil.CreateProject(t, prjRepo, alice.ID, "Skill Swap App", 4)

	if _, err := svc.Join(ctx, prj.ID, bob.ID); err != nil {
		t.Fatalf("Join() failed: %v", err)
	}
	if _, err := svc.SetStatus(ctx, prj.ID, project.StatusPaused); err != nil {
		t.Fatalf("SetStatus() failed: %v", err)
	}

	// paused survives membership churn while more than one member remains
	got, err := svc.Join(ctx, prj.ID, carol.ID)
	if err != nil {
		t.Fatalf("Join() failed: %v", err)
	}
	if got.Status != project.StatusPaused {
		t.Errorf("Status = %q; want %q", got.Status, project.StatusPaused)
	}
	if got, err = svc.Leave(ctx, prj.ID, carol.ID); err != nil {
		t.Fatalf("Leave() failed: %v", err)
	}
	if got.Status != project.StatusPaused {
		t.Errorf("Status = %q; want %q", got.Status, project.StatusPaused)
	}

	// shrinking back to the creator alone reopens regardless
	if got, err = svc.Leave(ctx, prj.ID, bob.ID); err != nil {
		t.Fatalf("Leave() failed: %v", err)
	}
	if got.Status != project.StatusOpen {
		t.Errorf("Status = %q; want %q", got.Status, project.StatusOpen)
	}
}

func TestServiceSetStatus(t *testing.T) {
	svc, prjRepo, acctRepo := setup(t)
	ctx := context.Background()

	alice := testutil.CreateAccount(t, acctRepo, "uid-alice", "Alice", "alice@test.test", 500)
	prj := testutil.CreateProject(t, prjRepo, alice.ID, "Skill Swap App", 3)

	got, err := svc.SetStatus(ctx, prj.ID, project.StatusCompleted)
	if err != nil {
		t.Fatalf("SetStatus() failed: %v", err)
	}
	if got.Status != project.StatusCompleted {
		t.Errorf("Status = %q; want %q", got.Status, project.StatusCompleted)
	}

	_, err = svc.SetStatus(ctx, prj.ID, "cancelled")
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("SetStatus() error = %v; want *core.ValidationError", err)
	}
}

func TestServiceApplications(t *testing.T) {
	svc, prjRepo, acctRepo := setup(t)
	ctx := context.Background()

	alice := testutil.CreateAccount(t, acctRepo, "uid-alice", "Alice", "alice@test.test", 500)
	bob := testutil.CreateAccount(t, acctRepo, "uid-bob", "Bob", "bob@test.test", 500)
	prj := testutil.CreateProject(t, prjRepo, alice.ID, "Skill Swap App", 3)

	app, err := svc.Apply(ctx, project.NewApplication{
		ProjectID:     prj.ID,
		ApplicantID:   bob.ID,
		Message:       "I can help with the backend.",
		SkillsOffered: []string{"go"},
	})
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if app.Status != project.ApplicationPending {
		t.Errorf("Status = %q; want %q", app.Status, project.ApplicationPending)
	}

	// the creator is notified of the application
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
	}
	if to := emailsvc.SentMessages[0].To[0].Address; to != alice.Email {
		t.Errorf("To = %q; want the creator", to)
	}

	t.Run("member cannot apply", func(t *testing.T) {
		if _, err := svc.Apply(ctx, project.NewApplication{ProjectID: prj.ID, ApplicantID: alice.ID}); err != project.ErrAlreadyMember {
			t.Errorf("Apply() error = %v; want ErrAlreadyMember", err)
		}
	})

	t.Run("unknown project", func(t *testing.T) {
		if _, err := svc.Apply(ctx, project.NewApplication{ProjectID: "prj-ghost", ApplicantID: bob.ID}); err != project.ErrNotFound {
			t.Errorf("Apply() error = %v; want ErrNotFound", err)
		}
	})

	t.Run("review", func(t *testing.T) {
		reviewed, err := svc.ReviewApplication(ctx, app.ID, project.ApplicationAccepted)
		if err != nil {
			t.Fatalf("ReviewApplication() failed: %v", err)
		}
		if reviewed.Status != project.ApplicationAccepted {
			t.Errorf("Status = %q; want %q", reviewed.Status, project.ApplicationAccepted)
		}

		// acceptance does not join the applicant; capacity is checked at join
		prj, err := svc.GetByID(ctx, prj.ID)
		if err != nil {
			t.Fatalf("GetByID() failed: %v", err)
		}
		if prj.IsMember(bob.ID) {
			t.Error("IsMember() = true; accepting an application must not auto-join")
		}
	})

	t.Run("invalid review status", func(t *testing.T) {
		_, err := svc.ReviewApplication(ctx, app.ID, "maybe")
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("ReviewApplication() error = %v; want *core.ValidationError", err)
		}
	})

	t.Run("unknown application", func(t *testing.T) {
		if _, err := svc.ReviewApplication(ctx, "app-ghost", project.ApplicationRejected); err != project.ErrApplicationNotFound {
			t.Errorf("ReviewApplication() error = %v; want ErrApplicationNotFound", err)
		}
	})

	apps, err := svc.QueryApplications(ctx, prj.ID)
	if err != nil {
		t.Fatalf("QueryApplications() failed: %v", err)
	}
	if len(apps) != 1 {
		t.Errorf("len(applications) = %d; want 1", len(apps))
	}
}
