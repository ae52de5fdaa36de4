package tests

import (
	"net/http"
	"testing"

	. "github.com/LestlinRobins/skilldom-BitnBuild/apps/api/echo"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/account"
	emailsvc "github.com/LestlinRobins/skilldom-BitnBuild/services/email"
	testutil "github.com/LestlinRobins/skilldom-BitnBuild/tests"
)

func TestAccountSignIn(t *testing.T) {
	server := setup(t)
	path := "/v1/accounts/signin"

	t.Run("token required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, path, []byte("{}"))
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"token": "this field is required"}),
		}, rec)
	})

	t.Run("bad provider token", func(t *testing.T) {
		body := marchallObj(t, SignInRequest{Token: "lol.nope.nah"})
		req, rec := newRequest(http.MethodPost, path, body)
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		}, rec)
	})

	t.Run("first sign-in creates the account", func(t *testing.T) {
		token := getProviderToken(t, "uid-alice", "Alice", "alice@test.test", "go")
		body := marchallObj(t, SignInRequest{Token: token})
		req, rec := newRequest(http.MethodPost, path, body)
		server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want 200; body = %s", rec.Code, rec.Body.String())
		}
		var resp SignInResponse
		decodeBody(t, rec, &resp)
		if resp.Token == "" {
			t.Error("Token is empty")
		}
		if resp.Account.ID != "uid-alice" || resp.Account.Email != "alice@test.test" {
			t.Errorf("Account = %+v; provider claims not applied", resp.Account)
		}
		if resp.Account.SkillCoins != conf.SVC.StartingBonus {
			t.Errorf("SkillCoins = %d; want %d", resp.Account.SkillCoins, conf.SVC.StartingBonus)
		}
		if len(emailsvc.SentMessages) != 1 {
			t.Errorf("len(SentMessages) = %d; want 1 (welcome)", len(emailsvc.SentMessages))
		}

		// the minted token authenticates against the API
		req, rec = newAuthRequest(http.MethodGet, "/v1/accounts/uid-alice", resp.Token)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %d; want 200; body = %s", rec.Code, rec.Body.String())
		}

		// signing in again neither re-seeds nor re-welcomes
		req, rec = newRequest(http.MethodPost, path, body)
		server.ServeHTTP(rec, req)
		decodeBody(t, rec, &resp)
		if resp.Account.SkillCoins != conf.SVC.StartingBonus {
			t.Errorf("SkillCoins = %d; want %d", resp.Account.SkillCoins, conf.SVC.StartingBonus)
		}
		if len(emailsvc.SentMessages) != 1 {
			t.Errorf("len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
		}
	})
}

func TestAccountTokenRefresh(t *testing.T) {
	server := setup(t)
	alice := testutil.CreateAccount(t, acctRepo, "uid-alice", "Alice", "alice@test.test", 500)

	req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/token-refresh", getToken(t, alice))
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; want 200; body = %s", rec.Code, rec.Body.String())
	}
	var resp TokenResponse
	decodeBody(t, rec, &resp)
	if resp.Token == "" {
		t.Error("Token is empty")
	}
}

func TestAccountAPI(t *testing.T) {
	server := setup(t)

	alice := testutil.CreateAccount(t, acctRepo, "uid-alice", "Alice", "alice@test.test", 500, "go")
	bob := testutil.CreateAccount(t, acctRepo, "uid-bob", "Bob", "bob@test.test", 500, "design")
	aliceToken := getToken(t, alice)

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodGet, path: "/v1/accounts",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Get all", method: http.MethodGet, path: "/v1/accounts", token: aliceToken,
			wantCode: http.StatusOK, wantData: marchallList(t, alice, bob),
		},
		{
			name: "search", method: http.MethodGet, path: "/v1/accounts?search=bob", token: aliceToken,
			wantCode: http.StatusOK, wantData: marchallList(t, bob),
		},
		{
			name: "filter by skill", method: http.MethodGet, path: "/v1/accounts?skill=go", token: aliceToken,
			wantCode: http.StatusOK, wantData: marchallList(t, alice),
		},
		{
			name: "Retrieve", method: http.MethodGet, path: "/v1/accounts/uid-bob", token: aliceToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, bob),
		},
		{
			name: "Retrieve not found", method: http.MethodGet, path: "/v1/accounts/uid-ghost", token: aliceToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "account not found"}),
		},
		{
			name: "Update is self-service only", method: http.MethodPut, path: "/v1/accounts/uid-bob", token: aliceToken,
			body:     marchallObj(t, account.UpdateAccount{Name: "Hacked"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Update own profile", func(t *testing.T) {
		bio := "Gopher at heart."
		body := marchallObj(t, account.UpdateAccount{Name: "Alice A.", Bio: &bio})
		req, rec := newAuthRequest(http.MethodPut, "/v1/accounts/uid-alice", aliceToken, body)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want 200; body = %s", rec.Code, rec.Body.String())
		}
		var acct account.Account
		decodeBody(t, rec, &acct)
		if acct.Name != "Alice A." || acct.Bio.String != bio {
			t.Errorf("Account = %+v; profile fields not applied", acct)
		}
		if acct.SkillCoins != 500 {
			t.Errorf("SkillCoins = %d; want 500 (profile edits never touch the ledger)", acct.SkillCoins)
		}
	})
}

func TestAccountReviews(t *testing.T) {
	server := setup(t)

	alice := testutil.CreateAccount(t, acctRepo, "uid-alice", "Alice", "alice@test.test", 500)
	bob := testutil.CreateAccount(t, acctRepo, "uid-bob", "Bob", "bob@test.test", 500)

	t.Run("self-review forbidden", func(t *testing.T) {
		body := marchallObj(t, account.NewReview{Rating: 5})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/uid-alice/reviews", getToken(t, alice), body)
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		}, rec)
	})

	t.Run("add review", func(t *testing.T) {
		body := marchallObj(t, account.NewReview{Rating: 4, Comment: "great teacher"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/uid-alice/reviews", getToken(t, bob), body)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d; want 201; body = %s", rec.Code, rec.Body.String())
		}
		var rev account.Review
		decodeBody(t, rec, &rev)
		if rev.ReviewerID != bob.ID || rev.Rating != 4 {
			t.Errorf("Review = %+v; want reviewer and rating recorded", rev)
		}

		// the aggregate rating lands on the account
		req, rec = newAuthRequest(http.MethodGet, "/v1/accounts/uid-alice", getToken(t, bob))
		server.ServeHTTP(rec, req)
		var acct account.Account
		decodeBody(t, rec, &acct)
		if acct.Rating != 4 {
			t.Errorf("Rating = %v; want 4", acct.Rating)
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/accounts/uid-alice/reviews", getToken(t, bob))
		server.ServeHTTP(rec, req)
		var revs []account.Review
		decodeBody(t, rec, &revs)
		if len(revs) != 1 {
			t.Errorf("len(reviews) = %d; want 1", len(revs))
		}
	})

	t.Run("rating bounds", func(t *testing.T) {
		body := marchallObj(t, account.NewReview{Rating: 6})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/uid-alice/reviews", getToken(t, bob), body)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d; want 400; body = %s", rec.Code, rec.Body.String())
		}
	})
}

func TestAccountVerifySkills(t *testing.T) {
	server := setup(t)

	alice := testutil.CreateAccount(t, acctRepo, "uid-alice", "Alice", "alice@test.test", 500, "go")
	bob := testutil.CreateAccount(t, acctRepo, "uid-bob", "Bob", "bob@test.test", 500)

	t.Run("self-service only", func(t *testing.T) {
		body := marchallObj(t, account.VerificationEvidence{ClaimedSkills: []string{"go"}})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/uid-alice/verify-skills", getToken(t, bob), body)
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		}, rec)
	})

	t.Run("evidence required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/uid-alice/verify-skills", getToken(t, alice), []byte("{}"))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d; want 400; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("verification", func(t *testing.T) {
		body := marchallObj(t, account.VerificationEvidence{
			ClaimedSkills: []string{"go"},
			GithubURL:     "https://github.com/alice",
			LinkedinURL:   "https://linkedin.com/in/alice",
			PortfolioURL:  "https://alice.dev",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/uid-alice/verify-skills", getToken(t, alice), body)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want 200; body = %s", rec.Code, rec.Body.String())
		}
		var acct account.Account
		decodeBody(t, rec, &acct)
		if acct.VerificationStatus != account.VerificationVerified || !acct.SkillsVerified {
			t.Errorf("Account = %+v; want skills verified", acct)
		}
	})
}
