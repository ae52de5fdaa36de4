package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/account"
)

type accountApi struct {
	svc account.Service
}

func registerAccountAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc account.Service) {
	api := accountApi{svc: svc}

	ag := g.Group("/accounts")

	// un-authed endpoints
	ag.POST("/signin", api.signIn)

	// authed endpoints
	authed := ag.Group("", jwt)
	authed.POST("/token-refresh", api.refreshToken)
	authed.GET("", api.query)
	authed.GET("/:id", api.retrieve)
	authed.PUT("/:id", api.update)
	authed.GET("/:id/reviews", api.queryReviews)
	authed.POST("/:id/reviews", api.addReview)
	authed.POST("/:id/verify-skills", api.verifySkills)
}

// Handlers

// signIn exchanges the identity provider's token for an API token, creating
// the account on first contact.
func (api *accountApi) signIn(ctx echo.Context) error {
	var data SignInRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignInRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	na, err := verifyProviderToken(data.Token)
	if err != nil {
		return err
	}
	if err = na.Validate(); err != nil {
		return err
	}

	acct, err := api.svc.SignIn(ctx.Request().Context(), na)
	if err != nil {
		return errors.Wrap(err, "signing in")
	}

	token, err := GenerateToken(GetAccountClaims(acct))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, SignInResponse{Token: token, Account: acct})
}

func (api *accountApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *accountApi) query(ctx echo.Context) error {
	filter := new(account.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []account.Account{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	accts, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying accounts")
	}
	if accts == nil {
		accts = []account.Account{}
	}
	return ctx.JSON(http.StatusOK, accts)
}

func (api *accountApi) retrieve(ctx echo.Context) error {
	acct, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// profiles are self-service only
	if ctx.Param("id") != claims.Subject {
		return errHttpForbidden
	}

	var data account.UpdateAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAccount")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	acct, err := api.svc.Update(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "updating account")
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountApi) queryReviews(ctx echo.Context) error {
	revs, err := api.svc.QueryReviews(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying reviews")
	}
	if revs == nil {
		revs = []account.Review{}
	}
	return ctx.JSON(http.StatusOK, revs)
}

func (api *accountApi) addReview(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data account.NewReview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReview")
	}
	data.UserID = ctx.Param("id")
	data.ReviewerID = claims.Subject
	if data.UserID == data.ReviewerID {
		return errHttpForbidden
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rev, err := api.svc.AddReview(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rev)
}

func (api *accountApi) verifySkills(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if ctx.Param("id") != claims.Subject {
		return errHttpForbidden
	}

	var data account.VerificationEvidence
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerificationEvidence")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	acct, err := api.svc.VerifySkills(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, acct)
}

type (
	SignInRequest struct {
		Token string `json:"token" validate:"required"`
	}

	SignInResponse struct {
		Token   string          `json:"token"`
		Account account.Account `json:"account"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}
)

func (sr *SignInRequest) Validate() error {
	return core.Validate.Struct(sr)
}
