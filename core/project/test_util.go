package project

import (
	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/account"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service with no DB handle; membership mutations run
// without a transaction and repositories fall back to their own state.
func NewServiceMock(repo Repository, accountRepo account.Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &serviceMock{
		service: service{
			repo:        repo,
			accountRepo: accountRepo,
			mailSvc:     mailSvc,
			conf:        conf,
		},
	}
}
