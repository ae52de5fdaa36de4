package account

import (
	"github.com/LestlinRobins/skilldom-BitnBuild/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service with no DB handle; ledger mutations run
// without a transaction and repositories fall back to their own state.
func NewServiceMock(repo Repository, mailSvc core.EmailService, verifier SkillVerifier, conf *core.Config) Service {
	return &serviceMock{
		service: service{
			repo:     repo,
			mailSvc:  mailSvc,
			verifier: verifier,
			conf:     conf,
		},
	}
}
