package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/account"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/course"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/project"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		AccountSvc     account.Service
		CourseSvc      course.Service
		ProjectSvc     project.Service
		FileSvc        core.FileService
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps         *ServerDeps
		app          *echo.Echo
		errChan      chan error
		shutdownChan chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps *ServerDeps) Server {
	s := &server{
		deps:         deps,
		app:          echo.New(),
		errChan:      make(chan error, 1),
		shutdownChan: make(chan os.Signal, 1),
	}
	initAuth(deps.Conf)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerAccountAPI(v1, jwt, s.deps.AccountSvc)
	registerCourseAPI(v1, jwt, s.deps.CourseSvc, s.deps.Conf)
	registerProjectAPI(v1, jwt, s.deps.ProjectSvc)
	registerFileAPI(v1, jwt, s.deps.FileSvc)
}

func (s *server) Start() {
	signal.Notify(s.shutdownChan, os.Interrupt, syscall.SIGTERM)
	s.errChan <- s.app.Start(s.deps.Conf.Server.Address())
}

func (s *server) Errors() <-chan error                 { return s.errChan }
func (s *server) ShutdownSignal() <-chan os.Signal     { return s.shutdownChan }
func (s *server) Shutdown(ctx context.Context) error   { return s.app.Shutdown(ctx) }
func (s *server) Close() error                         { return s.app.Close() }

// signalShutdown lets the error handler trigger a graceful stop when an
// integrity error is caught.
func (s *server) signalShutdown() {
	s.shutdownChan <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Skilldom API!")
}
