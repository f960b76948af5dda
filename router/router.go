package router

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"watersync/config"
	"watersync/pkg/crud"
	"watersync/pkg/metrics"
	"watersync/pkg/middleware"
	"watersync/pkg/render"
	"watersync/pkg/resource"

	// Auth
	authCtrlImp "watersync/pkg/auth/controllerImp"
	authRepoImp "watersync/pkg/auth/repositoryImp"
	authSvcImp "watersync/pkg/auth/serviceImp"

	// Project
	"watersync/pkg/project"
	projectCtrlImp "watersync/pkg/project/controllerImp"
	projectRepoImp "watersync/pkg/project/repositoryImp"
	projectSvcImp "watersync/pkg/project/serviceImp"

	// Fieldwork
	"watersync/pkg/fieldwork"
	fieldworkCtrlImp "watersync/pkg/fieldwork/controllerImp"
	fieldworkRepoImp "watersync/pkg/fieldwork/repositoryImp"
	fieldworkSvcImp "watersync/pkg/fieldwork/serviceImp"

	// Location
	"watersync/pkg/location"
	locationCtrlImp "watersync/pkg/location/controllerImp"
	locationRepoImp "watersync/pkg/location/repositoryImp"
	locationSvcImp "watersync/pkg/location/serviceImp"

	// Groundwater
	"watersync/pkg/groundwater"
	gwlCtrlImp "watersync/pkg/groundwater/controllerImp"
	gwlRepoImp "watersync/pkg/groundwater/repositoryImp"
	gwlSvcImp "watersync/pkg/groundwater/serviceImp"

	// Sensor
	"watersync/pkg/sensor"
	sensorCtrlImp "watersync/pkg/sensor/controllerImp"
	sensorRepoImp "watersync/pkg/sensor/repositoryImp"
	sensorSvcImp "watersync/pkg/sensor/serviceImp"

	// Water quality
	"watersync/pkg/waterquality"
	wqCtrlImp "watersync/pkg/waterquality/controllerImp"
	wqRepoImp "watersync/pkg/waterquality/repositoryImp"
	wqSvcImp "watersync/pkg/waterquality/serviceImp"

	// Health
	healthCtrlImp "watersync/pkg/health/controllerImp"
)

// Kinds registers every resource descriptor. Nested URLs are built from it,
// so a kind missing here cannot be linked to.
func Kinds() (*resource.Registry, error) {
	kinds := resource.NewRegistry()
	for _, m := range []resource.Meta{
		project.Projects,
		fieldwork.Fieldworks,
		fieldwork.Visits,
		location.Locations,
		location.Statuses,
		location.History,
		groundwater.Levels,
		sensor.Sensors,
		sensor.Deployments,
		sensor.Records,
		waterquality.Protocols,
		waterquality.ParameterGroups,
		waterquality.Parameters,
		waterquality.Samples,
		waterquality.Measurements,
	} {
		if err := kinds.Register(m); err != nil {
			return nil, err
		}
	}
	return kinds, nil
}

// Setup installs middleware and every route on e.
func Setup(e *echo.Echo, db *gorm.DB, cfg config.AppConfig) (*echo.Echo, error) {
	renderer, err := render.New()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	kinds, err := Kinds()
	if err != nil {
		return nil, err
	}

	e.Renderer = renderer
	e.HTTPErrorHandler = crud.ErrorHandler
	metrics.Init()

	secret := []byte(cfg.SessionSecret)
	users := authRepoImp.New(db)

	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		// errors are rendered before the line is written, so the status is real
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			log.Printf("[http] %s %s %d %s", v.Method, v.URI, v.Status, v.Latency.Round(time.Millisecond))
			return nil
		},
	}))
	e.Use(metrics.Middleware())
	e.Use(middleware.Session(secret, users))
	if cfg.DevLogin {
		log.Printf("[auth] DEV_LOGIN is on: anonymous requests are signed in")
		e.Use(middleware.DevLogin(secret, users))
	}

	// Services
	authSvc := authSvcImp.NewAuthService(users, secret, cfg.SessionTTL)
	projectSvc := projectSvcImp.NewProjectService(projectRepoImp.New(db))
	fieldworkSvc := fieldworkSvcImp.NewFieldworkService(fieldworkRepoImp.New(db))
	locationSvc := locationSvcImp.NewLocationService(locationRepoImp.New(db))
	gwlSvc := gwlSvcImp.NewGroundwaterService(gwlRepoImp.New(db), locationSvc)
	sensorSvc := sensorSvcImp.NewSensorService(sensorRepoImp.New(db))
	wqSvc := wqSvcImp.NewWaterQualityService(wqRepoImp.New(db))

	// Controllers
	authCtrl := authCtrlImp.NewAuthController(authSvc, cfg.SessionTTL)
	projectCtrl := projectCtrlImp.New(db, kinds, projectSvc, cfg.PageSize)
	fieldworkCtrl := fieldworkCtrlImp.New(db, kinds, fieldworkSvc, cfg.PageSize)
	locationCtrl := locationCtrlImp.New(db, kinds, locationSvc, cfg.PageSize)
	gwlCtrl := gwlCtrlImp.New(db, kinds, gwlSvc, cfg.PageSize)
	sensorCtrl := sensorCtrlImp.New(db, kinds, sensorSvc, cfg.PageSize)
	wqCtrl := wqCtrlImp.New(db, kinds, wqSvc, cfg.PageSize)
	hCtrl := healthCtrlImp.NewHealthCtrl(db)

	// Public
	e.GET("/health", hCtrl.Health)
	e.GET("/metrics", metrics.Handler())
	e.GET("/login", authCtrl.LoginPage)
	e.POST("/login", authCtrl.Login)
	e.GET("/signup", authCtrl.SignupPage)
	e.POST("/signup", authCtrl.Signup)
	e.POST("/logout", authCtrl.Logout)
	e.GET("/logout", authCtrl.Logout)

	login := middleware.RequireLogin()
	approved := middleware.RequireApproved()

	e.GET("/whoami", authCtrl.WhoAmI, login)
	e.GET(middleware.ApprovalPendingPath, authCtrl.ApprovalPending, login)
	e.GET("/users/pending", authCtrl.Pending, login, middleware.RequireStaff())
	e.POST("/users/:id/approve", authCtrl.Approve, login, middleware.RequireStaff())

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/projects/")
	}, approved)

	// Everything under a project requires membership.
	pg := e.Group("/projects/:project_pk", approved, middleware.ProjectMember(db))

	projectCtrl.Register(e, pg, approved)
	fieldworkCtrl.Register(pg)
	locationCtrl.Register(pg)
	gwlCtrl.Register(pg)
	sensorCtrl.Register(e, pg, approved)
	wqCtrl.Register(e, pg, approved)

	return e, nil
}
