// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/formflowhq/formflow-go/internal/application/services"
	"github.com/formflowhq/formflow-go/internal/infrastructure/caching"
	"github.com/formflowhq/formflow-go/internal/infrastructure/email"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/performance"
	analyticsrepo "github.com/formflowhq/formflow-go/internal/infrastructure/persistence/analytics"
	"github.com/formflowhq/formflow-go/internal/infrastructure/persistence/database"
	formsrepo "github.com/formflowhq/formflow-go/internal/infrastructure/persistence/forms"
	submissionsrepo "github.com/formflowhq/formflow-go/internal/infrastructure/persistence/submissions"
	userrepo "github.com/formflowhq/formflow-go/internal/infrastructure/persistence/user"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services (stateless singletons)
	AuthService               *services.AuthService
	FormService               *services.FormService
	EventService              *services.EventService
	SubmissionService         *services.SubmissionService
	NotificationService       *services.NotificationService
	AnalyticsService          *services.AnalyticsService
	DashboardAnalyticsService *services.DashboardAnalyticsService

	// Infrastructure
	DB          *database.DB
	Cache       *caching.AggregateCache
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker
}

// NewContainer creates and wires all singleton services. emailService may be
// nil, which disables submission notifications.
func NewContainer(db *database.DB, cache *caching.AggregateCache, emailService email.Service, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *Container {
	// Repositories
	fieldRepo := formsrepo.NewSQLFieldRepository(db, logger)
	stepRepo := formsrepo.NewSQLStepRepository(db, fieldRepo, logger)
	formRepo := formsrepo.NewSQLFormRepository(db, stepRepo, logger)
	eventRepo := analyticsrepo.NewSQLEventRepository(db, logger)
	submissionRepo := submissionsrepo.NewSQLSubmissionRepository(db, logger)
	usersRepo := userrepo.NewSQLUserRepository(db, logger)
	tokenRepo := userrepo.NewSQLRefreshTokenRepository(db, logger)

	// Services
	authService := services.NewAuthService(usersRepo, tokenRepo, logger, perfTracker)
	formService := services.NewFormService(formRepo, stepRepo, fieldRepo, logger, perfTracker)
	eventService := services.NewEventService(formRepo, stepRepo, eventRepo, logger, perfTracker)
	notificationService := services.NewNotificationService(emailService, usersRepo, logger)
	submissionService := services.NewSubmissionService(formRepo, submissionRepo, formService, notificationService, logger, perfTracker)
	analyticsService := services.NewAnalyticsService(formService, eventRepo, cache, logger, perfTracker)
	dashboardService := services.NewDashboardAnalyticsService(formService, eventRepo, submissionRepo, cache, logger, perfTracker)

	return &Container{
		AuthService:               authService,
		FormService:               formService,
		EventService:              eventService,
		SubmissionService:         submissionService,
		NotificationService:       notificationService,
		AnalyticsService:          analyticsService,
		DashboardAnalyticsService: dashboardService,

		DB:          db,
		Cache:       cache,
		Logger:      logger,
		PerfTracker: perfTracker,
	}
}
