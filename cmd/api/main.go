package main

import (
	adminhandler "clinicbook/internal/admin/handler"
	adminservice "clinicbook/internal/admin/service"
	appthandler "clinicbook/internal/appointments/handler"
	apptrepository "clinicbook/internal/appointments/repository"
	apptservice "clinicbook/internal/appointments/service"
	apptvalidator "clinicbook/internal/appointments/validator"
	schedhandler "clinicbook/internal/schedules/handler"
	schedrepository "clinicbook/internal/schedules/repository"
	schedservice "clinicbook/internal/schedules/service"
	schedvalidator "clinicbook/internal/schedules/validator"
	userhandler "clinicbook/internal/users/handler"
	userrepository "clinicbook/internal/users/repository"
	userservice "clinicbook/internal/users/service"
	uservalidator "clinicbook/internal/users/validator"
	"clinicbook/pkg/app"
	"clinicbook/pkg/auth"
	"clinicbook/pkg/config"
	"clinicbook/pkg/contracts"
	"clinicbook/pkg/kafka"
	kafka_config "clinicbook/pkg/kafka/config"
	"clinicbook/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

const ServiceName = "clinicbook-api"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting ClinicBook API")

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authn := middleware.RequireAuth(tokens)

	producer := initProducer(cfg)
	if producer != nil {
		defer producer.Close()
	}

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(initHandlers(cfg, tokens, producer, authn)...)
	serverApp.Run()
}

func initHandlers(
	cfg *config.Config,
	tokens *auth.TokenManager,
	producer *kafka.Producer,
	authn func(httprouter.Handle) httprouter.Handle,
) []contracts.Handler {
	userRepo := userrepository.NewMongoUserRepository(cfg)
	schedRepo := schedrepository.NewMongoScheduleRepository(cfg)
	apptRepo := apptrepository.NewMongoAppointmentRepository(cfg)

	schedService := schedservice.NewScheduleService(
		schedRepo,
		schedvalidator.NewScheduleValidator(cfg.Log),
		cfg,
	)

	var events apptservice.EventPublisher
	if producer != nil {
		events = producer
	}
	apptService := apptservice.NewAppointmentService(
		apptRepo,
		schedRepo,
		userRepo,
		apptvalidator.NewAppointmentValidator(cfg.Log),
		events,
		cfg,
	)

	userService := userservice.NewUserService(
		userRepo,
		apptRepo,
		schedRepo,
		uservalidator.NewUserValidator(cfg.Log),
		tokens,
		cfg,
	)

	adminService := adminservice.NewAdminService(apptRepo, userRepo, cfg)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		userhandler.NewUserHandler(userService, cfg.Log, authn),
		schedhandler.NewScheduleHandler(schedService, cfg.Log, authn),
		appthandler.NewAppointmentHandler(apptService, cfg.Log, authn),
		adminhandler.NewAdminHandler(adminService, cfg.Log, authn),
	}
}

// initProducer wires the booking events producer. A broker outage must
// not keep the API from serving, so failures degrade to nil and Book
// skips publishing.
func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg := kafka_config.Load()

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingEventsTopic+".dlq")
	if err != nil {
		cfg.Log.Error("Failed to initialize Kafka producer, booking events disabled", "error", err)
		return nil
	}

	cfg.Log.Info("Kafka producer initialized", "topic", cfg.BookingEventsTopic)
	return producer
}
