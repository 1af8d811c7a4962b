package main

import (
	"time"

	"vetslots/internal/appointments/events"
	appointmenthandler "vetslots/internal/appointments/handler"
	appointmentrepo "vetslots/internal/appointments/repository"
	appointmentservice "vetslots/internal/appointments/service"
	appointmentvalidator "vetslots/internal/appointments/validator"
	"vetslots/internal/availability"
	directoryrepo "vetslots/internal/directory/repository"
	directoryservice "vetslots/internal/directory/service"
	slothandler "vetslots/internal/slots/handler"
	slotrepo "vetslots/internal/slots/repository"
	slotservice "vetslots/internal/slots/service"
	slotvalidator "vetslots/internal/slots/validator"
	tokenrepo "vetslots/internal/tokens/repository"
	tokenservice "vetslots/internal/tokens/service"
	"vetslots/pkg/app"
	"vetslots/pkg/config"
	"vetslots/pkg/kafka"
	kafka_config "vetslots/pkg/kafka/config"
	kafka_middleware "vetslots/pkg/kafka/middleware"
)

const ServiceName = "appointments"

type services struct {
	slots        slotservice.SlotService
	appointments appointmentservice.AppointmentService
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Appointments service")
	serverApp := app.NewApplication(cfg)
	svc := initServices(cfg, serverApp)
	serverApp.SetApp(
		slothandler.NewSlotHandler(svc.slots, cfg.Log),
		appointmenthandler.NewAppointmentHandler(svc.appointments, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config, serverApp *app.Application) services {
	resolver := availability.NewResolver(cfg.Location, time.Now)

	appointmentRepo := appointmentrepo.NewMongoAppointmentRepository(cfg)
	slotService := slotservice.NewSlotService(
		slotrepo.NewMongoSlotTemplateRepository(cfg),
		slotrepo.NewMongoUnavailabilityRepository(cfg),
		appointmentRepo,
		slotvalidator.NewSlotTemplateValidator(cfg.Log),
		resolver,
		cfg,
	)

	sequencer := tokenservice.NewTokenSequencer(tokenrepo.NewMongoTokenRepository(cfg), cfg, time.Now)
	directory := directoryservice.NewDirectoryService(directoryrepo.NewMongoDirectoryRepository(cfg), cfg)

	appointmentService := appointmentservice.NewAppointmentService(
		appointmentRepo,
		slotService,
		directory,
		sequencer,
		initPublisher(cfg, serverApp),
		appointmentvalidator.NewAppointmentValidator(cfg.Log),
		resolver,
		cfg,
	)

	cfg.Log.Info("Appointments service initialized",
		"database", cfg.MongoDatabaseName,
		"timezone", cfg.Location.String(),
	)
	return services{slots: slotService, appointments: appointmentService}
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, appointment events will not be published")
		return events.NewNoopPublisher()
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaAppointmentsTopic, cfg.KafkaAppointmentsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}
	serverApp.OnShutdown(producer.Close)

	return events.NewKafkaPublisher(producer, cfg.Log)
}
