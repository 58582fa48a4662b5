package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crucial707/birthday-service/internal/birthday"
	"github.com/crucial707/birthday-service/internal/config"
	"github.com/crucial707/birthday-service/internal/db"
	"github.com/crucial707/birthday-service/internal/mongostore"
	"github.com/crucial707/birthday-service/internal/notify"
	"github.com/crucial707/birthday-service/internal/report"
	"github.com/crucial707/birthday-service/internal/scheduler"
)

// newConnector picks the user store from STORE_URL. Postgres migrations run once here
// when RUN_MIGRATIONS is set.
func newConnector(ctx context.Context, cfg config.Config, logger *slog.Logger) (birthday.Connector, error) {
	switch cfg.StoreKind() {
	case config.StoreMongo:
		return &mongostore.Connector{URL: cfg.StoreURL, Database: cfg.DBName}, nil
	case config.StorePostgres:
		dsn := cfg.StoreURL
		if dsn == "" {
			dsn = db.DSN(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass)
		}
		if cfg.RunMigrations {
			if err := db.Run(dsn); err != nil {
				return nil, err
			}
			logger.InfoContext(ctx, "database migrations applied")
		}
		return &db.PostgresConnector{
			DSN:          dsn,
			MaxOpenConns: cfg.DBMaxOpenConns,
			MaxIdleConns: cfg.DBMaxIdleConns,
		}, nil
	}
	return nil, fmt.Errorf("unsupported store url %q", cfg.StoreURL)
}

func newDispatcher(cfg config.Config, logger *slog.Logger) birthday.Dispatcher {
	if cfg.SMSGatewayURL == "" {
		logger.Warn("SMS_GATEWAY_URL not set, greetings are only logged")
		return &notify.LogDispatcher{Logger: logger}
	}
	return notify.NewSMSDispatcher(notify.SMSConfig{
		URL:        cfg.SMSGatewayURL,
		Token:      cfg.SMSGatewayToken,
		Sender:     cfg.SMSSender,
		RatePerSec: cfg.SMSRatePerSec,
		Timeout:    cfg.DispatchTimeout,
	}, logger)
}

// newEmitter always logs the report and adds mail and Slack when configured.
func newEmitter(cfg config.Config, logger *slog.Logger) birthday.Emitter {
	emitters := report.Multi{&report.LogEmitter{Logger: logger}}
	if cfg.SMTPHost != "" {
		emitters = append(emitters, report.NewMailEmitter(report.MailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.ReportFrom,
			To:       cfg.ReportTo,
			Timeout:  cfg.ReportTimeout,
		}))
	}
	if cfg.SlackWebhookURL != "" {
		emitters = append(emitters, &report.SlackEmitter{WebhookURL: cfg.SlackWebhookURL})
	}
	return emitters
}

func newService(cfg config.Config, sched *scheduler.Scheduler, connector birthday.Connector, logger *slog.Logger) (*birthday.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	scanner := &birthday.Scanner{
		PageSize:        cfg.PageSize,
		Dispatcher:      newDispatcher(cfg, logger),
		DispatchTimeout: cfg.DispatchTimeout,
		Concurrency:     cfg.DispatchConcurrency,
		Location:        loc,
		Logger:          logger,
	}
	opts := []birthday.ServiceOption{
		birthday.WithLocation(loc),
		birthday.WithLogger(logger),
		birthday.WithRetryOnConnectFailure(cfg.RetryOnConnectFailure),
		birthday.WithReportTimeout(cfg.ReportTimeout),
	}
	if cfg.TargetDate != "" {
		target, err := birthday.ParseTargetDate(cfg.TargetDate, loc)
		if err != nil {
			return nil, fmt.Errorf("TARGET_DATE: %w", err)
		}
		opts = append(opts, birthday.WithTargetDate(target))
	}
	return birthday.NewService(sched, connector, scanner, newEmitter(cfg, logger), opts...), nil
}
