// Package bootstrap constructs every manager in dependency order and wires
// them into the application core. This is the one place in the module that
// is allowed to import every internal/* package at once.
package bootstrap

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/nexuscore/nexus/internal/concurrency"
	"github.com/nexuscore/nexus/internal/config"
	"github.com/nexuscore/nexus/internal/eventbus"
	"github.com/nexuscore/nexus/internal/monitor"
	"github.com/nexuscore/nexus/internal/plugin"
	"github.com/nexuscore/nexus/internal/registry"
	"github.com/nexuscore/nexus/internal/security"
	"github.com/nexuscore/nexus/internal/store"
	"github.com/nexuscore/nexus/pkg/logger"
	"github.com/nexuscore/nexus/pkg/metrics"
	"github.com/nexuscore/nexus/system/core"
)

// Options configures Wire.
type Options struct {
	// ConfigPath points at the YAML/JSON config overlay file. Empty uses
	// schema defaults plus environment overlay only.
	ConfigPath string
	// EnvPrefix scopes which environment variables overlay the config
	// tree, e.g. "NEXUS" turns NEXUS_API_PORT into api.port.
	EnvPrefix string
}

// loggerManager wraps the process logger in the registry.Manager capability
// interface so the logging sink participates in the lifecycle DAG like
// every other component. Its Initialize/Shutdown are no-ops: the logger is
// usable from construction and must outlive every other manager's shutdown
// logging, so teardown of the underlying writers is left to process exit.
type loggerManager struct {
	log *logger.Logger
}

func (m loggerManager) Name() string { return "logger" }

func (m loggerManager) Initialize(ctx context.Context) error { return nil }

func (m loggerManager) Shutdown(ctx context.Context) error { return nil }

func (m loggerManager) Status() registry.Status {
	return registry.Status{
		Initialized: true,
		Healthy:     true,
		Details:     map[string]any{"level": m.log.GetLevel().String()},
	}
}

// securityLogAdapter narrows a *logger.Logger (logrus-backed) down to the
// structured three-level interface internal/security depends on, so that
// package never imports logrus directly.
type securityLogAdapter struct {
	log *logger.Logger
}

func (a securityLogAdapter) Info(msg string, fields map[string]any) {
	a.log.WithFields(logrus.Fields(fields)).Info(msg)
}

func (a securityLogAdapter) Warn(msg string, fields map[string]any) {
	a.log.WithFields(logrus.Fields(fields)).Warn(msg)
}

func (a securityLogAdapter) Error(msg string, fields map[string]any) {
	a.log.WithFields(logrus.Fields(fields)).Error(msg)
}

// securityBusAdapter narrows *eventbus.Bus down to security.EventPublisher,
// discarding the envelope id security's audit events have no use for.
type securityBusAdapter struct {
	bus *eventbus.Bus
}

func (a securityBusAdapter) Publish(eventType, source string, payload map[string]any) error {
	_, err := a.bus.Publish(eventType, source, payload)
	return err
}

// Wire loads configuration, constructs every manager (C1-C8) in dependency
// order, registers each with the registry, and returns the assembled
// application core (C9) ready for Start.
func Wire(opts Options) (*core.Engine, error) {
	cfgSvc, err := config.Load(config.Options{
		FilePath:  opts.ConfigPath,
		EnvPrefix: opts.EnvPrefix,
	})
	if err != nil {
		return nil, err
	}
	schema, err := cfgSvc.Schema()
	if err != nil {
		return nil, err
	}
	cfgMgr := config.NewManager(cfgSvc)

	log := logger.New(logger.Config{
		Level:  schema.Logging.Level,
		Format: schema.Logging.Format,
		File: logger.FileConfig{
			Enabled:   schema.Logging.File.Enabled,
			Path:      schema.Logging.File.Path,
			Rotation:  schema.Logging.File.Rotation,
			Retention: schema.Logging.File.Retention,
		},
		Console: logger.ConsoleConfig{
			Enabled: schema.Logging.Console.Enabled,
			Level:   schema.Logging.Console.Level,
		},
	})
	logMgr := loggerManager{log: log}

	facility := concurrency.New(concurrency.Config{
		WorkerThreads:     schema.ThreadPool.WorkerThreads,
		IOThreads:         schema.ThreadPool.IOThreads,
		ProcessWorkers:    schema.ThreadPool.ProcessWorkers,
		EnableProcessPool: schema.ThreadPool.EnableProcessPool,
		ThreadNamePrefix:  schema.ThreadPool.ThreadNamePrefix,
	}, log.Logger)
	facilityMgr := concurrency.NewManager(facility)

	bus := eventbus.New(eventbus.Config{
		MaxQueueSize: schema.EventBus.MaxQueueSize,
	}, log.Logger)
	busMgr := eventbus.NewManager(bus)

	// system/config_changed is published on every config mutation without
	// internal/config importing the event bus, via the OnChange seam.
	cfgSvc.OnChange = func(key string, oldValue, newValue any) {
		_, _ = bus.Publish("system/config_changed", "config", map[string]any{
			"key":       key,
			"old_value": oldValue,
			"new_value": newValue,
		})
	}

	dbMgr, err := store.NewManager(schema.Database)
	if err != nil {
		return nil, err
	}

	var blacklist security.Blacklist
	if schema.Security.Blacklist.Backend == "redis" && schema.Security.Blacklist.RedisAddr != "" {
		blacklist = security.NewRedisBlacklist(redis.NewClient(&redis.Options{
			Addr: schema.Security.Blacklist.RedisAddr,
		}))
	}

	secSvc := security.New(security.Options{
		JWTSecret:                schema.Security.JWT.Secret,
		JWTAlgorithm:             schema.Security.JWT.Algorithm,
		AccessTokenExpireMinutes: schema.Security.JWT.AccessTokenExpireMinutes,
		RefreshTokenExpireDays:   schema.Security.JWT.RefreshTokenExpireDays,
		PasswordPolicy: security.PasswordPolicy{
			MinLength:        schema.Security.PasswordPolicy.MinLength,
			RequireUppercase: schema.Security.PasswordPolicy.RequireUppercase,
			RequireLowercase: schema.Security.PasswordPolicy.RequireLowercase,
			RequireDigit:     schema.Security.PasswordPolicy.RequireDigit,
			RequireSpecial:   schema.Security.PasswordPolicy.RequireSpecial,
		},
		Blacklist: blacklist,
		EventBus:  securityBusAdapter{bus: bus},
		Logger:    securityLogAdapter{log: log},
		Store:     dbMgr.Security(),
	})
	secMgr := security.NewManager(secSvc)

	// Rotating security.jwt.secret/algorithm at runtime must invalidate
	// every outstanding token; TTL and password-policy keys are absorbed
	// without revocation.
	cfgSvc.RegisterListener("security", "security", func(key string, _, newValue any) {
		secSvc.OnConfigChanged(context.Background(), key, newValue)
	})

	var promReg = metrics.Registry
	if !schema.Monitoring.Prometheus.Enabled {
		promReg = nil
	}
	metricsReg := monitor.NewMetricRegistry(promReg)
	mon := monitor.New(monitor.Config{
		Enabled:                schema.Monitoring.Enabled,
		MetricsIntervalSeconds: schema.Monitoring.MetricsIntervalSeconds,
		Thresholds: monitor.Thresholds{
			CPUPercent:    schema.Monitoring.AlertThresholds.CPUPercent,
			MemoryPercent: schema.Monitoring.AlertThresholds.MemoryPercent,
			DiskPercent:   schema.Monitoring.AlertThresholds.DiskPercent,
		},
	}, facility, bus, metricsReg, log.Logger)
	monMgr := monitor.NewManager(mon)

	defaultLevel := plugin.Level(schema.Plugins.Isolation.DefaultLevel)
	pluginHost := plugin.New(plugin.FileOpener{}, facility, defaultLevel, log.Logger)
	pluginMgr := plugin.NewManager(pluginHost).WithAutoload(plugin.AutoloadConfig{
		Directory: schema.Plugins.Directory,
		Autoload:  schema.Plugins.Autoload,
		Enabled:   schema.Plugins.Enabled,
		Disabled:  schema.Plugins.Disabled,
	})

	reg := registry.New()
	if err := reg.Register(cfgMgr); err != nil {
		return nil, err
	}
	if err := reg.Register(logMgr, "config"); err != nil {
		return nil, err
	}
	if err := reg.Register(facilityMgr, "config", "logger"); err != nil {
		return nil, err
	}
	if err := reg.Register(busMgr, "config", "logger", "concurrency"); err != nil {
		return nil, err
	}
	if err := reg.Register(dbMgr, "config", "logger"); err != nil {
		return nil, err
	}
	if err := reg.Register(secMgr, "config", "logger", "event_bus", "database"); err != nil {
		return nil, err
	}
	if err := reg.Register(monMgr, "config", "logger", "concurrency", "event_bus"); err != nil {
		return nil, err
	}
	if err := reg.Register(pluginMgr, "config", "logger", "concurrency"); err != nil {
		return nil, err
	}

	lc := registry.NewLifecycle(reg, log.Logger)

	return core.New(reg, lc, cfgMgr, log, facilityMgr, busMgr, monMgr, dbMgr, secMgr, pluginMgr, pluginHost), nil
}
