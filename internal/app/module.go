package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/arbops/billing/internal/app/api/server"
	"github.com/arbops/billing/internal/app/service/billing"
	"github.com/arbops/billing/internal/app/service/eventlog"
	"github.com/arbops/billing/internal/app/service/poller"
	"github.com/arbops/billing/internal/app/service/statistics"
	"github.com/arbops/billing/internal/app/service/webhook"
	"github.com/arbops/billing/internal/platform/db"
	"github.com/arbops/billing/internal/platform/gateway"
	"github.com/arbops/billing/pkg/config"
	"github.com/arbops/billing/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	gateway.Module,
	server.Module,
	billing.Module,
	statistics.Module,
	eventlog.Module,
	webhook.Module,
	poller.Module,
)
