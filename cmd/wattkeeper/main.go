package main

import (
	"github.com/gridsense/wattkeeper/internal/alert"
	"github.com/gridsense/wattkeeper/internal/clock"
	"github.com/gridsense/wattkeeper/internal/config"
	"github.com/gridsense/wattkeeper/internal/migration"
	"github.com/gridsense/wattkeeper/internal/notification"
	"github.com/gridsense/wattkeeper/internal/observability"
	"github.com/gridsense/wattkeeper/internal/providers/objectstore"
	"github.com/gridsense/wattkeeper/internal/providers/sns"
	"github.com/gridsense/wattkeeper/internal/ratelimit"
	"github.com/gridsense/wattkeeper/internal/reading"
	"github.com/gridsense/wattkeeper/internal/server"
	"github.com/gridsense/wattkeeper/internal/sweep"
	"github.com/gridsense/wattkeeper/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		db.Module,
		clock.Module,
		migration.Module,

		// Domains
		reading.Module,
		alert.Module,
		notification.Module,

		// External providers
		sns.Module,
		objectstore.Module,
		ratelimit.Module,

		// Entry points
		server.Module,
		sweep.Module,
	)
	app.Run()
}
