package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

func provideRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

// Module provides the purchase order, client, withholding and reporting
// services. It expects a *pgxpool.Pool, a *zap.Logger and a RateTable.
var Module = fx.Module("core",
	fx.Provide(provideRegisterer),
	fx.Provide(NewMetrics),
	fx.Provide(NewRuleEngine),
	fx.Provide(NewPurchaseOrderService),
	fx.Provide(NewClientService),
	fx.Provide(NewWithholdingService),
	fx.Provide(NewReportingService),
)
