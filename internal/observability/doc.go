// Package observability provides structured logging with zap, Prometheus
// metrics and health/readiness checks for the itemgraph API.
//
// # Logging
//
// Build the logger once at startup from the logging configuration:
//
//	logger, err := observability.NewLogger(cfg.Observability.Logging)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer func() { _ = logger.Sync() }()
//
// Request-scoped loggers travel in the context:
//
//	ctx = observability.ContextWithLogger(ctx, logger.WithContext(ctx))
//	observability.LoggerFromContext(ctx).Info("resolving items")
//
// # Metrics
//
// Metrics are registered against an explicit registerer so tests can use an
// isolated registry:
//
//	metrics := observability.NewMetrics("itemgraph", prometheus.DefaultRegisterer)
//	metrics.RecordStoreOperation("firestore", "get", "users", time.Since(start), err, false)
//
// # Health Checks
//
//	hc := observability.NewHealthChecker(version)
//	hc.RegisterReadinessCheck("store", observability.StoreHealthCheck(store))
//	resp := hc.CheckReadiness(ctx)
package observability
