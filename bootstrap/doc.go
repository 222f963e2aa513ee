// Package bootstrap runs stackup commands with a uniform lifecycle.
//
// An App owns the loaded configuration and logger. RunTask runs one finite
// command under signal cancellation, with OnStart hooks before it and OnStop
// hooks after it within a graceful timeout:
//
//	app, err := bootstrap.NewApp(&cfg)
//	shutdown, _ := observability.Setup(ctx, &cfg)
//	app.OnStop(shutdown)
//	res, err := app.Up(ctx)
//	os.Exit(bootstrap.ExitCode(res, err))
//
// Up loads the stack file, brings the graph up and renders a per-node table
// of the outcome.
package bootstrap
