// Package logger provides structured logging for stackup using zerolog.
//
// It supports console and JSON output, level configuration, and
// component-scoped loggers that carry structured fields such as the
// orchestration run id and the node being processed.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.WithComponent("orchestrator")
//	log.Info("node ready", logger.Fields(logger.FieldNode, "db", logger.FieldAttempt, 2))
package logger
