// Package logger builds log/slog loggers with functional options and
// injects request scoped attributes pulled from context.Context.
//
// New wraps a JSON or text handler in LogHandlerDecorator, which runs every
// registered ContextExtractor on each record. The request id, client IP and
// environment packages each ship an extractor.
//
//	log := logger.New(
//	    logger.WithEnvironment(environment.Production, "sessiond"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "session rotated", logger.Component("session"), logger.Event("rotate"))
//
// Attribute helpers in attr.go keep key names consistent. Error and Errors
// return an empty Attr for nil input, so callers need no nil checks.
package logger
