// Package environment carries the deployment environment (development,
// staging, production) through request contexts and structured logs.
//
//	env := environment.Parse(cfg.Env)
//	handler = environment.Middleware(env)(handler)
//
//	log := logger.New(logger.WithContextExtractors(environment.LoggerExtractor()))
package environment
