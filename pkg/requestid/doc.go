// Package requestid attaches a correlation id to every HTTP request.
//
// Middleware reuses a well-formed X-Request-ID header or generates a UUID,
// echoes it in the response and stores it in the request context, where
// FromContext and LoggerExtractor pick it up.
package requestid
