// Package audit writes the append-only call action log.
//
// Every call placement, teardown and rejected webhook lands here as one
// JSON line. Files rotate via lumberjack so the log stays bounded without
// an external logrotate arrangement.
package audit
