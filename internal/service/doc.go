// Package service provides application-level services for managing
// organisms, genes and processing jobs. Services wrap the store
// interfaces, map store errors to service sentinels, and coordinate
// with the task pipeline and the progress tracker.
package service
