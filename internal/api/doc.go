// Package api contains API service implementations.
//
// The rest subpackage serves the repository over HTTP: package upload
// and lifecycle, entity and descriptor listings, and the admin surface
// (stats, activity, health).
package api
