// Package prober turns one status query against the monitored server into
// a models.ServerStatus.
package prober
