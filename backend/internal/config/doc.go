// Package config loads craftwatch's runtime configuration.
//
// Values come from the environment, optionally seeded from a .env file via
// LoadEnv. SERVER_IP, SERVER_PORT and DASHBOARD_PASSWORD are required.
package config
