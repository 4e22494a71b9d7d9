// Package main provides the entry point of items-api.
// It runs a fiber web server that creates and lists items stored in a
// Cloud SQL database (postgres or mysql) reached through the Cloud SQL Go
// connector, or in a local sqlite file for development. The application
// uses gorm for persistence, viper for configuration and zerolog for logs.
package main
