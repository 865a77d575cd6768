package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           hysteriad API
// @version         1.0
// @description     HTTP status API for the hysteria client supervisor.
//
// @contact.name   hysteriad maintainers
// @contact.url    https://github.com/BruceWind/HysteriaClientDocker
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
