package main

//go:generate swag init -g cmd/engine/main.go -o docs

// @title           Trading Decision Engine API
// @version         0.1.0
// @description     Market data collection, scoring, risk-gated paper trading and portfolio tracking.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
