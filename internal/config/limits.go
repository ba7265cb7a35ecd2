package config

import "time"

const (
	// Live connection
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 64 << 10
	SendBufferSize = 256

	// History pagination
	DefaultHistoryPage = 50
	MaxHistoryPage     = 200

	// REST rate limit, per client address and route
	APIRequestsPerSecond = 20
	APIRequestBurst      = 40
	APILimiterIdle       = 2 * time.Minute

	// HTTP
	ReadTimeout     = 10 * time.Second
	WriteTimeout    = 10 * time.Second
	ShutdownTimeout = 30 * time.Second
)
