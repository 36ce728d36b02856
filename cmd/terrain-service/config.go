package main

import "os"

// serviceConfig is process configuration read from the environment at
// startup, following the same loadConfig-from-os.Getenv shape the teacher
// stack uses for its services. terraincore itself takes no environment
// configuration — Config/Controls are its only configuration surface.
type serviceConfig struct {
	ListenAddr    string
	DatabaseURL   string
	RedisAddr     string
	NATSURL       string
	JWTSigningKey string
	CORSOrigins   string
}

func loadConfig() serviceConfig {
	return serviceConfig{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		DatabaseURL:   getEnv("DATABASE_URL", "postgres://localhost:5432/terraincore"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		NATSURL:       getEnv("NATS_URL", "nats://localhost:4222"),
		CORSOrigins:   getEnv("CORS_ORIGINS", "*"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-signing-key"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
