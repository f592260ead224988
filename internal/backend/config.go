package backend

import (
	"fmt"

	"financas/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		RemoteBaseURL: appConfig.RemoteBaseURL,
		RemoteToken:   appConfig.RemoteToken,
		RemoteUserID:  appConfig.RemoteUserID,
		RemoteTimeout: appConfig.RemoteTimeout,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
		if c.RemoteBaseURL == "" {
			return fmt.Errorf("remote base URL is required for sqlite backend")
		}
		// AMQP is optional, the pending sweep covers lost notifications

	case RESTBackend:
		if c.RemoteBaseURL == "" {
			return fmt.Errorf("remote base URL is required for rest backend")
		}
		if c.RemoteToken == "" {
			return fmt.Errorf("remote token is required for rest backend")
		}

	case MemoryBackend:
		// Memory backend doesn't require additional configuration
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, RESTBackend, SQLiteBackend}
}
