package circuitbreaker

import (
	"os"
	"strconv"
	"time"
)

// GetDeadlineHandlerConfig configures the circuit breaker guarding deadline
// handler invocation (see ExecutorHelper.invokeHandler). Adapted from the
// teacher's environment-driven per-dependency Config getters
// (GetRedisConfig, GetDatabaseConfig, ...), collapsed to the one dependency
// this core actually guards.
func GetDeadlineHandlerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxRequests:      getEnvUint32("CB_DEADLINE_MAX_REQUESTS", 3),
		Interval:         getEnvDuration("CB_DEADLINE_INTERVAL", 60*time.Second),
		Timeout:          getEnvDuration("CB_DEADLINE_TIMEOUT", 30*time.Second),
		FailureThreshold: getEnvUint32("CB_DEADLINE_FAILURE_THRESHOLD", 3),
		SuccessThreshold: getEnvUint32("CB_DEADLINE_SUCCESS_THRESHOLD", 1),
	}
}

// CircuitBreakerConfig represents configuration for a circuit breaker.
type CircuitBreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	SuccessThreshold uint32
}

// ToConfig converts CircuitBreakerConfig to circuit breaker Config.
func (cbc CircuitBreakerConfig) ToConfig() Config {
	return Config{
		MaxRequests:      cbc.MaxRequests,
		Interval:         cbc.Interval,
		Timeout:          cbc.Timeout,
		FailureThreshold: cbc.FailureThreshold,
		SuccessThreshold: cbc.SuccessThreshold,
		OnStateChange:    nil, // set by the caller if it wants to observe transitions
	}
}

func getEnvUint32(key string, defaultValue uint32) uint32 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 32); err == nil {
			return uint32(parsed)
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}
