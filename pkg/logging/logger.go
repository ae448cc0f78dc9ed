package logging

import "go.uber.org/zap"

// NewLogger builds the process logger. Local runs get the human-readable
// development encoder at debug level; everything else gets production JSON.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopmentConfig().Build()
	}
	return zap.NewProduction()
}
