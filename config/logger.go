package config

import "go.uber.org/zap"

// NewLogger returns a JSON production logger in production and a
// human-readable development logger otherwise.
func NewLogger(cfg App) (*zap.Logger, error) {
	if cfg.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
