package logger_test

import (
	"errors"

	"github.com/ssafy/baperang/backend/pkg/config"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
		School:    config.SchoolConfig{Name: "바른중학교"},
	}

	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"student_id": 42,
		"meal_slot":  "lunch",
		"is_tagged":  true,
	}).Info("NFC tag recorded")

	log.WithError(errors.New("waste rate 1.2 out of range")).
		WithField("dish", "김치찌개").
		Warn("Leftover measurement rejected")
}
