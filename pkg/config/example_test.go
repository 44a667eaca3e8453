package config_test

import (
	"fmt"

	"github.com/ssafy/baperang/backend/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Server running on port: %s\n", cfg.Port)
	fmt.Printf("Storage: %s\n", cfg.StorageDriver)
	fmt.Printf("Meal slots: %v\n", cfg.School.MealSlots)
}
