package config_test

import (
	"fmt"

	"github.com/actionsum/focusgov/internal/config"
)

// Example of creating a default configuration
func ExampleDefault() {
	cfg := config.Default()
	fmt.Println("Target:", cfg.Target.WindowClass)
	fmt.Println("Throttle:", cfg.Throttle.Tool, cfg.Throttle.Limit)
	// Output:
	// Target: roon.exe
	// Throttle: cpulimit 15
}

// Example of validating configuration
func ExampleConfig_Validate() {
	cfg := config.Default()
	cfg.Throttle.Tool = ""

	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid config:", err)
	}

	// Output:
	// Invalid config: throttle tool cannot be empty
}
