// Package config handles loading and validating the Aerial HK controller configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of calibration ranges and link settings
//   - Default value handling
//
// Axis calibration (centres, ranges, thrust offsets) lives here rather than in
// code because it differs between builds of the vehicle.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Calibration.Tilt.Center)
package config
