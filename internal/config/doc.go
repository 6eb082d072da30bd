// Package config provides configuration parsing for wasmlet projects.
//
// The configuration is stored in wasmlet.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "my-app",
//	  "port": 8080,
//	  "host": "localhost",
//	  "output": "dist",
//	  "assets": "assets",
//	  "spa": true,
//	  "openBrowser": true,
//	  "watch": {
//	    "enabled": true,
//	    "debounceMs": 300,
//	    "paths": ["src"]
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Port:", cfg.Port)
package config
