// Package config loads typed configuration from environment variables.
//
// Config structs declare their variables with `env` and `envDefault` tags
// (github.com/caarlos0/env/v11). Load parses a struct once per type and
// serves later calls from a cache; the first call also reads an optional
// .env file through github.com/joho/godotenv.
//
// # Usage
//
//	var cfg session.Config
//	config.MustLoad(&cfg)
//
//	manager, err := session.NewFromConfig(cfg)
//
// Additional dotenv files can be applied before the first Load:
//
//	if err := config.LoadEnv("deploy/.env.local"); err != nil {
//	    return err
//	}
//
// # Error Handling
//
//   - ErrParsingConfig  - a variable is missing or cannot be converted
//   - ErrLoadingEnvFile - a dotenv file cannot be read
//   - ErrNilPointer     - Load was called with a nil pointer
//
// ResetCache clears cached values between tests.
package config
