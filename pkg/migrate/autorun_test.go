package migrate

import (
	"testing"

	"github.com/angelmondragon/hydrus-backend/pkg/config"
)

func TestAutoRunReason(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"sqlite always", config.Config{DB: config.DBConfig{Driver: "sqlite"}, App: config.AppConfig{Env: "prod"}}, "sqlite"},
		{"dev opted in", config.Config{App: config.AppConfig{Env: "dev"}, FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true}}, "dev_auto_migrate"},
		{"dev without flag", config.Config{App: config.AppConfig{Env: "dev"}}, ""},
		{"prod postgres", config.Config{App: config.AppConfig{Env: "prod"}, FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true}}, ""},
	}
	for _, tc := range cases {
		if got := autoRunReason(&tc.cfg); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}
