package cli

import (
	"path/filepath"
	"testing"
)

func TestXDGPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name     string
		env      map[string]string
		fn       func() (string, error)
		wantPath string
	}{
		{"cache default", map[string]string{"XDG_CACHE_HOME": ""}, cacheDir, filepath.Join(home, ".cache", appName)},
		{"cache xdg", map[string]string{"XDG_CACHE_HOME": "/var/cache"}, cacheDir, filepath.Join("/var/cache", appName)},
		{"config default", map[string]string{"XDG_CONFIG_HOME": ""}, configPath, filepath.Join(home, ".config", appName, "config.toml")},
		{"config xdg", map[string]string{"XDG_CONFIG_HOME": "/etc/xdg"}, configPath, filepath.Join("/etc/xdg", appName, "config.toml")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got, err := tt.fn()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.wantPath {
				t.Errorf("got %q, want %q", got, tt.wantPath)
			}
		})
	}
}

func TestCacheDirFromConfig(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/var/cache")
	c := &CLI{Config: &Config{}}

	if got, _ := c.cacheDir(); got != filepath.Join("/var/cache", appName) {
		t.Errorf("default = %q", got)
	}
	c.Config.Cache.Dir = "/srv/stateviz"
	if got, _ := c.cacheDir(); got != "/srv/stateviz" {
		t.Errorf("configured = %q", got)
	}
}
