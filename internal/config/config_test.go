package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		ProjectID: "plasma-center-prod",
		Store:     "firestore",
		AuthMode:  "jwt",
		Cloudinary: &CloudinaryConfig{
			CloudName: "plasma",
			APIKey:    "key123",
		},
		OperatingSchedule: "FREQ=WEEKLY;BYDAY=SU,MO,TU,WE,TH",
	}

	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_MinimalConfig(t *testing.T) {
	cfg := &Config{
		ProjectID: "plasma-center-prod",
	}

	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_MemoryStoreNeedsNoProject(t *testing.T) {
	cfg := &Config{
		Store: "memory",
	}

	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_BadStore(t *testing.T) {
	cfg := &Config{
		ProjectID: "plasma-center-prod",
		Store:     "mysql",
	}

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidate_GoogleAuthNeedsClientID(t *testing.T) {
	cfg := &Config{
		ProjectID: "plasma-center-prod",
		AuthMode:  "google",
	}

	err := Validate(cfg)
	assert.Error(t, err)

	cfg.GoogleOAuthClientID = "client-id.apps.googleusercontent.com"
	err = Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_BadRRule(t *testing.T) {
	cfg := &Config{
		ProjectID:         "plasma-center-prod",
		OperatingSchedule: "FREQ=SOMETIMES",
	}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operatingSchedule")
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plasma_center_config.yaml")
	content := `
projectID: plasma-center-prod
store: firestore
listenAddr: ":9090"
authMode: jwt
tokenTTLMinutes: 60
operatingSchedule: "FREQ=WEEKLY;BYDAY=SU,MO,TU,WE,TH"
cloudinary:
  cloudName: plasma
  apiKey: key123
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "plasma-center-prod", cfg.ProjectID)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "firestore", cfg.StoreBackend())
	assert.Equal(t, 60, cfg.TokenTTLMinutes)
	require.NotNil(t, cfg.Cloudinary)
	assert.Equal(t, "plasma", cfg.Cloudinary.CloudName)
}

func TestLoadFromPath_MissingFile(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := &Config{ProjectID: "p"}

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "firestore", cfg.StoreBackend())
	assert.Equal(t, "12h0m0s", cfg.TokenTTL().String())
}

func TestCalendar_Allows(t *testing.T) {
	cfg := &Config{
		ProjectID:         "p",
		OperatingSchedule: "FREQ=WEEKLY;BYDAY=SU,MO,TU,WE,TH",
	}

	cal, err := cfg.Calendar()
	require.NoError(t, err)
	require.NotNil(t, cal)

	// 2026-09-01 is a Tuesday, 2026-09-04 a Friday.
	assert.True(t, cal.Allows("2026-09-01"))
	assert.False(t, cal.Allows("2026-09-04"))
	assert.False(t, cal.Allows("not-a-date"))
}

func TestCalendar_NilAllowsEverything(t *testing.T) {
	cfg := &Config{ProjectID: "p"}

	cal, err := cfg.Calendar()
	require.NoError(t, err)
	require.Nil(t, cal)
	assert.True(t, cal.Allows("2026-09-04"))
}
