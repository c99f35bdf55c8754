package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed extractors.yaml
var extractorsYAML []byte

type Config struct {
	Gallery   GalleryConfig
	Extractor ExtractorConfig
	Embedding EmbeddingConfig
	Image     ImageConfig
	Log       LogConfig
	Profiles  ProfilesConfig
}

type GalleryConfig struct {
	Path        string        // backing file, defaults to known_faces.gob
	LockTimeout time.Duration // max wait for the gallery lock (default 10s)
}

type ExtractorConfig struct {
	Backend            string  // "dlib" or "http"
	ModelsDir          string  // dlib model directory
	CNN                bool    // use the dlib CNN detector instead of HOG
	RegisterTolerance  float64 // 0 means "use the profile default"
	RecognizeTolerance float64 // 0 means "use the profile default"
}

type EmbeddingConfig struct {
	URL     string        // defaults to http://localhost:8000
	Timeout time.Duration // defaults to 60s
}

type ImageConfig struct {
	MaxDim int // larger images are downscaled before extraction
}

type LogConfig struct {
	Level string
}

type ProfilesConfig struct {
	Extractors map[string]ExtractorProfile `yaml:"extractors"`
}

// ExtractorProfile holds the static characteristics of an extractor backend.
type ExtractorProfile struct {
	Model              string  `yaml:"model"`
	Metric             string  `yaml:"metric"`
	Dim                int     `yaml:"dim"`
	RegisterTolerance  float64 `yaml:"register_tolerance"`
	RecognizeTolerance float64 `yaml:"recognize_tolerance"`
}

const (
	BackendDlib = "dlib"
	BackendHTTP = "http"
)

// envString returns the trimmed env var or the default if it is unset or blank.
func envString(key, defaultVal string) string {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return defaultVal
	}
	return s
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat parses a positive float, falling back to defaultVal.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func Load() *Config {
	var profiles ProfilesConfig
	if err := yaml.Unmarshal(extractorsYAML, &profiles); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded extractors.yaml: " + err.Error())
	}

	return &Config{
		Gallery: GalleryConfig{
			Path:        envString("GALLERY_PATH", "known_faces.gob"),
			LockTimeout: envDuration("GALLERY_LOCK_TIMEOUT", 10*time.Second),
		},
		Extractor: ExtractorConfig{
			Backend:            strings.ToLower(envString("FACE_EXTRACTOR", BackendDlib)),
			ModelsDir:          envString("FACE_MODELS_DIR", "models"),
			CNN:                envBool("FACE_DLIB_CNN", false),
			RegisterTolerance:  envFloat("FACE_REGISTER_TOLERANCE", 0),
			RecognizeTolerance: envFloat("FACE_RECOGNIZE_TOLERANCE", 0),
		},
		Embedding: EmbeddingConfig{
			URL:     envString("EMBEDDING_URL", "http://localhost:8000"),
			Timeout: envDuration("EMBEDDING_TIMEOUT", 60*time.Second),
		},
		Image: ImageConfig{
			MaxDim: envInt("IMAGE_MAX_DIM", 1920),
		},
		Log: LogConfig{
			Level: envString("LOG_LEVEL", "info"),
		},
		Profiles: profiles,
	}
}

// Profile returns the profile of the configured backend, or false if the backend is unknown.
func (c *Config) Profile() (ExtractorProfile, bool) {
	p, ok := c.Profiles.Extractors[c.Extractor.Backend]
	return p, ok
}

// RegisterTolerance returns the configured duplicate-face tolerance, falling back to the profile.
func (c *Config) RegisterTolerance() float64 {
	if c.Extractor.RegisterTolerance > 0 {
		return c.Extractor.RegisterTolerance
	}
	p, _ := c.Profile()
	return p.RegisterTolerance
}

// RecognizeTolerance returns the configured recognition tolerance, falling back to the profile.
func (c *Config) RecognizeTolerance() float64 {
	if c.Extractor.RecognizeTolerance > 0 {
		return c.Extractor.RecognizeTolerance
	}
	p, _ := c.Profile()
	return p.RecognizeTolerance
}
