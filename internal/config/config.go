package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Face     FaceConfig     `mapstructure:"face"`
	Image    ImageConfig    `mapstructure:"image"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Motion   MotionConfig   `mapstructure:"motion"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// FaceConfig controls the face gate: the durable embedding store, the
// extractor sidecar, and the match decision threshold.
type FaceConfig struct {
	DBPath              string      `mapstructure:"db_path"`
	SimilarityThreshold float64     `mapstructure:"similarity_threshold"`
	Extractor           Extractor   `mapstructure:"extractor"`
	Index               IndexConfig `mapstructure:"index"`
}

type Extractor struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// IndexConfig enables the optional Qdrant-backed face index. The JSON file
// store stays the durable source of truth either way.
type IndexConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
	APIKey     string `mapstructure:"api_key"`
	UseTLS     bool   `mapstructure:"use_tls"`
	Dimension  int    `mapstructure:"dimension"`
}

// ImageConfig holds the normalization tunables applied to every incoming
// frame before the extractor sees it.
type ImageConfig struct {
	TargetSize   int     `mapstructure:"target_size"`
	FlipVertical bool    `mapstructure:"flip_vertical"`
	CropCenter   bool    `mapstructure:"crop_center"`
	Gamma        float64 `mapstructure:"gamma"`
	Contrast     float64 `mapstructure:"contrast"`
	Brightness   float64 `mapstructure:"brightness"`
	DebugSave    bool    `mapstructure:"debug_save"`
	SaveRoot     string  `mapstructure:"save_root"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN builds the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type StorageConfig struct {
	Type      string `mapstructure:"type"` // "local" or "s3"
	LocalRoot string `mapstructure:"local_root"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
}

// MotionConfig holds the trajectory cleanup tunables and the exporter
// invocation settings for the batch converter.
type MotionConfig struct {
	FixRotationDeg float64 `mapstructure:"fix_rotation_deg"`
	StopThreshold  float64 `mapstructure:"stop_threshold"`
	SmoothWindow   int     `mapstructure:"smooth_window"`
	MakeLoop       bool    `mapstructure:"make_loop"`
	LoopMinFrames  int     `mapstructure:"loop_min_frames"`
	LoopMaxFrames  int     `mapstructure:"loop_max_frames"`
	Scale          float64 `mapstructure:"scale"`
	FPS            int     `mapstructure:"fps"`
	BlenderPath    string  `mapstructure:"blender_path"`
	ExportScript   string  `mapstructure:"export_script"`
	UploadClips    bool    `mapstructure:"upload_clips"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Server defaults
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	// Face gate defaults
	v.SetDefault("face.db_path", "./data/face_db.json")
	v.SetDefault("face.similarity_threshold", 0.5)
	v.SetDefault("face.extractor.base_url", "http://localhost:8500")
	v.SetDefault("face.extractor.timeout", "10s")
	v.SetDefault("face.index.enabled", false)
	v.SetDefault("face.index.host", "localhost")
	v.SetDefault("face.index.port", 6334)
	v.SetDefault("face.index.collection", "visitors")
	v.SetDefault("face.index.dimension", 512)

	// Image normalization defaults match the exhibit camera setup.
	v.SetDefault("image.target_size", 640)
	v.SetDefault("image.flip_vertical", false)
	v.SetDefault("image.crop_center", true)
	v.SetDefault("image.gamma", 1.2)
	v.SetDefault("image.contrast", 1.1)
	v.SetDefault("image.brightness", 10)
	v.SetDefault("image.debug_save", true)
	v.SetDefault("image.save_root", "./captured_images")

	// Audit database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/foyer.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "1h")

	// Artifact storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_root", "./data/artifacts")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "foyer")

	// Motion converter defaults, tuned against the HumanML3D exports.
	v.SetDefault("motion.fix_rotation_deg", -90)
	v.SetDefault("motion.stop_threshold", 0.002)
	v.SetDefault("motion.smooth_window", 5)
	v.SetDefault("motion.make_loop", true)
	v.SetDefault("motion.loop_min_frames", 15)
	v.SetDefault("motion.loop_max_frames", 60)
	v.SetDefault("motion.scale", 1.0)
	v.SetDefault("motion.fps", 20)
	v.SetDefault("motion.blender_path", "blender")
	v.SetDefault("motion.export_script", "./scripts/export_rig.py")
	v.SetDefault("motion.upload_clips", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("face.index.api_key", "QDRANT_API_KEY")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Image.TargetSize <= 0 {
		return fmt.Errorf("image.target_size must be positive, got %d", c.Image.TargetSize)
	}
	if c.Image.Gamma <= 0 {
		return fmt.Errorf("image.gamma must be positive, got %v", c.Image.Gamma)
	}
	if c.Face.SimilarityThreshold < -1 || c.Face.SimilarityThreshold > 1 {
		return fmt.Errorf("face.similarity_threshold must be in [-1, 1], got %v", c.Face.SimilarityThreshold)
	}
	if c.Motion.LoopMinFrames > c.Motion.LoopMaxFrames {
		return fmt.Errorf("motion.loop_min_frames %d exceeds loop_max_frames %d",
			c.Motion.LoopMinFrames, c.Motion.LoopMaxFrames)
	}
	return nil
}
