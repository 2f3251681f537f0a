package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StorageMode selects where flushed annotations go.
const (
	StorageDrive = "drive"
	StorageLocal = "local"
	StorageBoth  = "both"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Dataset struct {
		Path           string `yaml:"path"`
		ImagesDir      string `yaml:"images_dir"`
		GuidelinesPath string `yaml:"guidelines_path"`
	} `yaml:"dataset"`

	Annotators struct {
		Count int `yaml:"count"`
	} `yaml:"annotators"`

	Assignment struct {
		Policy string `yaml:"policy"` // "partition" or "shared"
	} `yaml:"assignment"`

	Session struct {
		TTLMinutes int `yaml:"ttl_minutes"`
	} `yaml:"session"`

	Storage struct {
		Mode     string `yaml:"mode"` // "drive", "local" or "both"
		LocalDir string `yaml:"local_dir"`
	} `yaml:"storage"`

	Drive struct {
		RootFolder      string `yaml:"root_folder"`
		ShareWith       string `yaml:"share_with"`
		CredentialsFile string `yaml:"credentials_file"`
		CredentialsJSON string `yaml:"credentials_json"`
	} `yaml:"drive"`
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Set defaults
	if config.Server.Port == "" {
		config.Server.Port = "8003"
	}

	if config.Dataset.Path == "" {
		config.Dataset.Path = "pilot_data/filtered_posts.json"
	}

	if config.Dataset.ImagesDir == "" {
		config.Dataset.ImagesDir = "pilot_data/images"
	}

	if config.Dataset.GuidelinesPath == "" {
		config.Dataset.GuidelinesPath = "guidelines.md"
	}

	if config.Annotators.Count == 0 {
		config.Annotators.Count = 4
	}

	if config.Assignment.Policy == "" {
		config.Assignment.Policy = "partition"
	}

	if config.Session.TTLMinutes == 0 {
		config.Session.TTLMinutes = 120
	}

	if config.Storage.Mode == "" {
		config.Storage.Mode = StorageDrive
	}

	if config.Storage.LocalDir == "" {
		config.Storage.LocalDir = "./annotation_data"
	}

	if config.Drive.RootFolder == "" {
		config.Drive.RootFolder = "Nepali_Facebook_Annotation_Results"
	}

	if config.Drive.CredentialsFile == "" {
		config.Drive.CredentialsFile = "./service-account.json"
	}

	switch config.Storage.Mode {
	case StorageDrive, StorageLocal, StorageBoth:
	default:
		return nil, fmt.Errorf("invalid storage mode %q (must be drive, local or both)", config.Storage.Mode)
	}

	// Expand environment variables in secrets
	config.Drive.CredentialsJSON = os.ExpandEnv(config.Drive.CredentialsJSON)
	config.Drive.ShareWith = os.ExpandEnv(config.Drive.ShareWith)

	return config, nil
}
