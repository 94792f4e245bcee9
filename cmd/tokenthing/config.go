package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the tokenthing configuration file. Numeric fields are
// pointers so we can distinguish "not set" from zero values.
type Config struct {
	// Corpus acquisition
	HFDatasetNames string `yaml:"hf_dataset_names"`
	DatasetDir     string `yaml:"dataset_dir"`

	// Training
	VocabSize      *int64 `yaml:"vocab_size"`
	SequenceLength *int64 `yaml:"sequence_length"`
	Workers        *int64 `yaml:"workers"`
	BatchSize      *int64 `yaml:"batch_size"`
	SavePath       string `yaml:"save_path"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

// configPath resolves the config file location: the --config flag, then
// cfg/config.yaml in the working directory, then the user config dir
// (~/.config/tokenthing/config.yaml).
func configPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	local := filepath.Join("cfg", "config.yaml")
	if _, err := os.Stat(local); err == nil {
		return local
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tokenthing", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig(explicit string) Config {
	path := configPath(explicit)
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// datasetNames splits the comma-separated hf_dataset_names key.
func (c Config) datasetNames() []string {
	var names []string
	for _, n := range strings.Split(c.HFDatasetNames, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// applyTrainConfig applies config file defaults to train command variables
// when the corresponding CLI flag was not explicitly set.
func applyTrainConfig(c *cli.Command, cfg Config,
	dir *string, out *string, vocabSize *int64, seqLen *int64,
	workers *int64, batchSize *int64,
) {
	if cfg.DatasetDir != "" && !c.IsSet("data-dir") {
		*dir = cfg.DatasetDir
	}
	if cfg.SavePath != "" && !c.IsSet("out") {
		*out = cfg.SavePath
	}
	if cfg.VocabSize != nil && !c.IsSet("vocab-size") {
		*vocabSize = *cfg.VocabSize
	}
	if cfg.SequenceLength != nil && !c.IsSet("sequence-length") && !c.IsSet("seq-len") {
		*seqLen = *cfg.SequenceLength
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		*workers = *cfg.Workers
	}
	if cfg.BatchSize != nil && !c.IsSet("batch-size") {
		*batchSize = *cfg.BatchSize
	}
	applyLoggingConfig(c, cfg)
}

// applyFetchConfig applies config file defaults to fetch command variables.
func applyFetchConfig(c *cli.Command, cfg Config, dir *string, names *[]string) {
	if cfg.DatasetDir != "" && !c.IsSet("data-dir") {
		*dir = cfg.DatasetDir
	}
	if len(*names) == 0 {
		*names = cfg.datasetNames()
	}
	applyLoggingConfig(c, cfg)
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	applyLoggingConfig(c, cfg)
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}
