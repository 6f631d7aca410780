package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/wbrown/seq2seq_data"
	"github.com/wbrown/seq2seq_data/types"
)

const (
	EnvPrefix  = "S2S"
	ConfigName = "seq2seq"
)

// Config holds every setting the binaries share.
type Config struct {
	DataDir          string `mapstructure:"data_dir"`
	TypePath         string `mapstructure:"type_path"`
	Tokenizer        string `mapstructure:"tokenizer"`
	TokenizerKind    string `mapstructure:"tokenizer_kind"`
	MaxSourceLength  int    `mapstructure:"max_source_length"`
	MaxTargetLength  int    `mapstructure:"max_target_length"`
	NObs             int    `mapstructure:"n_obs"`
	OverwriteCache   bool   `mapstructure:"overwrite_cache"`
	TgtSuffix        string `mapstructure:"tgt_suffix"`
	BatchSize        int    `mapstructure:"batch_size"`
	PadTokenId       int    `mapstructure:"pad_token_id"`
	Sanitize         bool   `mapstructure:"sanitize"`
	SentenceNewlines bool   `mapstructure:"sentence_newlines"`
	Seed             int64  `mapstructure:"seed"`
	CacheDir         string `mapstructure:"cache_dir"`
	LogLevel         string `mapstructure:"log_level"`
	Quiet            bool   `mapstructure:"quiet"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", ".")
	v.SetDefault("type_path", "train")
	v.SetDefault("tokenizer", "gpt2")
	v.SetDefault("tokenizer_kind", "")
	v.SetDefault("max_source_length", 1024)
	v.SetDefault("max_target_length", 56)
	v.SetDefault("n_obs", 0)
	v.SetDefault("overwrite_cache", false)
	v.SetDefault("tgt_suffix", "")
	v.SetDefault("batch_size", 8)
	v.SetDefault("pad_token_id", -1)
	v.SetDefault("sanitize", false)
	v.SetDefault("sentence_newlines", false)
	v.SetDefault("seed", 0)
	v.SetDefault("cache_dir", ".seq2seq_cache")
	v.SetDefault("log_level", "info")
	v.SetDefault("quiet", false)
}

// RegisterFlags
// Defines the shared flags on `flags`. Their defaults only apply when
// neither the config file nor the environment sets the key.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("data_dir", ".", "directory or URI holding the split files")
	flags.String("type_path", "train", "split to load: train, val or test")
	flags.String("tokenizer", "gpt2",
		"tokenizer id: gpt2, bpe:<id>, spm:<model>, hf:<id>, "+
			"tiktoken:<encoding>")
	flags.String("tokenizer_kind", "",
		"override the tokenizer family: bart or t5")
	flags.Int("max_source_length", 1024, "source length in tokens")
	flags.Int("max_target_length", 56, "target length in tokens")
	flags.Int("n_obs", 0, "keep only the first n pairs, 0 keeps all")
	flags.Bool("overwrite_cache", false, "re-encode existing caches")
	flags.String("tgt_suffix", "", "suffix for the train target file")
	flags.Int("batch_size", 8, "batch size for sampling")
	flags.Int("pad_token_id", -1,
		"pad id override, -1 uses the tokenizer's")
	flags.Bool("sanitize", false, "normalize whitespace before encoding")
	flags.Bool("sentence_newlines", false,
		"put every sentence on its own line before encoding")
	flags.Int64("seed", 0, "sampler seed, 0 seeds from the clock")
	flags.String("cache_dir", ".seq2seq_cache",
		"directory for tokenizer files and remote data mirrors")
	flags.String("log_level", "info", "debug, info, warn or error")
	flags.Bool("quiet", false, "hide progress bars")
}

// LoadConfig
// Resolves the configuration from, in increasing precedence: defaults, the
// config file, `.env`, `S2S_` environment variables and flags that were set
// on the command line. An empty configPath looks for `seq2seq.yaml` in the
// working directory.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to read .env")
	}
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
	}
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, errors.Wrap(err, "failed to bind flags")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode into struct")
	}
	if cfg.BatchSize < 1 {
		return nil, errors.Errorf("batch_size must be positive, got %d",
			cfg.BatchSize)
	}
	if cfg.MaxSourceLength < 1 || cfg.MaxTargetLength < 1 {
		return nil, errors.Errorf("max lengths must be positive, got %d/%d",
			cfg.MaxSourceLength, cfg.MaxTargetLength)
	}
	return &cfg, nil
}

// NewLogger returns a console logger at the configured level.
func (cfg *Config) NewLogger() (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), errors.Wrapf(err, "invalid log_level %q",
			cfg.LogLevel)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger(), nil
}

func (cfg *Config) TokenizerOptions() seq2seq_data.TokenizerOptions {
	opts := seq2seq_data.NewTokenizerOptions()
	opts.CacheDir = cfg.CacheDir
	opts.Kind = cfg.TokenizerKind
	opts.PadTokenId = cfg.PadTokenId
	return opts
}

func (cfg *Config) EncodeOptions() seq2seq_data.EncodeOptions {
	opts := seq2seq_data.NewEncodeOptions()
	opts.OverwriteCache = cfg.OverwriteCache
	opts.Sanitize = cfg.Sanitize
	opts.SentenceNewlines = cfg.SentenceNewlines
	opts.MirrorDir = cfg.CacheDir
	opts.Quiet = cfg.Quiet
	return opts
}

// RawDataOptions
// Builds the dataset options for `typePath`. A non-negative pad_token_id is
// already applied by the tokenizer, so the dataset always follows it.
func (cfg *Config) RawDataOptions(typePath string) seq2seq_data.RawDataOptions {
	opts := seq2seq_data.NewRawDataOptions()
	opts.TypePath = typePath
	opts.TgtSuffix = cfg.TgtSuffix
	opts.MaxSourceLength = cfg.MaxSourceLength
	opts.MaxTargetLength = cfg.MaxTargetLength
	opts.NObs = cfg.NObs
	opts.Encode = cfg.EncodeOptions()
	if cfg.PadTokenId >= 0 {
		opts.PadTokenId = types.Token(cfg.PadTokenId)
	}
	return opts
}

// SamplerOptions seeds the sampler when a seed is configured.
func (cfg *Config) SamplerOptions() []seq2seq_data.SamplerOption {
	if cfg.Seed == 0 {
		return nil
	}
	return []seq2seq_data.SamplerOption{seq2seq_data.WithSeed(cfg.Seed)}
}
