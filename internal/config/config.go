// Package config provides functionality for managing configuration options
// for the client and the development server using command-line flags, an
// optional YAML file and environment variables.
//
// Precedence, lowest first: defaults, the YAML file, flags given on the
// command line, environment variables. A .env file in the working directory
// is loaded into the environment before it is read.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerOptions holds the configuration of the development backend.
type ServerOptions struct {
	// Addr defines the server's listening address (ip:port).
	Addr string `yaml:"address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `yaml:"database_dsn"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`

	// OllamaURL and OllamaModel select the chat completion backend.
	OllamaURL   string `yaml:"ollama_url"`
	OllamaModel string `yaml:"ollama_model"`

	// SeedAdmin is "user:password" of an admin created at startup.
	SeedAdmin string `yaml:"seed_admin"`

	LogLevel string `yaml:"log_level"`

	// Config is the path to the YAML config file.
	Config string `yaml:"-"`
}

// ClientOptions holds the configuration of the terminal client.
type ClientOptions struct {
	// URL is the backend base URL.
	URL string `yaml:"url"`

	// CAFile is a PEM CA bundle to trust instead of the system roots.
	CAFile string `yaml:"ca"`

	// DataDir keeps the cached identity.
	DataDir string `yaml:"data_dir"`

	// LogFile receives the diagnostic log. Defaults to client.log in DataDir.
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	Config string `yaml:"-"`
}

// ParseServer parses args (without the program name) into ServerOptions.
func ParseServer(args []string) (*ServerOptions, error) {
	opts := &ServerOptions{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&opts.Addr, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&opts.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&opts.TLSCert, "tls-cert", "", "path to server certificate")
	fs.StringVar(&opts.TLSKey, "tls-key", "", "path to server key")
	fs.StringVar(&opts.OllamaURL, "ollama-url", "http://localhost:11434", "Ollama base URL")
	fs.StringVar(&opts.OllamaModel, "ollama-model", "llama3.2", "Ollama chat model")
	fs.StringVar(&opts.SeedAdmin, "seed-admin", "", "create admin user:password at startup")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&opts.Config, "config", "", "path to YAML config file")
	fs.StringVar(&opts.Config, "c", "", "path to YAML config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	_ = godotenv.Load()

	if err := applyFile(fs, opts, &opts.Config, map[string]*string{
		"a":            &opts.Addr,
		"d":            &opts.DatabaseDSN,
		"tls-cert":     &opts.TLSCert,
		"tls-key":      &opts.TLSKey,
		"ollama-url":   &opts.OllamaURL,
		"ollama-model": &opts.OllamaModel,
		"seed-admin":   &opts.SeedAdmin,
		"log-level":    &opts.LogLevel,
	}); err != nil {
		return nil, err
	}

	setFromEnv(&opts.Addr, "SERVER_ADDRESS")
	setFromEnv(&opts.DatabaseDSN, "DATABASE_DSN")
	setFromEnv(&opts.OllamaURL, "OLLAMA_URL")
	setFromEnv(&opts.OllamaModel, "OLLAMA_MODEL")

	if (opts.TLSCert == "") != (opts.TLSKey == "") {
		return nil, errors.New("tls-cert and tls-key must be set together")
	}
	return opts, nil
}

// ParseClient parses args (without the program name) into ClientOptions.
func ParseClient(args []string) (*ClientOptions, error) {
	opts := &ClientOptions{}
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.StringVar(&opts.URL, "url", "http://localhost:8080", "server base URL")
	fs.StringVar(&opts.CAFile, "ca", "", "path to CA cert")
	fs.StringVar(&opts.DataDir, "data-dir", defaultDataDir(), "directory for local state")
	fs.StringVar(&opts.LogFile, "log-file", "", "diagnostic log file")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&opts.Config, "config", "", "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	_ = godotenv.Load()

	if err := applyFile(fs, opts, &opts.Config, map[string]*string{
		"url":       &opts.URL,
		"ca":        &opts.CAFile,
		"data-dir":  &opts.DataDir,
		"log-file":  &opts.LogFile,
		"log-level": &opts.LogLevel,
	}); err != nil {
		return nil, err
	}

	setFromEnv(&opts.URL, "GOPHCHAT_URL")
	setFromEnv(&opts.CAFile, "GOPHCHAT_CA")
	setFromEnv(&opts.DataDir, "GOPHCHAT_DATA_DIR")

	if opts.LogFile == "" {
		opts.LogFile = filepath.Join(opts.DataDir, "client.log")
	}
	opts.URL = strings.TrimRight(opts.URL, "/")
	return opts, nil
}

// applyFile decodes the YAML file at *path over dst, then restores the
// fields whose flags were given explicitly. The CONFIG environment variable
// overrides the path.
func applyFile(fs *flag.FlagSet, dst any, path *string, fields map[string]*string) error {
	if p := os.Getenv("CONFIG"); p != "" {
		*path = p
	}
	if *path == "" {
		return nil
	}
	data, err := os.ReadFile(*path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	saved := make(map[string]string, len(fields))
	for name, ptr := range fields {
		if explicit[name] {
			saved[name] = *ptr
		}
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	for name, v := range saved {
		*fields[name] = v
	}
	return nil
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gophchat"
	}
	return filepath.Join(home, ".gophchat")
}
