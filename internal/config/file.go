package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the YAML overlay named by CONFIG_FILE. It carries the remote
// endpoints and credentials, which operators usually keep out of the
// process environment.
//
//	webhook:
//	  base_url: http://pos.internal:8080
//	  api_key: s3cret
//	  timeout: 5s
//	ordertech:
//	  url: https://ordertech.example.com
//	  token: abc123
type File struct {
	Webhook   WebhookConfig   `yaml:"webhook"`
	OrderTech OrderTechConfig `yaml:"ordertech"`
}

func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	file := &File{}
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	return file, nil
}
