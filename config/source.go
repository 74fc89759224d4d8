// The source configuration is designed to allow adding other object stores. To do this, add a new SourceType, update SourceConfig, and define the validation for the new store.
package config

import "fmt"

// SourceType represents the type of object store backend
type SourceType string

const (
	SourceTypeS3    SourceType = "s3"
	SourceTypeMinio SourceType = "minio"
)

// DefaultBucket is the public bucket holding the RFC standalone configurations
const DefaultBucket = "ciroh-rti-hefs-data"

// SourceConfig holds the configuration for the object store
type SourceConfig struct {
	SourceType SourceType `json:"type" yaml:"type" toml:"type"`

	// Common options for all stores
	Common CommonSourceConfig `json:"common,omitempty" yaml:"common,omitempty" toml:"common,omitempty"`

	// type-specific configurations
	S3    *S3Config    `json:"s3,omitempty" yaml:"s3,omitempty" toml:"s3,omitempty"`
	Minio *MinioConfig `json:"minio,omitempty" yaml:"minio,omitempty" toml:"minio,omitempty"`
}

// CommonSourceConfig contains general settings applicable to all stores
type CommonSourceConfig struct {
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty"` // optional: per-request timeout, 0 leaves the client default
	MaxRPS         int `json:"max_rps,omitempty" yaml:"max_rps,omitempty" toml:"max_rps,omitempty"`                         // optional: maximum requests per second to the store (0 = no limit)
}

// S3Config holds S3-specific configuration
type S3Config struct {
	Region          string `json:"region" yaml:"region" toml:"region"`
	Bucket          string `json:"bucket" yaml:"bucket" toml:"bucket"`
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty" toml:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty" toml:"secret_access_key,omitempty"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" toml:"endpoint,omitempty"` // For S3-compatible services
	UsePathStyle    bool   `json:"use_path_style,omitempty" yaml:"use_path_style,omitempty" toml:"use_path_style,omitempty"`
	Anonymous       bool   `json:"anonymous,omitempty" yaml:"anonymous,omitempty" toml:"anonymous,omitempty"` // Unsigned requests for public buckets
}

// MinioConfig holds configuration for S3-compatible stores accessed through minio-go
type MinioConfig struct {
	Endpoint        string `json:"endpoint" yaml:"endpoint" toml:"endpoint"` // host[:port], no scheme
	Bucket          string `json:"bucket" yaml:"bucket" toml:"bucket"`
	Region          string `json:"region,omitempty" yaml:"region,omitempty" toml:"region,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty" toml:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty" toml:"secret_access_key,omitempty"`
	UseSSL          bool   `json:"use_ssl,omitempty" yaml:"use_ssl,omitempty" toml:"use_ssl,omitempty"`
}

// Validate ensures the configuration is valid for the specified source type
func (sc *SourceConfig) Validate() error {
	if err := sc.Common.Validate(); err != nil {
		return err
	}

	switch sc.SourceType {
	case SourceTypeS3:
		if sc.S3 == nil {
			return fmt.Errorf("s3 configuration is required when type is 's3'")
		}
		return sc.S3.Validate()
	case SourceTypeMinio:
		if sc.Minio == nil {
			return fmt.Errorf("minio configuration is required when type is 'minio'")
		}
		return sc.Minio.Validate()
	default:
		return fmt.Errorf("unsupported source type: %s", sc.SourceType)
	}
}

// BucketName returns the bucket of the active store
func (sc *SourceConfig) BucketName() string {
	switch sc.SourceType {
	case SourceTypeS3:
		if sc.S3 != nil {
			return sc.S3.Bucket
		}
	case SourceTypeMinio:
		if sc.Minio != nil {
			return sc.Minio.Bucket
		}
	}
	return ""
}

// Validate validates S3 configuration
func (s3c *S3Config) Validate() error {
	if s3c.Bucket == "" {
		return fmt.Errorf("s3 bucket is required")
	}
	if (s3c.AccessKeyID == "") != (s3c.SecretAccessKey == "") {
		return fmt.Errorf("s3 access key and secret key must be set together")
	}
	if s3c.Anonymous && s3c.AccessKeyID != "" {
		return fmt.Errorf("s3 anonymous access cannot be combined with static credentials")
	}
	return nil
}

// ApplyDefaults sets default values for S3 configuration
func (s3c *S3Config) ApplyDefaults() {
	if s3c.Bucket == "" {
		s3c.Bucket = DefaultBucket
	}
	if s3c.Region == "" {
		s3c.Region = "us-east-1"
	}
}

// Validate validates minio configuration
func (mc *MinioConfig) Validate() error {
	if mc.Endpoint == "" {
		return fmt.Errorf("minio endpoint is required")
	}
	if mc.Bucket == "" {
		return fmt.Errorf("minio bucket is required")
	}
	if (mc.AccessKeyID == "") != (mc.SecretAccessKey == "") {
		return fmt.Errorf("minio access key and secret key must be set together")
	}
	return nil
}

// ApplyDefaults sets default values if they are not provided
func (c *CommonSourceConfig) ApplyDefaults() {
	// TimeoutSeconds and MaxRPS stay 0: client defaults, no limit
}

func (c *CommonSourceConfig) Validate() error {
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds cannot be negative")
	}
	if c.MaxRPS < 0 {
		return fmt.Errorf("max_rps cannot be negative")
	}
	return nil
}
