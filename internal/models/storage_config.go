package models

// StorageConfig points at an S3-compatible bucket for generated headshots
type StorageConfig struct {
	Endpoint      string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Region        string `json:"region" yaml:"region"`
	AccessKey     string `json:"access_key" yaml:"access_key"`
	SecretKey     string `json:"secret_key" yaml:"secret_key"`
	Bucket        string `json:"bucket" yaml:"bucket"`
	PublicBaseURL string `json:"public_base_url" yaml:"public_base_url"`
	UsePathStyle  bool   `json:"use_path_style,omitempty" yaml:"use_path_style,omitempty"`
	Prefix        string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}
