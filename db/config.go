package db

import "os"

const (
	EnvS3AccessKey = "RELQ_S3_ACCESS_KEY"
	EnvS3SecretKey = "RELQ_S3_SECRET_KEY"
	EnvGitToken    = "RELQ_GIT_TOKEN"
)

// SourceConfig carries the settings needed to reach remote sources. The
// zero value reads public HTTP, local files and S3 with the default AWS
// credential chain.
type SourceConfig struct {
	Region    string
	Endpoint  string // custom S3-compatible endpoint
	AccessKey string
	SecretKey string
	Git       *GitAuth
}

// WithEnvironment fills unset credentials from the environment.
func (cfg SourceConfig) WithEnvironment() SourceConfig {
	if cfg.AccessKey == "" {
		cfg.AccessKey = os.Getenv(EnvS3AccessKey)
	}
	if cfg.SecretKey == "" {
		cfg.SecretKey = os.Getenv(EnvS3SecretKey)
	}
	if cfg.Git == nil {
		if token := os.Getenv(EnvGitToken); token != "" {
			cfg.Git = &GitAuth{Type: GitAuthToken, Token: token}
		}
	}
	return cfg
}
