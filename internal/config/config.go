package config

import (
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	apperrors "github.com/briefstack/maildigest/internal/errors"
	"github.com/briefstack/maildigest/internal/logger"
)

type Config struct {
	Logger *logger.Config
	Store  *StoreConfig
	IMAP   *IMAPConfig
	AI     *AIConfig
	Ingest *IngestConfig
	Digest *DigestConfig
}

type StoreConfig struct {
	Path string `env:"STORE_PATH" envDefault:"out/store.db"`
}

type IMAPConfig struct {
	Host     string `env:"IMAP_HOST" envDefault:"imap.mail.me.com"`
	Port     int    `env:"IMAP_PORT" envDefault:"993"`
	Username string `env:"IMAP_USERNAME"`
	Password string `env:"IMAP_PASSWORD"`
	Mailbox  string `env:"IMAP_MAILBOX" envDefault:"INBOX"`
}

// Validate is called only by commands that open a transport session, so
// digest-only invocations work without IMAP credentials.
func (c *IMAPConfig) Validate() error {
	if c.Username == "" {
		return errors.Wrap(apperrors.ErrMissingConfig, "IMAP_USERNAME")
	}
	if c.Password == "" {
		return errors.Wrap(apperrors.ErrMissingConfig, "IMAP_PASSWORD")
	}
	return nil
}

type AIConfig struct {
	APIKey         string `env:"OPENAI_API_KEY"`
	BaseURL        string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model          string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	MaxAttempts    int    `env:"AI_MAX_ATTEMPTS" envDefault:"4"`
	RequestTimeout int    `env:"AI_REQUEST_TIMEOUT_SECONDS" envDefault:"60"`
}

func (c *AIConfig) Validate() error {
	if c.APIKey == "" {
		return errors.Wrap(apperrors.ErrMissingConfig, "OPENAI_API_KEY")
	}
	return nil
}

type IngestConfig struct {
	Search          string `env:"IMAP_SEARCH" envDefault:"UNSEEN"`
	MarkSeen        bool   `env:"MARK_SEEN" envDefault:"false"`
	NewsletterOnly  bool   `env:"NEWSLETTER_ONLY" envDefault:"false"`
	MaxBodyChars    int    `env:"MAX_BODY_CHARS" envDefault:"4000"`
	FetchLinks      bool   `env:"FETCH_LINKS" envDefault:"true"`
	MaxLinksToFetch int    `env:"MAX_LINKS_TO_FETCH" envDefault:"10"`
	MaxCharsPerLink int    `env:"MAX_CHARS_PER_LINK" envDefault:"1000"`
	FetchTimeout    int    `env:"LINK_FETCH_TIMEOUT_SECONDS" envDefault:"5"`
}

type DigestConfig struct {
	OutputDir   string `env:"DIGEST_OUTPUT_DIR" envDefault:"out"`
	RolesPath   string `env:"ROLES_PATH" envDefault:"roles.yaml"`
	DefaultRole string `env:"DEFAULT_ROLE" envDefault:"CTO"`
	Schedule    string `env:"PIPELINE_SCHEDULE" envDefault:"0 7 * * *"`
}

func InitConfig() (*Config, error) {
	config := &Config{
		Logger: &logger.Config{},
		Store:  &StoreConfig{},
		IMAP:   &IMAPConfig{},
		AI:     &AIConfig{},
		Ingest: &IngestConfig{},
		Digest: &DigestConfig{},
	}

	// Best effort: credentials can come from the environment directly.
	_ = godotenv.Load()

	if err := env.Parse(config); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment config")
	}

	return config, nil
}
