package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types.
	TypeSQS      = "sqs"
	TypeSNS      = "sns"
	TypePubSub   = "pubsub"
	TypeHTTP     = "http"
	TypeTelegram = "telegram"
	TypeTwitter  = "twitter"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
	httpDefaultTextField      = "text"
)

// configFile represents the structure of the publishers configuration file.
type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig represents a single publisher entry declared in config files.
type PublisherConfig struct {
	ID       string                   `json:"id" yaml:"id"`
	Type     string                   `json:"type" yaml:"type"`
	Enabled  *bool                    `json:"enabled" yaml:"enabled"`
	SQS      *SQSPublisherConfig      `json:"sqs" yaml:"sqs"`
	SNS      *SNSPublisherConfig      `json:"sns" yaml:"sns"`
	PubSub   *PubSubPublisherConfig   `json:"pubsub" yaml:"pubsub"`
	HTTP     *HTTPPublisherConfig     `json:"http" yaml:"http"`
	Telegram *TelegramPublisherConfig `json:"telegram" yaml:"telegram"`
	Twitter  *TwitterPublisherConfig  `json:"twitter" yaml:"twitter"`
}

// SQSPublisherConfig holds AWS SQS specific settings.
type SQSPublisherConfig struct {
	QueueURL string `json:"uri" yaml:"uri"`
	Region   string `json:"region" yaml:"region"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// SNSPublisherConfig holds AWS SNS specific settings.
type SNSPublisherConfig struct {
	TopicARN string `json:"topic_arn" yaml:"topic_arn"`
	Region   string `json:"region" yaml:"region"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// PubSubPublisherConfig holds Google Cloud Pub/Sub settings.
type PubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// HTTPPublisherConfig holds generic webhook settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
	// TextField names the JSON field carrying the message text (e.g. "content" for Discord).
	TextField string `json:"text_field" yaml:"text_field"`
}

// TelegramPublisherConfig holds bot credentials and the target chat.
// ChatID is either a numeric chat id or a public channel username (@channel).
type TelegramPublisherConfig struct {
	BotToken string `json:"bot_token" yaml:"bot_token"`
	ChatID   string `json:"chat_id" yaml:"chat_id"`
	APIURL   string `json:"api_url" yaml:"api_url"`
}

// TwitterPublisherConfig holds OAuth 1.0a user-context credentials.
type TwitterPublisherConfig struct {
	ConsumerKey    string `json:"consumer_key" yaml:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret" yaml:"consumer_secret"`
	AccessToken    string `json:"access_token" yaml:"access_token"`
	AccessSecret   string `json:"access_secret" yaml:"access_secret"`
	APIURL         string `json:"api_url" yaml:"api_url"`
}

// ConfigRegistry materializes publisher definitions loaded from config files.
type ConfigRegistry struct {
	mu         sync.RWMutex
	publishers []PublisherConfig
	idx        map[string]PublisherConfig
}

// LoadRegistry loads the publisher registry from a YAML/JSON file.
// ${VAR} references in string values are expanded from the environment after decoding.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open publishers file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	fileReg, err := parsePublisherRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewConfigRegistry(fileReg.Publishers)
}

// NewConfigRegistry validates entries and indexes them by id.
func NewConfigRegistry(list []PublisherConfig) (*ConfigRegistry, error) {
	if len(list) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, len(list)),
		idx:        make(map[string]PublisherConfig, len(list)),
	}

	for i := range list {
		cfg := sanitizePublisherConfig(list[i])
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.publishers[i] = cfg
		reg.idx[cfg.ID] = cfg
	}

	return reg, nil
}

// parsePublisherRegistry attempts to decode the publishers file content.
func parsePublisherRegistry(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		reg, err := unmarshalPublisherRegistry(d.name, data, d.fn)
		if err == nil {
			return reg, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return configFile{}, lastErr
	}
	return configFile{}, errors.New("publishers file format not recognized (expected YAML or JSON)")
}

// unmarshalPublisherRegistry decodes the publishers file using the provided function.
func unmarshalPublisherRegistry(name string, data []byte, fn func([]byte, any) error) (configFile, error) {
	var reg configFile
	if err := fn(data, &reg); err != nil {
		return configFile{}, fmt.Errorf("decode %s publishers: %w", name, err)
	}
	return reg, nil
}

// sanitizePublisherConfig trims and normalizes the publisher config fields.
func sanitizePublisherConfig(cfg PublisherConfig) PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		def := true
		cfg.Enabled = &def
	}

	// copies keep the caller's nested structs untouched
	if cfg.SQS != nil {
		c := *cfg.SQS
		trimAll(&c.QueueURL, &c.Region, &c.Endpoint)
		cfg.SQS = &c
	}
	if cfg.SNS != nil {
		c := *cfg.SNS
		trimAll(&c.TopicARN, &c.Region, &c.Endpoint)
		cfg.SNS = &c
	}
	if cfg.PubSub != nil {
		c := *cfg.PubSub
		trimAll(&c.ProjectID, &c.Topic, &c.CredentialsFile, &c.Endpoint)
		cfg.PubSub = &c
	}
	if cfg.HTTP != nil {
		c := *cfg.HTTP
		trimAll(&c.URL, &c.Method, &c.TextField)
		c.Method = strings.ToUpper(c.Method)
		if c.Method == "" {
			c.Method = httpDefaultMethod
		}
		if c.TimeoutSeconds <= 0 {
			c.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		if c.TextField == "" {
			c.TextField = httpDefaultTextField
		}
		c.Headers = sanitizeHeaders(c.Headers)
		cfg.HTTP = &c
	}
	if cfg.Telegram != nil {
		c := *cfg.Telegram
		trimAll(&c.BotToken, &c.ChatID, &c.APIURL)
		cfg.Telegram = &c
	}
	if cfg.Twitter != nil {
		c := *cfg.Twitter
		trimAll(&c.ConsumerKey, &c.ConsumerSecret, &c.AccessToken, &c.AccessSecret, &c.APIURL)
		if c.APIURL == "" {
			c.APIURL = twitterDefaultAPIURL
		}
		cfg.Twitter = &c
	}
	return cfg
}

// trimAll expands ${VAR} references and trims each field in place.
func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(os.ExpandEnv(*f))
	}
}

// sanitizeHeaders drops headers with an empty name or value.
func sanitizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if key, val := strings.TrimSpace(k), strings.TrimSpace(os.ExpandEnv(v)); key != "" && val != "" {
			out[key] = val
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// required returns an error naming the first empty field.
func required(id, typ string, fields ...[2]string) error {
	for _, f := range fields {
		if f[1] == "" {
			return fmt.Errorf("%s.%s is required for publisher %q", typ, f[0], id)
		}
	}
	return nil
}

// validatePublisherConfig checks that the block matching the type carries its required fields.
func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.Type == "" {
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	}

	missing := fmt.Errorf("%s config required for publisher %q", cfg.Type, cfg.ID)
	switch cfg.Type {
	case TypeSQS:
		if cfg.SQS == nil {
			return missing
		}
		return required(cfg.ID, cfg.Type, [2]string{"uri", cfg.SQS.QueueURL}, [2]string{"region", cfg.SQS.Region})
	case TypeSNS:
		if cfg.SNS == nil {
			return missing
		}
		return required(cfg.ID, cfg.Type, [2]string{"topic_arn", cfg.SNS.TopicARN}, [2]string{"region", cfg.SNS.Region})
	case TypePubSub:
		if cfg.PubSub == nil {
			return missing
		}
		return required(cfg.ID, cfg.Type, [2]string{"project_id", cfg.PubSub.ProjectID}, [2]string{"topic", cfg.PubSub.Topic})
	case TypeHTTP:
		if cfg.HTTP == nil {
			return missing
		}
		return required(cfg.ID, cfg.Type, [2]string{"url", cfg.HTTP.URL})
	case TypeTelegram:
		if cfg.Telegram == nil {
			return missing
		}
		return required(cfg.ID, cfg.Type, [2]string{"bot_token", cfg.Telegram.BotToken}, [2]string{"chat_id", cfg.Telegram.ChatID})
	case TypeTwitter:
		c := cfg.Twitter
		if c == nil {
			return missing
		}
		return required(cfg.ID, cfg.Type,
			[2]string{"consumer_key", c.ConsumerKey},
			[2]string{"consumer_secret", c.ConsumerSecret},
			[2]string{"access_token", c.AccessToken},
			[2]string{"access_secret", c.AccessSecret},
		)
	}
	return nil
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return PublisherConfig{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.idx[id]
	return cfg, ok
}

// All returns all configured publishers.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PublisherConfig, len(r.publishers))
	copy(out, r.publishers)
	return out
}

// Enabled returns publishers that are enabled.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}

	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]PublisherConfig, 0, len(all))
	for _, cfg := range all {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns enabled flag defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}
