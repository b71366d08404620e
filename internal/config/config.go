package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
)

const (
	DefaultPersona = "Neo"
	DefaultModel   = "llama3-70b-8192"
	DefaultBaseURL = "https://api.groq.com/openai/v1"
)

var ErrMissingAPIKey = errors.New("GROQ_API_KEY not set")

type Config struct {
	EnvFile  string
	LogLevel string
	Proxy    string

	// Read from the environment once at startup.
	Persona string
	Model   string
	APIKey  string
	BaseURL string

	TTS      string
	Rate     int
	Voice    string
	Language string
	Duck     bool

	ListenTimeout time.Duration
	PhraseLimit   time.Duration
	ChatTimeout   time.Duration

	Inputs []string
	Stdin  bool
	Chime  string

	AvatarAddr        string
	GoogleCredentials string
}

// Parse reads flags from args, loads the env file they point at and then
// fills the environment-derived fields through getenv.
func Parse(args []string, getenv func(string) string) (Config, error) {
	var cfg Config

	fs := cli.NewFlagSet("neo", cli.ContinueOnError)
	fs.StringVarP(&cfg.EnvFile, "env", "e", ".env", "Env file path")
	fs.StringVarP(&cfg.LogLevel, "log", "l", "info", "Log level")
	fs.StringVarP(&cfg.Proxy, "proxy", "p", "", "Socks Proxy Address (empty for direct)")
	fs.StringVar(&cfg.TTS, "tts", "espeak", "Speech backend: espeak, google or none")
	fs.IntVar(&cfg.Rate, "rate", 150, "Speaking rate in words per minute")
	fs.StringVar(&cfg.Voice, "voice", "en", "Voice name for the speech backend")
	fs.StringVar(&cfg.Language, "language", "en-US", "Recognition language code")
	fs.BoolVar(&cfg.Duck, "duck", false, "Lower other audio streams while speaking")
	fs.DurationVar(&cfg.ListenTimeout, "listen-timeout", 10*time.Second, "How long to wait for speech to start")
	fs.DurationVar(&cfg.PhraseLimit, "phrase-limit", 10*time.Second, "Longest single utterance")
	fs.DurationVar(&cfg.ChatTimeout, "chat-timeout", 60*time.Second, "Chat completion timeout (0 disables)")
	fs.StringArrayVar(&cfg.Inputs, "input", nil, "Audio file to use instead of the microphone (repeatable)")
	fs.BoolVar(&cfg.Stdin, "stdin", false, "Read typed utterances from stdin")
	fs.StringVar(&cfg.Chime, "chime", "", "Listening cue mp3 (empty for a tone, \"off\" for none)")
	fs.StringVar(&cfg.AvatarAddr, "avatar", ":8093", "Avatar http address (empty disables)")
	fs.StringVar(&cfg.GoogleCredentials, "google-credentials", "", "Google service account json")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// A missing env file is fine, the variables may already be exported.
	_ = godotenv.Load(cfg.EnvFile)

	cfg.Persona = envOr(getenv, "ASSISTANT_NAME", DefaultPersona)
	cfg.Model = envOr(getenv, "GROQ_MODEL", DefaultModel)
	cfg.BaseURL = envOr(getenv, "GROQ_BASE_URL", DefaultBaseURL)
	cfg.APIKey = getenv("GROQ_API_KEY")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}

	switch c.TTS {
	case "espeak", "google", "none":
	default:
		return fmt.Errorf("unknown tts backend %q", c.TTS)
	}

	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive, got %d", c.Rate)
	}
	if c.ListenTimeout <= 0 {
		return fmt.Errorf("listen-timeout must be positive, got %s", c.ListenTimeout)
	}
	if c.ChatTimeout < 0 {
		return fmt.Errorf("chat-timeout must not be negative, got %s", c.ChatTimeout)
	}
	if c.Stdin && len(c.Inputs) > 0 {
		return errors.New("--stdin and --input are mutually exclusive")
	}

	return nil
}

func envOr(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}
