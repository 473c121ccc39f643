package config

import (
	"strings"
)

func (c *Config) normalize() error {
	c.Device = strings.ToLower(strings.TrimSpace(c.Device))
	if c.Device == "" {
		c.Device = DeviceAuto
	}
	c.Translator.Strategy = strings.ToLower(strings.TrimSpace(c.Translator.Strategy))
	c.Synthesizer.Backend = strings.ToLower(strings.TrimSpace(c.Synthesizer.Backend))
	c.LipSync.Mode = strings.ToLower(strings.TrimSpace(c.LipSync.Mode))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	var err error
	paths := []*string{
		&c.Recognizer.Binary,
		&c.Recognizer.Model,
		&c.LipSync.Repo,
		&c.LipSync.Checkpoint,
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		if *p, err = expandPath(*p); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnv overlays environment variables on top of file settings.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Translator.APIKey, "OPENROUTER_API_KEY")
	set(&c.Translator.Model, "OPENROUTER_MODEL")
	set(&c.Translator.BaseURL, "OPENROUTER_BASE_URL")
	if v := getenv("OPENROUTER_ALLOWED_HOSTS"); strings.TrimSpace(v) != "" {
		c.Translator.AllowedHosts = splitList(v)
	}
	set(&c.Synthesizer.OpenAIAPIKey, "OPENAI_API_KEY")
	set(&c.Synthesizer.OpenAIBaseURL, "OPENAI_BASE_URL")
	set(&c.Shortener.BaseURL, "SHORTENER_BASE_URL")
	set(&c.Shortener.APIKey, "SHORTENER_API_KEY")
	set(&c.Device, "DUBCUT_DEVICE")
	c.Device = strings.ToLower(c.Device)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
