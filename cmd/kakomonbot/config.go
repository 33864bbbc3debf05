package main

import (
	"fmt"
	"strings"

	"kakomonbot-backend/lib/configutil"
	"kakomonbot-backend/services/kakomon"
	"kakomonbot-backend/services/quiz"
)

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

type Config struct {
	Telegram  TelegramConfig          `json:"telegram"`
	TargetURL string                  `json:"target_url"`
	Proxy     string                  `json:"proxy"`
	Selectors kakomon.Selectors       `json:"selectors"`
	Cron      string                  `json:"cron"`
	Timezone  string                  `json:"timezone"`
	Poll      quiz.PollConfig         `json:"poll"`
	Request   kakomon.RequestOverride `json:"request"`
	// nil enables the provider's search-form flow with its defaults
	Kakomon           *kakomon.SearchConfig `json:"kakomon"`
	ImageRetryDelayMs int                   `json:"image_retry_delay_ms"`
	Verbose           bool                  `json:"verbose"`
}

func loadConfig(name string) (Config, error) {
	config, err := configutil.ReadConfig[Config](name)
	if err != nil {
		return Config{}, err
	}

	var missing []string
	if config.Telegram.Token == "" {
		missing = append(missing, "telegram.token")
	}
	if config.Telegram.ChatID == 0 {
		missing = append(missing, "telegram.chat_id")
	}
	if config.TargetURL == "" {
		missing = append(missing, "target_url")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing config fields: %s", strings.Join(missing, ", "))
	}

	if config.Cron == "" {
		config.Cron = "0 5 * * *"
	}
	if config.Kakomon == nil {
		config.Kakomon = &kakomon.SearchConfig{Enabled: true}
	}
	defaults := kakomon.DefaultSelectors()
	if config.Selectors.Question == "" {
		config.Selectors.Question = defaults.Question
	}
	if config.Selectors.Choice == "" {
		config.Selectors.Choice = defaults.Choice
	}
	if config.Selectors.ChoiceLabel == "" {
		config.Selectors.ChoiceLabel = defaults.ChoiceLabel
	}
	if config.Selectors.ChoiceText == "" {
		config.Selectors.ChoiceText = defaults.ChoiceText
	}
	// relative image sources resolve against the page they came from
	if config.Selectors.BaseURL == "" {
		config.Selectors.BaseURL = config.TargetURL
	}

	return config, nil
}
