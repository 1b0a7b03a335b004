package dispatch

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/formflow/pkg/domain"
)

// EmailAction notifies recipients that a submission completed.
type EmailAction struct {
	Recipients []string `mapstructure:"recipients"`
	Subject    string   `mapstructure:"subject"`
}

// WebhookAction posts the submission to an external endpoint.
type WebhookAction struct {
	URL     string            `mapstructure:"url"`
	Method  string            `mapstructure:"method"`
	Headers map[string]string `mapstructure:"headers"`
}

// CommandAction runs an allow-listed local program.
type CommandAction struct {
	Name string `mapstructure:"name"`
}

// DecodeEmail decodes an email action config.
func DecodeEmail(cfg domain.ActionConfig) (EmailAction, error) {
	var a EmailAction
	if err := decode(cfg.Config, &a); err != nil {
		return a, fmt.Errorf("invalid email action: %w", err)
	}
	if len(a.Recipients) == 0 {
		return a, fmt.Errorf("invalid email action: no recipients")
	}
	return a, nil
}

// DecodeWebhook decodes a webhook action config. Method defaults to POST.
func DecodeWebhook(cfg domain.ActionConfig) (WebhookAction, error) {
	var a WebhookAction
	if err := decode(cfg.Config, &a); err != nil {
		return a, fmt.Errorf("invalid webhook action: %w", err)
	}
	if a.URL == "" {
		return a, fmt.Errorf("invalid webhook action: url is required")
	}
	a.Method = strings.ToUpper(a.Method)
	if a.Method == "" {
		a.Method = http.MethodPost
	}
	return a, nil
}

// DecodeCommand decodes a command action config.
func DecodeCommand(cfg domain.ActionConfig) (CommandAction, error) {
	var a CommandAction
	if err := decode(cfg.Config, &a); err != nil {
		return a, fmt.Errorf("invalid command action: %w", err)
	}
	if a.Name == "" {
		return a, fmt.Errorf("invalid command action: name is required")
	}
	return a, nil
}

func decode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
