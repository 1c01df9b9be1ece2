package cli

import (
	"errors"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

// PromptForRequest asks for the analysis request when none was given on the
// command line.
func PromptForRequest() (string, error) {
	var request string
	prompt := &survey.Input{
		Message: "What should I analyze?",
		Help:    "A company name, ticker or question, e.g. \"Should I buy Reliance Industries?\"",
	}

	err := survey.AskOne(prompt, &request, survey.WithValidator(func(val interface{}) error {
		if str, ok := val.(string); !ok || strings.TrimSpace(str) == "" {
			return errors.New("request cannot be empty")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(request), nil
}

// PromptForSave asks whether the report should be written to disk.
func PromptForSave() (bool, error) {
	save := false
	prompt := &survey.Confirm{
		Message: "Save a markdown report?",
		Default: false,
	}
	if err := survey.AskOne(prompt, &save); err != nil {
		return false, err
	}
	return save, nil
}
