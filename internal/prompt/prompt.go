// Package prompt is the interactive questionnaire collaborator. The
// Prompter interface is what the managers program against; Terminal is
// the real huh-backed implementation and Script is a scripted fake for
// tests.
package prompt

import (
	"github.com/charmbracelet/huh"

	"github.com/apigee-127/a127/internal/provider"
)

// Prompter collects answers from the user.
type Prompter interface {
	// ChooseOne presents a single-select list and returns the choice.
	ChooseOne(message string, choices []string) (string, error)
	// Confirm asks a yes/no question with a default.
	Confirm(message string, def bool) (bool, error)
	// RequireAnswers prompts for every field without a non-empty answer,
	// repeating until all fields are answered. Pre-supplied answers are
	// never re-asked.
	RequireAnswers(fields []provider.Field, answers map[string]string) error
	// UpdateAnswers re-prompts every field pre-filled with its current
	// answer, except secret fields which are always re-entered blank.
	UpdateAnswers(fields []provider.Field, answers map[string]string) error
}

// Terminal prompts on the controlling terminal.
type Terminal struct{}

func (Terminal) ChooseOne(message string, choices []string) (string, error) {
	var choice string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title(message).
			Options(huh.NewOptions(choices...)...).
			Value(&choice),
	))
	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}

func (Terminal) Confirm(message string, def bool) (bool, error) {
	answer := def
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(message).Value(&answer),
	))
	if err := form.Run(); err != nil {
		return false, err
	}
	return answer, nil
}

func (t Terminal) RequireAnswers(fields []provider.Field, answers map[string]string) error {
	for {
		unanswered := unansweredFields(fields, answers)
		if len(unanswered) == 0 {
			return nil
		}
		if err := t.ask(unanswered, answers, false); err != nil {
			return err
		}
	}
}

func (t Terminal) UpdateAnswers(fields []provider.Field, answers map[string]string) error {
	for _, f := range fields {
		if f.Secret {
			delete(answers, f.Name)
		}
	}
	if err := t.ask(fields, answers, true); err != nil {
		return err
	}
	return t.RequireAnswers(fields, answers)
}

// ask runs one form over the given fields, writing results into answers.
func (Terminal) ask(fields []provider.Field, answers map[string]string, prefill bool) error {
	values := make([]string, len(fields))
	inputs := make([]huh.Field, len(fields))
	for i, f := range fields {
		if prefill && !f.Secret {
			values[i] = answers[f.Name]
		} else if answers[f.Name] == "" {
			values[i] = f.Default
		}
		in := huh.NewInput().Title(f.Message).Value(&values[i])
		if f.Secret {
			in = in.EchoMode(huh.EchoModePassword)
		}
		inputs[i] = in
	}
	if err := huh.NewForm(huh.NewGroup(inputs...)).Run(); err != nil {
		return err
	}
	for i, f := range fields {
		answers[f.Name] = values[i]
	}
	return nil
}

func unansweredFields(fields []provider.Field, answers map[string]string) []provider.Field {
	var out []provider.Field
	for _, f := range fields {
		if answers[f.Name] == "" {
			out = append(out, f)
		}
	}
	return out
}
