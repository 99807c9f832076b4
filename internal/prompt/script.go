package prompt

import (
	"fmt"

	"github.com/apigee-127/a127/internal/provider"
)

// Script is a Prompter for tests: choices, confirmations, and field
// answers are scripted ahead of time, and every issued prompt is
// recorded so tests can assert on (or assert the absence of) prompting.
type Script struct {
	// Choices are consumed in order by ChooseOne.
	Choices []string
	// Confirms are consumed in order by Confirm.
	Confirms []bool
	// Answers supplies values per field name for Require/UpdateAnswers.
	// A queue per name allows different answers on successive prompts.
	Answers map[string][]string

	// Prompts records every question asked, in order.
	Prompts []string
}

func (s *Script) ChooseOne(message string, choices []string) (string, error) {
	s.Prompts = append(s.Prompts, message)
	if len(s.Choices) == 0 {
		return "", fmt.Errorf("unscripted choice for %q", message)
	}
	choice := s.Choices[0]
	s.Choices = s.Choices[1:]
	return choice, nil
}

func (s *Script) Confirm(message string, def bool) (bool, error) {
	s.Prompts = append(s.Prompts, message)
	if len(s.Confirms) == 0 {
		return def, nil
	}
	answer := s.Confirms[0]
	s.Confirms = s.Confirms[1:]
	return answer, nil
}

func (s *Script) RequireAnswers(fields []provider.Field, answers map[string]string) error {
	for _, f := range fields {
		if answers[f.Name] != "" {
			continue
		}
		s.Prompts = append(s.Prompts, f.Message)
		answer, err := s.next(f.Name)
		if err != nil {
			return err
		}
		answers[f.Name] = answer
	}
	return nil
}

func (s *Script) UpdateAnswers(fields []provider.Field, answers map[string]string) error {
	for _, f := range fields {
		s.Prompts = append(s.Prompts, f.Message)
		if answer, err := s.next(f.Name); err == nil {
			answers[f.Name] = answer
		} else if f.Secret {
			return err
		}
		// Non-secret fields keep their current value when unscripted.
	}
	return nil
}

func (s *Script) next(name string) (string, error) {
	queue := s.Answers[name]
	if len(queue) == 0 {
		return "", fmt.Errorf("unscripted answer for field %q", name)
	}
	answer := queue[0]
	s.Answers[name] = queue[1:]
	return answer, nil
}
