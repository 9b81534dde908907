package cli

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
)

// Credentials are the values collected for login or registration.
type Credentials struct {
	Email    string
	Password string
	Confirm  string
}

// Prompter asks the user for values that were not given as flags.
type Prompter interface {
	// Credentials fills in the missing fields of c. Confirm is only asked
	// for when register is set.
	Credentials(c Credentials, register bool) (Credentials, error)

	// Confirm asks a yes/no question.
	Confirm(title string) (bool, error)
}

type huhPrompter struct{}

func (huhPrompter) Credentials(c Credentials, register bool) (Credentials, error) {
	var fields []huh.Field
	if c.Email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(&c.Email).
			Validate(required("Email")))
	}
	if c.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&c.Password).
			Validate(required("Password")))
	}
	if register && c.Confirm == "" {
		fields = append(fields, huh.NewInput().
			Title("Confirm password").
			EchoMode(huh.EchoModePassword).
			Value(&c.Confirm))
	}
	if len(fields) == 0 {
		return c, nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return c, ErrAborted
		}
		return c, err
	}
	return c, nil
}

func (huhPrompter) Confirm(title string) (bool, error) {
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}
