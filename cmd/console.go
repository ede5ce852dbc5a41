package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Rorical/rorigreet/internal/console"
	"github.com/Rorical/rorigreet/internal/dispatcher"
)

var consoleCmd = &cobra.Command{
	Use:   "console [user]",
	Short: "Log in with plain terminal prompts instead of the full-screen greeter",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identity := ""
		if len(args) > 0 {
			identity = args[0]
		}
		application, err := newApplication(identity)
		if err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}
		defer application.Stop()

		launched := false
		err = application.RunWith(cmd.Context(), func(ctx context.Context, d *dispatcher.EventDispatcher) error {
			var runErr error
			launched, runErr = console.New(promptAsker{}).Run(ctx, d)
			return runErr
		})
		if err != nil {
			return err
		}
		if !launched {
			fmt.Println("No session started.")
		}
		return nil
	},
}

// promptAsker asks through promptui.
type promptAsker struct{}

func (promptAsker) Ask(label string, secret bool) (string, error) {
	prompt := promptui.Prompt{Label: label}
	if secret {
		prompt.Mask = '*'
	}
	return quit(prompt.Run())
}

func (promptAsker) Confirm(title, body, yes, no string) (bool, error) {
	if body != "" {
		fmt.Println(body)
	}
	if yes == "" {
		yes = "Yes"
	}
	if no == "" {
		no = "No"
	}
	prompt := promptui.Select{
		Label: title,
		Items: []string{yes, no},
	}
	i, _, err := prompt.Run()
	if _, err := quit("", err); err != nil {
		return false, err
	}
	return i == 0, nil
}

func (promptAsker) Acknowledge(title, body, ok string) error {
	fmt.Println(title)
	fmt.Println(strings.Repeat("-", len(title)))
	fmt.Println(body)
	if ok == "" {
		ok = "OK"
	}
	prompt := promptui.Select{Label: "Continue", Items: []string{ok}}
	_, _, err := prompt.Run()
	_, err = quit("", err)
	return err
}

func (promptAsker) Print(line string) {
	fmt.Println(line)
}

func quit(s string, err error) (string, error) {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return "", console.ErrQuit
	}
	return s, err
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
