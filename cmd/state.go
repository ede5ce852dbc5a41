package cmd

import (
	"fmt"
	"sort"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Rorical/rorigreet/internal/config"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the remembered users and sessions",
}

func openStore() (*config.Store, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return config.OpenStore(cfg.StatePath())
}

var listStateCmd = &cobra.Command{
	Use:   "list",
	Short: "List state sections",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		last, _ := store.GetString("greeter", "last-user")
		for _, name := range store.Sections() {
			marker := ""
			if name == "user:"+last {
				marker = " (last)"
			}
			fmt.Printf("  %s%s\n", name, marker)
		}
		return nil
	},
}

var showStateCmd = &cobra.Command{
	Use:   "show [section]",
	Short: "Show one section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		sec, err := store.Section(args[0])
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(sec))
		for k := range sec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Printf("[%s]\n", args[0])
		for _, k := range keys {
			fmt.Printf("%s = %s\n", k, sec[k])
		}
		return nil
	},
}

var forgetStateCmd = &cobra.Command{
	Use:   "forget [section]",
	Short: "Delete a section",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		var name string
		if len(args) > 0 {
			name = args[0]
		} else {
			sections := store.Sections()
			if len(sections) == 0 {
				fmt.Println("Nothing to forget")
				return nil
			}
			prompt := promptui.Select{
				Label: "Select section to forget",
				Items: sections,
			}
			if _, name, err = prompt.Run(); err != nil {
				return fmt.Errorf("selection failed: %w", err)
			}
		}

		confirmPrompt := promptui.Prompt{
			Label:     fmt.Sprintf("Forget '%s'? (y/N)", name),
			IsConfirm: true,
		}
		if _, err := confirmPrompt.Run(); err != nil {
			fmt.Println("Cancelled")
			return nil
		}
		if err := store.Forget(name); err != nil {
			return err
		}
		fmt.Printf("Forgot '%s'\n", name)
		return nil
	},
}

func init() {
	stateCmd.AddCommand(listStateCmd)
	stateCmd.AddCommand(showStateCmd)
	stateCmd.AddCommand(forgetStateCmd)
	rootCmd.AddCommand(stateCmd)
}
