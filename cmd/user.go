package cmd

import (
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user [name]",
	Short: "Start the greeter with a user already chosen",
	Long: `Start the greeter and begin authenticating the given user at once.
Use "*guest" for the guest account or "*other" to be asked for a name.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGreeter(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
}
