package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rorical/rorigreet/internal/classifier"
	"github.com/Rorical/rorigreet/internal/locale"
	"github.com/Rorical/rorigreet/internal/models"
)

var (
	classifyPrompt bool
	classifyLocale string
)

var classifyCmd = &cobra.Command{
	Use:   "classify [message]",
	Short: "Show how a backend message would be handled",
	Long: `Run a PAM message through the classifier and print the resulting directive.
Useful when adding translations or checking a pam-gooroom sentinel.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang := classifyLocale
		if lang == "" {
			lang = os.Getenv("LANG")
		}
		tr, err := locale.New(lang, nil)
		if err != nil {
			return err
		}
		text := strings.Join(args, " ")
		msg := models.NewMessage(text, models.SeverityInfo)
		if classifyPrompt {
			msg = models.NewPrompt(text, models.PromptSecret)
		}

		d, rule, ok := classifier.New(tr).MatchRule(text)
		if !ok {
			d = classifier.New(tr).Classify(msg)
			fmt.Println("rule: (none)")
		} else {
			fmt.Printf("rule: %s (%s, terminal=%t)\n", rule.Name, rule.Mode, rule.Terminal)
		}
		fmt.Printf("%T\n%+v\n", d, d)
		return nil
	},
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyPrompt, "prompt", false, "treat the text as a secret prompt")
	classifyCmd.Flags().StringVar(&classifyLocale, "locale", "", "locale used for translated rules (default $LANG)")
	rootCmd.AddCommand(classifyCmd)
}
