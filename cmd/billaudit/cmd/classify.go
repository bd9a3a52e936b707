package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewClassifyCommand creates the classify debug command.
func NewClassifyCommand(app AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <charge frequency>...",
		Short: "Show the product type for charge frequency labels",
		Long: `Classify prints the product type assigned to one or more charge
frequency labels, using the same keyword rules as the check command.
Useful for debugging a rules override file.`,
		Example: `  billaudit classify "DudaOne Monthly"
  billaudit classify "Cookiebot CCB yearly" "AudioEye Upgrade monthly"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			classifier, err := app.Classifier()
			if err != nil {
				return err
			}

			out := c.OutOrStdout()
			for _, label := range args {
				fmt.Fprintf(out, "%s: %s\n", label, classifier.Classify(label))
			}
			return nil
		},
	}
}
