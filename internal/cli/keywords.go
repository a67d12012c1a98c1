package cli

import (
	"fmt"
	"strings"

	"resumescore/internal/common"
	"resumescore/internal/keywords"

	"github.com/spf13/cobra"
)

var keywordsConfig common.CommandConfig

var (
	keywordsLevel    string
	keywordsIndustry string
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords [profession]",
	Short: "Look up the keyword taxonomy of a profession or industry",
	Long: `Print the technical skills, soft skills, certifications and action verbs
recruiters expect for a profession. Custom taxonomies from the keywords file
win, then the language model, then the built-in defaults.

With --industry the static keyword list of an industry is printed instead.
Without arguments the known industries and custom professions are listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKeywords,
}

func init() {
	keywordsCmd.Flags().StringVar(&keywordsLevel, "level", "",
		"Experience level: "+strings.Join(keywords.ExperienceLevels, ", "))
	keywordsCmd.Flags().StringVar(&keywordsIndustry, "industry", "", "Industry to list keywords for")
	addOutputFlags(keywordsCmd, &keywordsConfig)

	_ = keywordsCmd.RegisterFlagCompletionFunc("level", cobra.FixedCompletions(keywords.ExperienceLevels, cobra.ShellCompDirectiveNoFileComp))
	_ = keywordsCmd.RegisterFlagCompletionFunc("industry", cobra.FixedCompletions(keywords.Industries(), cobra.ShellCompDirectiveNoFileComp))
}

func runKeywords(cmd *cobra.Command, args []string) error {
	env, err := newCommandEnv(cmd, nil)
	if err != nil {
		return err
	}
	defer env.Close()

	if keywordsIndustry != "" {
		industry, err := keywords.Industry(keywordsIndustry)
		if err != nil {
			return err
		}
		return env.output.HandleOutput(industry, keywordsConfig)
	}

	if len(args) == 0 {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Industries: %s\n", strings.Join(keywords.Industries(), ", "))
		if custom := env.services.Keywords.CustomProfessions(); len(custom) > 0 {
			fmt.Fprintf(out, "Custom professions: %s\n", strings.Join(custom, ", "))
		}
		return nil
	}

	result, err := env.services.Keywords.Lookup(cmd.Context(), args[0], keywordsLevel)
	if err != nil {
		return err
	}
	env.logger.Debug("Keywords resolved", "profession", result.Profession, "source", result.Source)
	return env.output.HandleOutput(result, keywordsConfig)
}
