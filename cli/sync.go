package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Cross-platform sync operations",
}

var forceSyncCmd = &cobra.Command{
	Use:   "force <user-id>",
	Short: "Republish a user's authoritative profile snapshot",
	Long:  `Reloads the user's profile from the database and rebroadcasts it to the website and the Discord bot, recovering from any suspected missed update.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := apiRequest("POST", "/admin/users/"+args[0]+"/forcesync", nil)
		if err != nil {
			printError(err.Error())
			return err
		}
		printSuccess("snapshot republished")
		if profile, ok := out["profile"].(map[string]interface{}); ok {
			fmt.Printf("XP: %v  Level: %v  Streak: %v\n",
				profile["xp"], profile["level"], profile["streak"])
		}
		return nil
	},
}

var issueCodeCmd = &cobra.Command{
	Use:   "issue-code <user-id>",
	Short: "Issue a Discord linking code on a user's behalf",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := apiRequest("POST", "/admin/users/"+args[0]+"/linkcode", nil)
		if err != nil {
			printError(err.Error())
			return err
		}
		printSuccess("linking code issued")
		fmt.Printf("Code: %v\nExpires: %v\n", out["code"], out["expiresAt"])
		return nil
	},
}

func init() {
	syncCmd.AddCommand(forceSyncCmd, issueCodeCmd)
	rootCmd.AddCommand(syncCmd)
}
