package cli

import (
	"github.com/spf13/cobra"
)

var (
	guildName       string
	guildWebhookURL string
	airingAlerts    bool
	progressUpdates bool
)

var guildCmd = &cobra.Command{
	Use:   "guild",
	Short: "Manage Discord guild settings",
}

var guildSetCmd = &cobra.Command{
	Use:   "set <guild-id>",
	Short: "Register or update a guild's notification settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := apiRequest("PUT", "/admin/guilds", map[string]interface{}{
			"guildId":         args[0],
			"name":            guildName,
			"webhookUrl":      guildWebhookURL,
			"airingAlerts":    airingAlerts,
			"progressUpdates": progressUpdates,
		})
		if err != nil {
			printError(err.Error())
			return err
		}
		printSuccess("guild " + args[0] + " updated")
		return nil
	},
}

func init() {
	guildSetCmd.Flags().StringVar(&guildName, "name", "", "guild display name")
	guildSetCmd.Flags().StringVar(&guildWebhookURL, "webhook", "", "channel webhook URL (required)")
	guildSetCmd.Flags().BoolVar(&airingAlerts, "airing-alerts", false, "send airing notifications")
	guildSetCmd.Flags().BoolVar(&progressUpdates, "progress-updates", false, "send progression updates")
	guildSetCmd.MarkFlagRequired("webhook")

	guildCmd.AddCommand(guildSetCmd)
	rootCmd.AddCommand(guildCmd)
}
