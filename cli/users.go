package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var premiumValue bool

var premiumCmd = &cobra.Command{
	Use:   "premium <user-id>",
	Short: "Set or clear a user's premium flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := apiRequest("PUT", "/admin/users/"+args[0]+"/premium",
			map[string]interface{}{"value": premiumValue})
		if err != nil {
			printError(err.Error())
			return err
		}
		printSuccess(fmt.Sprintf("premium=%v for user %s", premiumValue, args[0]))
		return nil
	},
}

var adminValue bool

var makeAdminCmd = &cobra.Command{
	Use:   "admin <user-id>",
	Short: "Set or clear a user's admin flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := apiRequest("PUT", "/admin/users/"+args[0]+"/admin",
			map[string]interface{}{"value": adminValue})
		if err != nil {
			printError(err.Error())
			return err
		}
		printSuccess(fmt.Sprintf("admin=%v for user %s", adminValue, args[0]))
		return nil
	},
}

var (
	xpAmount int
	xpReason string
)

var awardXPCmd = &cobra.Command{
	Use:   "award-xp <user-id>",
	Short: "Grant XP to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := apiRequest("POST", "/admin/users/"+args[0]+"/xp",
			map[string]interface{}{"amount": xpAmount, "reason": xpReason})
		if err != nil {
			printError(err.Error())
			return err
		}
		printSuccess(fmt.Sprintf("awarded %d XP to user %s", xpAmount, args[0]))
		if leveledUp, ok := out["leveledUp"].(bool); ok && leveledUp {
			fmt.Printf("User leveled up to %v\n", out["newLevel"])
		}
		return nil
	},
}

func init() {
	premiumCmd.Flags().BoolVar(&premiumValue, "value", true, "flag value")
	makeAdminCmd.Flags().BoolVar(&adminValue, "value", true, "flag value")
	awardXPCmd.Flags().IntVar(&xpAmount, "amount", 0, "XP amount (required)")
	awardXPCmd.Flags().StringVar(&xpReason, "reason", "admin_grant", "grant reason")
	awardXPCmd.MarkFlagRequired("amount")

	usersCmd.AddCommand(premiumCmd, makeAdminCmd, awardXPCmd)
	rootCmd.AddCommand(usersCmd)
}
