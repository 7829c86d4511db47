package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/archivio-maledetto/archivio/archivio/utils"
	"github.com/spf13/cobra"
)

var listUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered players and their monthly actions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		b, closeDB, err := openBot(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		users, err := b.Players.List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DISCORD ID\tUSERNAME\tROLE\tACTIONS\tLAST RESET")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n",
				u.DiscordID, u.Username, u.Role, u.UsedActions, u.MaxActions, utils.FormatDate(u.LastActionReset, loc))
		}
		return w.Flush()
	},
}

var promoteCmd = &cobra.Command{
	Use:   "promote <discord-id> [username]",
	Short: "Grant the admin role to a Discord user",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, closeDB, err := openBot(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		username := args[0]
		if len(args) > 1 {
			username = args[1]
		}
		user, err := b.Players.Promote(cmd.Context(), args[0], username)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", user.Username, user.DiscordID, user.Role)
		return nil
	},
}

var setActionsCmd = &cobra.Command{
	Use:   "set-actions <discord-id> <max>",
	Short: "Set a player's base monthly actions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxActions, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid max actions %q: %w", args[1], err)
		}
		b, closeDB, err := openBot(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		user, err := b.Players.GetByDiscordID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := b.Players.SetMaxActions(cmd.Context(), user.ID, maxActions); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: max actions %d\n", user.Username, maxActions)
		return nil
	},
}

var resetActionsCmd = &cobra.Command{
	Use:   "reset-actions <discord-id>",
	Short: "Zero a player's used actions for the current month",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, closeDB, err := openBot(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		user, err := b.Players.GetByDiscordID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := b.Players.ResetActions(cmd.Context(), user.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: actions reset\n", user.Username)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listUsersCmd, promoteCmd, setActionsCmd, resetActionsCmd)
}
