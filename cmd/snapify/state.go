package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"snapify/pkg/logger"
	"snapify/pkg/state"
	"snapify/pkg/ui"
)

// stateCmd represents the state command
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or edit the record of downloaded media",
	Long: `Inspect or edit the state file that records which media URLs have
already been downloaded for each user.

The backend and path follow the same --json and --state-backend flags as a sync.`,
}

// stateListCmd represents the state list command
var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users and how many media URLs are recorded for each",
	Args:  cobra.NoArgs,
	RunE:  runStateList,
}

// stateForgetCmd represents the state forget command
var stateForgetCmd = &cobra.Command{
	Use:   "forget <username>...",
	Short: "Drop the recorded media for users so the next sync downloads everything again",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStateForget,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateListCmd)
	stateCmd.AddCommand(stateForgetCmd)
}

func openState(cmd *cobra.Command) (state.Store, *state.State, error) {
	cfg, err := setup(persistentFlags(cmd))
	if err != nil {
		return nil, nil, err
	}

	store, err := state.Open(cfg.State.Backend, cfg.State.Path, logger.GetLogger())
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Load()
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, st, nil
}

func runStateList(cmd *cobra.Command, args []string) error {
	store, st, err := openState(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	users := st.Users()
	if len(users) == 0 {
		ui.PrintWarning("No users recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u, strconv.Itoa(st.Len(u))})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("User", "Seen Media").
		Rows(rows...)
	fmt.Println(t.String())
	return nil
}

func runStateForget(cmd *cobra.Command, args []string) error {
	store, st, err := openState(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	changed := false
	for _, u := range args {
		if st.Forget(u) {
			changed = true
			ui.PrintSuccess(fmt.Sprintf("%s: forgotten", u))
		} else {
			ui.PrintWarning(fmt.Sprintf("%s: not recorded", u))
		}
	}

	if !changed {
		return nil
	}
	return store.Save(st)
}
