package main

import (
	"fmt"
	"text/tabwriter"

	"modbridge/internal/core"
	"modbridge/internal/domain"

	"github.com/spf13/cobra"
)

var (
	modsCharacter string
	modsQuery     string
	modsActive    bool
	modsInactive  bool
	modsSort      string

	addCharacter string
	addActive    bool

	deleteModYes bool
)

var modsCmd = &cobra.Command{
	Use:   "mods",
	Short: "List and change installed mods",
	Long: `List installed mods and toggle, add or delete them.

Toggling flips a single mod. Use 'modbridge preset apply' to switch the whole
active set at once.`,
}

var modsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed mods",
	Long: `List installed mods, optionally filtered and sorted.

Examples:
  modbridge mods list
  modbridge mods list --character Raiden --active
  modbridge mods list --query armor --sort date`,
	Args: cobra.NoArgs,
	RunE: runModsList,
}

var modsToggleCmd = &cobra.Command{
	Use:   "toggle <mod-id>",
	Short: "Flip a mod between active and inactive",
	Long: `Flip a mod between active and inactive.

Examples:
  modbridge mods toggle 4f1c2b7e-...`,
	Args: cobra.ExactArgs(1),
	RunE: runModsToggle,
}

var modsDeleteCmd = &cobra.Command{
	Use:   "delete <mod-id>",
	Short: "Delete a mod",
	Long: `Delete a mod from the backend.

Presets that reference the mod keep the reference and will no longer match the
active set. Asks for confirmation unless --yes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runModsDelete,
}

var modsAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Register a mod with the development backend",
	Long: `Register a mod with the development backend.

Examples:
  modbridge mods add "Crimson Coat" --character Raiden --active`,
	Args: cobra.ExactArgs(1),
	RunE: runModsAdd,
}

func init() {
	modsListCmd.Flags().StringVarP(&modsCharacter, "character", "c", "", "only mods for this character (\"other\" for unassigned)")
	modsListCmd.Flags().StringVarP(&modsQuery, "query", "q", "", "case-insensitive match on title or character")
	modsListCmd.Flags().BoolVar(&modsActive, "active", false, "only active mods")
	modsListCmd.Flags().BoolVar(&modsInactive, "inactive", false, "only inactive mods")
	modsListCmd.Flags().StringVarP(&modsSort, "sort", "s", "title", "sort order: title, date, active")
	modsListCmd.MarkFlagsMutuallyExclusive("active", "inactive")

	modsDeleteCmd.Flags().BoolVarP(&deleteModYes, "yes", "y", false, "skip confirmation prompt")

	modsAddCmd.Flags().StringVarP(&addCharacter, "character", "c", "", "character the mod belongs to")
	modsAddCmd.Flags().BoolVar(&addActive, "active", false, "mark the mod active")

	modsCmd.AddCommand(modsListCmd, modsToggleCmd, modsDeleteCmd, modsAddCmd)
	rootCmd.AddCommand(modsCmd)
}

func runModsList(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd.Context())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	mods := core.FilterMods(svc.Store().Mods(), core.ModFilter{
		Character:    modsCharacter,
		Query:        modsQuery,
		ActiveOnly:   modsActive,
		InactiveOnly: modsInactive,
	})
	mods = core.SortMods(mods, core.ParseSortKey(modsSort))

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, mods)
	}

	if len(mods) == 0 {
		fmt.Fprintln(out, "No mods found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCHARACTER\tACTIVE\tADDED")
	fmt.Fprintln(w, "--\t-----\t---------\t------\t-----")
	for _, m := range mods {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			m.ID,
			truncate(m.Title, 40),
			m.CharacterName(),
			yesNo(m.IsActive),
			m.DateAdded.Format("2006-01-02"),
		)
	}
	w.Flush()

	if verbose {
		fmt.Fprintf(out, "\nTotal: %d mod(s)\n", len(mods))
	}
	return nil
}

func runModsToggle(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd.Context())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	outcome, err := svc.Controller().ToggleSingle(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, toggleJSON{ModID: outcome.ModID, Previous: outcome.Previous, IsActive: outcome.Confirmed})
	}

	mod, _ := svc.Store().Mod(outcome.ModID)
	state := "inactive"
	if outcome.Confirmed {
		state = colorGreen("active")
	}
	fmt.Fprintf(out, "%s is now %s\n", mod.Title, state)
	if outcome.Confirmed != outcome.Reported {
		fmt.Fprintln(out, colorYellow("warning: backend state differs from the toggle result"))
	}
	return nil
}

type toggleJSON struct {
	ModID    string `json:"id"`
	Previous bool   `json:"previous"`
	IsActive bool   `json:"isActive"`
}

func runModsDelete(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd.Context())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	mod, err := svc.Store().Mod(args[0])
	if err != nil {
		return err
	}
	if err := confirm(cmd, deleteModYes, fmt.Sprintf("Delete %s?", mod.Title)); err != nil {
		return err
	}
	if err := svc.Controller().DeleteMod(cmd.Context(), mod.ID); err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"deleted": mod.ID})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", mod.Title)
	return nil
}

func runModsAdd(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd.Context())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	mod, err := svc.AddMod(cmd.Context(), args[0], addCharacter, addActive)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), mod)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", mod.Title, mod.ID)
	return nil
}

// modTitles maps mod ids to titles for display
func modTitles(mods []domain.Mod) map[string]string {
	titles := make(map[string]string, len(mods))
	for _, m := range mods {
		titles[m.ID] = m.Title
	}
	return titles
}
