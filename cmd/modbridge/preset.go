package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"modbridge/internal/core"
	"modbridge/internal/domain"

	"github.com/spf13/cobra"
)

var (
	updateName      string
	updateModIDs    []string
	exportOutput    string
	deletePresetYes bool
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage presets",
	Long: `Manage presets: named sets of mods.

Applying a preset makes its mods the exclusive active set. Mods outside the
preset are deactivated. A preset counts as applied only when the active set
matches it exactly.`,
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List presets",
	Args:  cobra.NoArgs,
	RunE:  runPresetList,
}

var presetCreateCmd = &cobra.Command{
	Use:   "create <name> [mod-id...]",
	Short: "Create a preset from mod ids",
	Long: `Create a preset from explicit mod ids. Duplicate ids are dropped.

Examples:
  modbridge preset create "Evening" 4f1c2b7e-... 9a02d4c1-...`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPresetCreate,
}

var presetSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the active mods as a preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetSave,
}

var presetUpdateCmd = &cobra.Command{
	Use:   "update <preset>",
	Short: "Rename a preset or replace its mods",
	Long: `Rename a preset or replace its mods. The preset may be given by id or name.

Examples:
  modbridge preset update Evening --name Night
  modbridge preset update Evening --mods id1,id2`,
	Args: cobra.ExactArgs(1),
	RunE: runPresetUpdate,
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <preset>",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetDelete,
}

var presetApplyCmd = &cobra.Command{
	Use:   "apply <preset>",
	Short: "Make a preset the exclusive active set",
	Long: `Make a preset the exclusive active set in a single backend call.

Mods the preset references that no longer exist are skipped.

Examples:
  modbridge preset apply Evening`,
	Args: cobra.ExactArgs(1),
	RunE: runPresetApply,
}

var presetExportCmd = &cobra.Command{
	Use:   "export <preset>",
	Short: "Export a preset",
	Long: `Export a preset to a portable YAML file.

Examples:
  modbridge preset export Evening > evening.yaml
  modbridge preset export Evening -o evening.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runPresetExport,
}

var presetImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a preset",
	Long: `Create a preset from an exported YAML file. Use "-" to read stdin.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetImport,
}

func init() {
	presetUpdateCmd.Flags().StringVar(&updateName, "name", "", "new preset name")
	presetUpdateCmd.Flags().StringSliceVar(&updateModIDs, "mods", nil, "replace the preset's mods (comma separated ids)")
	presetDeleteCmd.Flags().BoolVarP(&deletePresetYes, "yes", "y", false, "skip confirmation prompt")
	presetExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")

	presetCmd.AddCommand(
		presetListCmd,
		presetCreateCmd,
		presetSaveCmd,
		presetUpdateCmd,
		presetDeleteCmd,
		presetApplyCmd,
		presetExportCmd,
		presetImportCmd,
	)
	rootCmd.AddCommand(presetCmd)
}

type presetJSON struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	ModIDs  []string `json:"mod_ids"`
	Applied bool     `json:"applied"`
	Missing []string `json:"missing,omitempty"`
}

func runPresetList(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd.Context())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	mods := svc.Store().Mods()
	presets := svc.Store().Presets()
	out := cmd.OutOrStdout()

	if jsonOutput {
		list := make([]presetJSON, 0, len(presets))
		for _, p := range presets {
			list = append(list, presetJSON{
				ID:      p.ID,
				Name:    p.Name,
				ModIDs:  p.ModIDs,
				Applied: core.IsPresetApplied(p, mods),
				Missing: p.StaleIDs(mods),
			})
		}
		return writeJSON(out, list)
	}

	if len(presets) == 0 {
		fmt.Fprintln(out, "No presets saved.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMODS\tAPPLIED")
	fmt.Fprintln(w, "--\t----\t----\t-------")
	for _, p := range presets {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.ID, truncate(p.Name, 40), len(p.ModIDs), yesNo(core.IsPresetApplied(p, mods)))
	}
	w.Flush()

	if verbose {
		titles := modTitles(mods)
		for _, p := range presets {
			fmt.Fprintf(out, "\n%s:\n", p.Name)
			for _, id := range p.ModIDs {
				title, ok := titles[id]
				if !ok {
					title = colorYellow("(deleted)")
				}
				fmt.Fprintf(out, "  %s  %s\n", id, title)
			}
		}
	}
	return nil
}

func printPreset(w io.Writer, verb string, p domain.Preset) error {
	if jsonOutput {
		return writeJSON(w, presetJSON{ID: p.ID, Name: p.Name, ModIDs: p.ModIDs})
	}
	fmt.Fprintf(w, "%s preset %s (%d mods, id %s)\n", verb, p.Name, len(p.ModIDs), p.ID)
	return nil
}

func runPresetCreate(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd.Context())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	preset, err := svc.Controller().CreatePreset(cmd.Context(), args[0], args[1:])
	if err != nil {
		return err
	}
	return printPreset(cmd.OutOrStdout(), "Created", preset)
}

func runPresetSave(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd.Context())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	preset, err := svc.Controller().SavePresetFromActive(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printPreset(cmd.OutOrStdout(), "Saved", preset)
}

func runPresetUpdate(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("name") && !cmd.Flags().Changed("mods") {
		return fmt.Errorf("nothing to update; pass --name or --mods")
	}

	svc, err := initService(cmd.Context())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	preset, err := svc.FindPreset(args[0])
	if err != nil {
		return err
	}

	name, ids := preset.Name, preset.ModIDs
	if cmd.Flags().Changed("name") {
		name = updateName
	}
	if cmd.Flags().Changed("mods") {
		ids = updateModIDs
	}

	if err := svc.Controller().UpdatePreset(cmd.Context(), preset.ID, name, ids); err != nil {
		return err
	}

	updated, err := svc.Store().Preset(preset.ID)
	if err != nil {
		return err
	}
	return printPreset(cmd.OutOrStdout(), "Updated", updated)
}

func runPresetDelete(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd.Context())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	preset, err := svc.FindPreset(args[0])
	if err != nil {
		return err
	}
	if err := confirm(cmd, deletePresetYes, fmt.Sprintf("Delete preset %s?", preset.Name)); err != nil {
		return err
	}
	if err := svc.Controller().DeletePreset(cmd.Context(), preset.ID); err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"deleted": preset.ID})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted preset %s\n", preset.Name)
	return nil
}

type applyJSON struct {
	ID          string   `json:"id"`
	Activated   []string `json:"activated"`
	Deactivated []string `json:"deactivated"`
	Applied     bool     `json:"applied"`
	Missing     []string `json:"missing,omitempty"`
}

func runPresetApply(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd.Context())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	preset, err := svc.FindPreset(args[0])
	if err != nil {
		return err
	}
	missing := preset.StaleIDs(svc.Store().Mods())

	outcome, err := svc.Controller().ApplyPreset(cmd.Context(), preset.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, applyJSON{
			ID:          outcome.PresetID,
			Activated:   nonNil(outcome.Diff.ToActivate),
			Deactivated: nonNil(outcome.Diff.ToDeactivate),
			Applied:     outcome.Applied,
			Missing:     missing,
		})
	}

	if outcome.Diff.IsEmpty() {
		fmt.Fprintf(out, "Preset %s was already active\n", preset.Name)
	} else {
		fmt.Fprintf(out, "Applied %s: %s activated, %s deactivated\n",
			preset.Name,
			colorGreen(fmt.Sprint(len(outcome.Diff.ToActivate))),
			colorRed(fmt.Sprint(len(outcome.Diff.ToDeactivate))),
		)
	}
	if len(missing) > 0 {
		fmt.Fprintln(out, colorYellow(fmt.Sprintf("warning: %d referenced mod(s) no longer exist", len(missing))))
	}
	return nil
}

func runPresetExport(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd.Context())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	preset, err := svc.FindPreset(args[0])
	if err != nil {
		return err
	}
	data, err := svc.ExportPreset(preset.ID)
	if err != nil {
		return err
	}

	if exportOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", exportOutput, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s\n", preset.Name, exportOutput)
	return nil
}

func runPresetImport(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading preset: %w", err)
	}

	svc, err := initService(cmd.Context())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	preset, err := svc.ImportPreset(cmd.Context(), data)
	if err != nil {
		return err
	}
	return printPreset(cmd.OutOrStdout(), "Imported", preset)
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
