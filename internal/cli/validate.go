package cli

import (
	"github.com/spf13/cobra"

	"github.com/relayrun/enact/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	ResourcePath string
	TypeName     string
}

// NewValidateCommand builds the validate subcommand: checks a packed
// resource file against its registered type's CUE shape, either from
// the configured schema directory or the schemas built into this module.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a packed resource against its registered CUE schema",
		Long: `Validate reads a wire-encoded resource and checks it against the CUE
shape registered for its type, either from the schema directory named in
the config file (schema.dir) or, if none is configured, the schemas
built into this module for the example invokables.

Example:
  enact validate --resource rolldice.json --type enact.examples.dice.RollDice`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ResourcePath, "resource", "", "path to a wire-encoded resource (required)")
	cmd.Flags().StringVar(&opts.TypeName, "type", "", "registered type name to validate against (required)")
	_ = cmd.MarkFlagRequired("resource")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := formatterFor(opts.RootOptions, cmd)

	cfg, err := LoadConfig(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}

	var registry *schema.Registry
	if cfg.Schema.Dir != "" {
		registry, err = schema.LoadDir(cfg.Schema.Dir)
	} else {
		registry, err = schema.LoadBuiltin()
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "load schemas", err)
	}

	if !registry.Has(opts.TypeName) {
		return NewExitError(ExitCommandError, "no schema registered for type "+opts.TypeName)
	}

	r, err := loadResourceFile(opts.ResourcePath)
	if err != nil {
		return err
	}
	if r.TypeID().Name != opts.TypeName {
		return NewExitError(ExitCommandError, "resource type "+r.TypeID().Name+" does not match --type "+opts.TypeName)
	}

	if err := registry.ValidateResource(r); err != nil {
		_ = formatter.Error("E_SCHEMA", err.Error(), nil)
		return NewExitError(ExitFailure, "validation failed")
	}

	return formatter.Success(map[string]any{"valid": true, "type": opts.TypeName})
}
