package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	flagIndex      []string
	flagVersioned  bool
	flagBitemporal bool
	flagValidFrom  int64
	flagValidTo    int64
	flagHasFrom    bool
	flagHasTo      bool
	flagVersion    int
	flagHasVersion bool
	flagAsOf       int64
	flagHasAsOf    bool
	flagMetadata   []string
)

func addCommonPartitionFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&flagIndex, "index", nil, "dotted field paths to index (comma-separated)")
	cmd.Flags().BoolVar(&flagVersioned, "versioned", false, "operate on a unitemporal partition")
	cmd.Flags().BoolVar(&flagBitemporal, "bitemporal", false, "operate on a bitemporal partition")
}

func parseMetadata(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	md := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		md[k] = v
	}
	return md
}

var setCmd = &cobra.Command{
	Use:   "set <partition> <key> <json-value>",
	Short: "Write a value for a key",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, key, raw := args[0], args[1], args[2]
		value, err := parseValue(raw)
		if err != nil {
			return err
		}
		if dryRun {
			fmt.Printf("[DRY-RUN] Would set %s/%s = %s\n", name, key, raw)
			return nil
		}
		reg := newRegistry()
		md := parseMetadata(flagMetadata)

		switch {
		case flagBitemporal:
			p := reg.GetBitemporalPartition(name, flagIndex, nil)
			var from, to *int64
			if flagHasFrom {
				from = &flagValidFrom
			}
			if flagHasTo {
				to = &flagValidTo
			}
			if err := p.Set(key, value, from, to, md); err != nil {
				return err
			}
		case flagVersioned:
			p := reg.GetVersionedPartition(name, flagIndex, nil)
			if err := p.Set(key, value, md); err != nil {
				return err
			}
		default:
			p := reg.GetPartition(name, flagIndex, nil)
			if err := p.Set(key, value); err != nil {
				return err
			}
		}
		logVerbose("set %s/%s", name, key)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <partition> <key>",
	Short: "Read the current (or versioned / point-in-time) value for a key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, key := args[0], args[1]
		reg := newRegistry()

		switch {
		case flagBitemporal:
			p := reg.GetBitemporalPartition(name, flagIndex, nil)
			var asOf *int64
			if flagHasAsOf {
				asOf = &flagAsOf
			}
			v, ok := p.Get(key, asOf)
			if !ok {
				return fmt.Errorf("key %q not found", key)
			}
			return printJSON(v)
		case flagVersioned:
			p := reg.GetVersionedPartition(name, flagIndex, nil)
			var version *int
			if flagHasVersion {
				version = &flagVersion
			}
			v, ok := p.Get(key, version)
			if !ok {
				return fmt.Errorf("key %q not found", key)
			}
			return printJSON(v)
		default:
			p := reg.GetPartition(name, flagIndex, nil)
			v, ok := p.Get(key)
			if !ok {
				return fmt.Errorf("key %q not found", key)
			}
			return printJSON(v)
		}
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <partition> <key>",
	Aliases: []string{"rm"},
	Short:   "Remove a key",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, key := args[0], args[1]
		if dryRun {
			fmt.Printf("[DRY-RUN] Would delete %s/%s\n", name, key)
			return nil
		}
		reg := newRegistry()

		var removed bool
		var err error
		switch {
		case flagBitemporal:
			removed, err = reg.GetBitemporalPartition(name, flagIndex, nil).Delete(key)
		case flagVersioned:
			removed, err = reg.GetVersionedPartition(name, flagIndex, nil).Delete(key)
		default:
			removed, err = reg.GetPartition(name, flagIndex, nil).Delete(key)
		}
		if err != nil {
			return err
		}
		logVerbose("delete %s/%s: removed=%v", name, key, removed)
		fmt.Println(removed)
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys <partition>",
	Short: "List every primary key in a partition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newRegistry().GetPartition(args[0], nil, nil)
		keys, err := p.Keys()
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	},
}

var dataCmd = &cobra.Command{
	Use:   "data <partition>",
	Short: "Dump every key's current value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newRegistry().GetPartition(args[0], nil, nil)
		data, err := p.Data()
		if err != nil {
			return err
		}
		return printJSON(data)
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions <partition> <key>",
	Short: "List every version/slice recorded for a key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, key := args[0], args[1]
		reg := newRegistry()

		if flagBitemporal {
			slices, ok := reg.GetBitemporalPartition(name, flagIndex, nil).GetAllVersions(key)
			if !ok {
				return fmt.Errorf("key %q not found", key)
			}
			return printJSON(slices)
		}
		versions, ok := reg.GetVersionedPartition(name, flagIndex, nil).GetAllVersions(key)
		if !ok {
			return fmt.Errorf("key %q not found", key)
		}
		return printJSON(versions)
	},
}

var flagJoinWith []string

// parseJoinSpec parses one --with flag value of the form
// "joinName:leftField[:rightField]". joinName doubles as the target
// partition's registered name, per spec section 4.5: the resolver
// looks up the join's target by joinName itself.
func parseJoinSpec(raw string) (joinName, leftField, rightField string, err error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		err = fmt.Errorf("invalid --with %q: expected joinName:leftField[:rightField]", raw)
		return
	}
	joinName, leftField = parts[0], parts[1]
	if len(parts) == 3 {
		rightField = parts[2]
	}
	return
}

var joinCmd = &cobra.Command{
	Use:   "join <partition> <key>",
	Short: "Fetch a key merged with its declared cross-partition joins",
	Long: `join registers one or more join descriptors against <partition> and
fetches <key> with every join's contribution merged in (spec section 4.8).

Each --with flag declares one join. joinName also names the target
partition, the way the resolver looks it up through the registry:

  --with joinName:leftField[:rightField]

Omitting rightField resolves via a direct Get on the target partition;
supplying it linearly scans the target's data for a matching field.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(flagJoinWith) == 0 {
			return fmt.Errorf("join requires at least one --with flag")
		}
		name, key := args[0], args[1]
		reg := newRegistry()
		p := reg.GetPartition(name, flagIndex, nil)

		for _, raw := range flagJoinWith {
			joinName, leftField, rightField, err := parseJoinSpec(raw)
			if err != nil {
				return err
			}
			// Register the target so GetPartitionByName can resolve it.
			reg.GetPartition(joinName, nil, nil)
			if err := p.CreateJoin(reg, joinName, leftField, rightField); err != nil {
				return fmt.Errorf("registering join %q: %w", joinName, err)
			}
		}

		merged, err := p.GetWithJoins(key)
		if err != nil {
			return err
		}
		if merged == nil {
			return fmt.Errorf("key %q not found", key)
		}
		return printJSON(merged)
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup <output-dir>",
	Short: "Archive the base directory into a timestamp-named gzipped tar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if dryRun {
			fmt.Printf("[DRY-RUN] Would archive the base directory into %s\n", args[0])
			return nil
		}
		logVerbose("archiving base directory into %s", args[0])
		path, err := newRegistry().Backup(args[0])
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{setCmd, getCmd, deleteCmd, versionsCmd} {
		addCommonPartitionFlags(c)
	}
	setCmd.Flags().Int64Var(&flagValidFrom, "valid-from", 0, "bitemporal validFrom (epoch ms)")
	setCmd.Flags().Int64Var(&flagValidTo, "valid-to", 0, "bitemporal validTo (epoch ms)")
	setCmd.Flags().StringSliceVar(&flagMetadata, "metadata", nil, "key=value metadata pairs")
	setCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		flagHasFrom = cmd.Flags().Changed("valid-from")
		flagHasTo = cmd.Flags().Changed("valid-to")
		return nil
	}

	getCmd.Flags().IntVar(&flagVersion, "version", 0, "unitemporal version to read")
	getCmd.Flags().Int64Var(&flagAsOf, "as-of", 0, "bitemporal valid-time instant to read (epoch ms)")
	getCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		flagHasVersion = cmd.Flags().Changed("version")
		flagHasAsOf = cmd.Flags().Changed("as-of")
		return nil
	}

	joinCmd.Flags().StringSliceVar(&flagIndex, "index", nil, "dotted field paths to index (comma-separated)")
	joinCmd.Flags().StringArrayVar(&flagJoinWith, "with", nil, "joinName:leftField[:rightField], repeatable")
}
