package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"render-presets/preset"
)

func newEncodeCommand() *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "encode <preset> [key=value...]",
		Short: "Encode preset parameters as a bracketed label block",
		Example: `  renderpresets encode HD xy=1920x1080 sp=1536 rng=0-100@1
  renderpresets encode folder relative=//cache/ absolute=F:/cache/ --index 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := preset.Params{}
			for _, arg := range args[1:] {
				key, value, ok := strings.Cut(arg, "=")
				key = strings.ToLower(strings.TrimSpace(key))
				if !ok || key == "" {
					return fmt.Errorf("invalid parameter %q: expected key=value", arg)
				}
				params[key] = value
			}
			suffix := preset.Encode(args[0], params)
			if index > 0 {
				suffix = preset.FormatLabel(index, args[0], suffix)
			}
			fmt.Fprintln(cmd.OutOrStdout(), suffix)
			return nil
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "Prefix the output with a marker index, producing a full label")
	return cmd
}

func newDecodeCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "decode <label-or-block>",
		Short: "Decode a marker label or its bracketed block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, params := decodeArg(args[0])
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, map[string]any{"name": name, "params": params})
			}
			if name != "" {
				fmt.Fprintf(out, "Preset: %s\n", name)
			}
			if len(params) == 0 {
				fmt.Fprintln(out, "No parameters found")
				return nil
			}
			fmt.Fprintln(out, renderTable(out, []string{"Key", "Value"}, paramRows(params), nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

// decodeArg accepts either a full label or just its bracketed block. A block
// is recognized by its leading bracket; folder blocks may contain colons.
func decodeArg(arg string) (string, preset.Params) {
	trimmed := strings.TrimSpace(arg)
	if strings.HasPrefix(trimmed, "[") {
		return "", preset.Decode(trimmed)
	}
	key, suffix, ok := preset.ParseLabel(trimmed)
	if !ok {
		return "", preset.Params{}
	}
	return key, preset.Decode(suffix)
}

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var (
		labels   []string
		defaults bool
		sceneArg string
		absolute bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "apply <preset>",
		Short: "Resolve a preset against marker labels and print the effective settings",
		Example: `  renderpresets apply demo --defaults --scene Shot010
  renderpresets apply draft --label '1. HD:[xy=2048x858, sp=1000, Rng=1-48]' --label '6. draft:[sp=25%]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all := append([]string{}, labels...)
			if defaults {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				for _, e := range preset.DefaultEntries(cfg.Defaults) {
					all = append(all, e.Label())
				}
				if !cmd.Flags().Changed("absolute") {
					absolute = cfg.Defaults.UseAbsolutePath
				}
			}

			state, err := preset.Apply(preset.DefaultRenderState(), args[0], preset.Collect(all), preset.ApplyOptions{
				SceneName:       sceneArg,
				UseAbsolutePath: absolute,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, state)
			}
			fmt.Fprintln(out, preset.CurrentLabel(preset.DisplayName(args[0]), state, absolute))
			fmt.Fprintln(out, renderTable(out, []string{"Setting", "Value"}, stateRows(state), []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&labels, "label", "l", nil, "Marker label (repeatable)")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Include the stock preset markers generated from the configured defaults")
	cmd.Flags().StringVar(&sceneArg, "scene", "Scene", "Scene name used in the output path")
	cmd.Flags().BoolVar(&absolute, "absolute", false, "Use the folder preset's absolute path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newDefaultsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the stock preset marker labels for the configured defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			for _, e := range preset.DefaultEntries(cfg.Defaults) {
				fmt.Fprintln(cmd.OutOrStdout(), e.Label())
			}
			return nil
		},
	}
}

func paramRows(params preset.Params) [][]string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, params[k]})
	}
	return rows
}

func stateRows(s preset.RenderState) [][]string {
	return [][]string{
		{"Resolution", fmt.Sprintf("%dx%d", s.ResolutionX, s.ResolutionY)},
		{"Resolution %", strconv.Itoa(s.ResolutionPercentage)},
		{"Samples", strconv.Itoa(s.Samples)},
		{"Frame range", fmt.Sprintf("%d-%d", s.FrameStart, s.FrameEnd)},
		{"Frame step", strconv.Itoa(s.FrameStep)},
		{"Output path", s.FilePath},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
