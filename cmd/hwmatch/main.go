// Command hwmatch drives the synthesis pipeline end to end, mirroring
// cmd/sentra/main.go's subcommand-with-aliases CLI shape but built on
// cobra rather than a hand-rolled os.Args switch (see SPEC_FULL.md's
// DOMAIN STACK for why: the pack's oisee/z80-optimizer, a tool in this
// same instruction-pattern-optimization family, makes the same choice
// once a CLI grows past one or two flagged subcommands).
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hwmatch/hwmatch/internal/encoder"
	"github.com/hwmatch/hwmatch/internal/lowering"
	"github.com/hwmatch/hwmatch/internal/matchersynth"
	"github.com/hwmatch/hwmatch/internal/pdlinterp"
	"github.com/hwmatch/hwmatch/internal/switchify"
)

var (
	encodingPath  string
	operationPath string
	unitName      string
)

func main() {
	root := &cobra.Command{
		Use:   "hwmatch",
		Short: "Synthesize hardware pattern-matching units from interpreter-form patterns",
	}

	synthCmd := &cobra.Command{
		Use:     "synth",
		Aliases: []string{"s"},
		Short:   "Run the four-stage synthesis pipeline over a pattern and report the result",
		RunE:    runSynth,
	}
	synthCmd.Flags().StringVar(&encodingPath, "encoding", "", "path to an EncodingContext JSON file (defaults to a built-in demonstration encoding)")
	synthCmd.Flags().StringVar(&operationPath, "operations", "", "path to an OperationContext JSON file (defaults to a built-in demonstration catalog)")
	synthCmd.Flags().StringVar(&unitName, "name", "", "symbol name for the generated module/FSM (defaults to matcher_ followed by a generated uuid)")

	versionCmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print the hwmatch version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("hwmatch synthesizer")
		},
	}

	root.AddCommand(synthCmd, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSynth(cmd *cobra.Command, args []string) error {
	enc, err := loadEncodingContext(encodingPath)
	if err != nil {
		return fmt.Errorf("loading encoding context: %w", err)
	}
	opCtx, err := loadOperationContext(operationPath)
	if err != nil {
		return fmt.Errorf("loading operation context: %w", err)
	}

	name := unitName
	if name == "" {
		name = "matcher_" + uuid.NewString()
	}

	// No textual pattern-IR parser exists in this repository (patterns
	// arrive as pdlinterp.Region values built by the caller, per spec
	// §6's single entry point); this demonstration builds the "trivial
	// single-op match" seed scenario from spec.md §8.
	region := demonstrationPattern()

	switchify.Normalize(region)

	unit, err := matchersynth.GenerateMatcherUnit(region, enc, name)
	if err != nil {
		return fmt.Errorf("synthesizing matcher unit: %w", err)
	}

	if err := lowering.LowerMatcherUnit(unit, enc, opCtx); err != nil {
		return fmt.Errorf("lowering matcher unit: %w", err)
	}

	report(unit)
	return nil
}

func demonstrationPattern() *pdlinterp.Region {
	builder := pdlinterp.NewBuilder()

	entry := pdlinterp.NewBlock("entry")
	root := entry.AddArg(pdlinterp.OperationKind, "root", builder)

	matched := pdlinterp.NewBlock("matched")
	failed := pdlinterp.NewBlock("failed")

	entry.SetTerminator(pdlinterp.NewIsNotNull(root, matched, failed))
	matched.SetTerminator(pdlinterp.NewRecordMatch())
	failed.SetTerminator(pdlinterp.NewFinalize())

	return pdlinterp.NewRegion(entry, matched, failed)
}

func report(unit *matchersynth.MatcherUnit) {
	log.Printf("module %s: %d inputs, %d outputs, %d body nodes", unit.Module.Name, len(unit.Module.Inputs), len(unit.Module.Outputs), len(unit.Module.Body))
	for _, port := range unit.Module.Inputs {
		log.Printf("  in  %s : %s", port.Name, port.Type)
	}
	for _, port := range unit.Module.Outputs {
		log.Printf("  out %s : %s", port.Name, port.Type)
	}
	log.Printf("fsm %s: %d states, initial=%s", unit.Fsm.Name, len(unit.Fsm.States), unit.Fsm.Initial)
}

func loadEncodingContext(path string) (encoder.EncodingContext, error) {
	if path == "" {
		return encoder.EncodingContext{OpcodeWidth: 8, OperandOffsetWidth: 8, MaxOperandAmount: 2}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return encoder.EncodingContext{}, err
	}
	return encoder.ParseEncodingContext(data)
}

func loadOperationContext(path string) (encoder.OperationContext, error) {
	if path == "" {
		return encoder.OperationContext{Operations: map[string]encoder.OperationInfo{
			"demo.op": {Opcode: 1},
		}}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return encoder.OperationContext{}, err
	}
	return encoder.ParseOperationContext(data)
}
