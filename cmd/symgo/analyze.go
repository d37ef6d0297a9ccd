package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"symgo/config"
	"symgo/fixpoint"
	"symgo/heap"
	"symgo/internal/clir"
	"symgo/internal/cltype"
	"symgo/plot"
	"symgo/transfer"
)

func newAnalyzeCmd() *cobra.Command {
	var configPath string
	var dotPath string

	cmd := &cobra.Command{
		Use:   "analyze <fixture.json>",
		Short: "Run the fixed-point shape analysis over a JSON IR fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], configPath, dotPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file (default: built-in defaults)")
	cmd.Flags().StringVar(&dotPath, "dot", "", "directory to write one DOT graph per function's final state (optional)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, fixturePath, configPath, dotPath string) error {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	prog, err := LoadProgram(fixturePath)
	if err != nil {
		return err
	}
	log.WithField("file", prog.File).WithField("functions", len(prog.Functions)).Info("symgo: loaded fixture")

	types := cltype.NewTable(cltype.StrictPointers)
	env := transfer.NewEnv(types)

	ctx := context.Background()
	if cfg.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Budget)
		defer cancel()
	}

	mkEntry := func(fn *clir.Function, types *cltype.Table) []*heap.Heap {
		return []*heap.Heap{entryHeap(fn, types, env)}
	}
	tf := func(ctx context.Context, h *heap.Heap, bb *clir.Block) (map[*clir.Block][]*heap.Heap, error) {
		return transfer.Block(ctx, env, h, bb)
	}

	opts := fixpoint.Options{WideningThreshold: cfg.EffectiveThreshold(), Logger: log}
	results, err := fixpoint.AnalyzeAll(ctx, prog, mkEntry, tf, types, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, res := range results {
		if err := reportResult(out, res); err != nil {
			return err
		}
		if dotPath != "" {
			if err := writeDOT(dotPath, res); err != nil {
				return err
			}
		}
	}
	return nil
}

func entryHeap(fn *clir.Function, types *cltype.Table, env *transfer.Env) *heap.Heap {
	h := heap.New(types)
	ptrType := types.Pointer(env.IntType, 8)
	for _, arg := range fn.Args {
		// Each parameter starts out an opaque, uninitialized pointer-sized
		// slot: RootCreate already leaves new scalars at VAL_UNINITIALIZED,
		// so there is nothing further to seed here.
		if _, err := h.RootCreate(ptrType, arg.UID, 0, true); err != nil {
			continue
		}
	}
	return h
}

func reportResult(w io.Writer, res *fixpoint.Result) error {
	if _, err := fmt.Fprintf(w, "== %s ==\n", res.Func.Name); err != nil {
		return err
	}
	defects := res.Sink.Defects()
	if len(defects) == 0 {
		_, err := fmt.Fprintln(w, "  no defects found")
		return err
	}
	for _, d := range defects {
		if _, err := fmt.Fprintf(w, "  %s\n", d.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeDOT(dir string, res *fixpoint.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, bb := range res.Func.Blocks {
		for i, h := range res.States.Heaps(bb) {
			name := fmt.Sprintf("%s/%s_%s_%d_%d.dot", dir, res.Func.Name, bb.Label, i, plot.NextID())
			f, err := os.Create(name)
			if err != nil {
				return err
			}
			err = plot.DOT(h, f)
			f.Close()
			if err != nil {
				return err
			}
		}
	}
	return nil
}
