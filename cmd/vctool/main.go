package main

import (
	"fmt"
	"os"

	"github.com/fpawel/vctool/internal/api"
	"github.com/fpawel/vctool/internal/calc"
	"github.com/fpawel/vctool/internal/config"
	"github.com/fpawel/vctool/internal/ledger"
	"github.com/fpawel/vctool/internal/pkg"
	"github.com/fpawel/vctool/internal/pkg/must"
	"github.com/fpawel/vctool/internal/script"
	"github.com/fpawel/vctool/internal/xlsxout"
	"github.com/powerman/structlog"
	"github.com/spf13/cobra"
)

var log = structlog.New()

func main() {
	pkg.InitLog()

	rootCmd := &cobra.Command{
		Use:   "vctool",
		Short: "virtual condition calculator for position toleranced features",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	rootCmd.AddCommand(computeCmd(), runCmd(), serveCmd())

	if err := rootCmd.Execute(); err != nil {
		if os.Getenv("VCTOOL_DEBUG") != "" {
			pkg.PrintMerryStacktrace(log, err)
		}
		os.Exit(1)
	}
}

func computeCmd() *cobra.Command {
	var raw calc.RawInput
	var feature string

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Preview virtual condition values for one feature",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := calc.ParseFeatureType(feature)
			if err != nil {
				return err
			}
			raw.Feature = t
			in, err := calc.ParseInput(raw)
			if err != nil {
				return err
			}
			res, err := calc.Compute(in)
			if err != nil {
				return err
			}
			fmt.Printf("MMC size: %.3f\n", res.MMC)
			fmt.Printf("VC @ 75%%: %.3f\n", res.VC75)
			fmt.Printf("VC @ 80%%: %.3f\n", res.VC80)
			fmt.Printf("VC @ 90%%: %.3f\n", res.VC90)
			fmt.Printf("VC @ 100%%: %.3f\n", res.VC100)
			return nil
		},
	}
	cmd.Flags().StringVar(&raw.Nominal, "nominal", "", "nominal size")
	cmd.Flags().StringVar(&raw.Upper, "upper", "", "upper limit (+)")
	cmd.Flags().StringVar(&raw.Lower, "lower", "", "lower limit (-)")
	cmd.Flags().StringVar(&raw.Tolerance, "tolerance", "", "position tolerance")
	cmd.Flags().StringVar(&feature, "type", "pin", "feature type: pin or hole")
	return cmd
}

func runCmd() *cobra.Command {
	var exportFile string

	cmd := &cobra.Command{
		Use:   "run <script.lua>",
		Short: "Run a Lua script over a fresh ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lgr, err := ledger.New()
			if err != nil {
				return err
			}
			defer func() { log.ErrIfFail(lgr.Close) }()
			if err := script.Run(args[0], lgr); err != nil {
				return err
			}
			if exportFile == "" {
				return nil
			}
			// export whatever the script left in the ledger
			t, err := lgr.Export()
			if err != nil {
				return err
			}
			return xlsxout.Write(exportFile, t)
		},
	}
	cmd.Flags().StringVarP(&exportFile, "output", "o", "", "export remaining entries to this .xlsx or .csv file")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the presentation API for an external GUI",
		RunE: func(cmd *cobra.Command, args []string) error {
			var sets config.Settings
			must.PanicIf(sets.Open())
			if addr != "" {
				sets.Addr = addr
			}
			lgr, err := ledger.New()
			if err != nil {
				return err
			}
			defer func() { log.ErrIfFail(lgr.Close) }()
			return api.New(lgr, sets.ExportFile).Run(sets.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides settings.yaml)")
	return cmd
}
