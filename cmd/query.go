package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/firewatch/internal/model"
	"github.com/sells-group/firewatch/internal/refresh"
	"github.com/sells-group/firewatch/internal/summary"
)

// -- refresh --

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Replace the stored snapshot with the current source file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Service.Refresh(ctx)
		if err != nil {
			return eris.Wrap(err, "refresh")
		}
		formatRefresh(cmd.OutOrStdout(), res)
		return nil
	},
}

// -- summary --

var summaryLimit int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Refresh and print the most intense detections",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		limit := summaryLimit
		if limit == 0 {
			limit = cfg.Summary.Limit
		}
		text, err := env.Service.Summarize(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "summary")
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

// -- fires --

var firesLimit int

var firesCmd = &cobra.Command{
	Use:   "fires",
	Short: "Refresh and list detections by descending brightness",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.Service.Snapshot(ctx, firesLimit)
		if err != nil {
			return eris.Wrap(err, "fires")
		}
		formatFires(cmd.OutOrStdout(), records)
		return nil
	},
}

// -- region --

var regionCmd = &cobra.Command{
	Use:   "region <name>",
	Short: "Summarize detections within a U.S. state",
	Long:  "Summarizes the stored snapshot within one region of the boundary file. Run refresh first for current data.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		text, err := env.Service.SummarizeRegion(ctx, args[0])
		if err != nil {
			msg, ok := env.Service.RegionMessage(err)
			if !ok {
				return eris.Wrap(err, "region")
			}
			text = msg
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

// -- regions --

var regionsNames bool

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Show detection counts for every region",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if regionsNames {
			names, err := env.Service.RegionNames()
			if err != nil {
				if msg, ok := env.Service.RegionMessage(err); ok {
					fmt.Fprintln(cmd.ErrOrStderr(), msg)
					return nil
				}
				return eris.Wrap(err, "regions")
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		}

		stats, err := env.Service.RegionStats(ctx)
		if err != nil {
			if msg, ok := env.Service.RegionMessage(err); ok {
				fmt.Fprintln(cmd.ErrOrStderr(), msg)
				return nil
			}
			return eris.Wrap(err, "regions")
		}
		formatRegionStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

func init() {
	summaryCmd.Flags().IntVar(&summaryLimit, "limit", 0, "number of detections to list (default from config)")
	firesCmd.Flags().IntVar(&firesLimit, "limit", 0, "max detections to list (0 lists all)")
	regionsCmd.Flags().BoolVar(&regionsNames, "names", false, "list region names only")

	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(firesCmd)
	rootCmd.AddCommand(regionCmd)
	rootCmd.AddCommand(regionsCmd)
}

// formatRefresh writes a one-line refresh report to out.
func formatRefresh(out io.Writer, res refresh.Result) {
	_, _ = fmt.Fprintf(out, "Stored %d fires (%d read, %d dropped) in %s [%s]\n",
		res.Stored, res.Read, res.Dropped, res.Duration, res.ID)
}

// formatFires writes a tabular list of detections to out.
func formatFires(out io.Writer, records []model.FireRecord) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, summary.NoActiveMessage)
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LAT\tLON\tBRIGHTNESS\tCONFIDENCE\tDATE\tSATELLITE")
	_, _ = fmt.Fprintln(w, "---\t---\t----------\t----------\t----\t---------")
	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%.3f\t%.3f\t%.1f\t%.0f\t%s\t%s\n",
			r.Latitude, r.Longitude, r.Brightness, r.Confidence, r.AcqDate, r.Satellite)
	}
	_ = w.Flush()
}

// formatRegionStats writes per-region counts and averages to out. Regions
// without detections are left out of the table and counted in a footer.
func formatRegionStats(out io.Writer, stats []model.RegionStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "REGION\tFIRES\tAVG_BRIGHTNESS\tAVG_CONFIDENCE")
	_, _ = fmt.Fprintln(w, "------\t-----\t--------------\t--------------")

	var quiet int
	for _, s := range stats {
		if s.Count == 0 {
			quiet++
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\n", s.Name, s.Count, s.AvgBrightness, s.AvgConfidence)
	}
	_ = w.Flush()

	if quiet > 0 {
		_, _ = fmt.Fprintf(out, "%d regions with no active fires\n", quiet)
	}
}
