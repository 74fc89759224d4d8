package main

import (
	"encoding/json"
	"fmt"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/RTIInternational/hefs-fews-hub/archive"
	"github.com/RTIInternational/hefs-fews-hub/dashboard"
	"github.com/RTIInternational/hefs-fews-hub/model"
	"github.com/RTIInternational/hefs-fews-hub/source"
)

const AppID = "org.rti.hefs-dashboard"

func newRootCmd() *cobra.Command {
	flags := &flagValues{}

	root := &cobra.Command{
		Use:          "hefs-dashboard",
		Short:        "Download HEFS-FEWS standalone configurations and create launchers",
		Version:      version,
		SilenceUsage: true,
	}
	flags.register(root.PersistentFlags())

	dashboardCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the desktop dashboard (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, flags)
		},
	}
	root.RunE = dashboardCmd.RunE

	root.AddCommand(
		dashboardCmd,
		newInstallCmd(flags),
		newDownloadDataCmd(flags),
		newDownloadCmd(flags),
		newListCmd(flags),
		newInstallsCmd(flags),
		newExtractCmd(),
	)
	return root
}

func runDashboard(cmd *cobra.Command, flags *flagValues) error {
	svc, err := newServices(cmd.Context(), cmd, flags)
	if err != nil {
		return err
	}
	defer svc.Close()

	a := fyneapp.NewWithID(AppID)
	w := a.NewWindow(dashboard.Title)
	w.Resize(fyne.NewSize(dashboard.WindowWidth, dashboard.WindowHeight))

	d := dashboard.New(cmd.Context(), a, w, svc.service, svc.cfg.Fews.DownloadRoot, svc.log)

	// closing the window on SIGINT/SIGTERM lets deferred cleanup run
	go func() {
		<-cmd.Context().Done()
		fyne.Do(a.Quit)
	}()

	w.ShowAndRun()
	d.Wait()
	return nil
}

func parseRegionArg(args []string) (model.Region, error) {
	return model.ParseRegion(args[0])
}

func newInstallCmd(flags *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "install <RFC>",
		Short: "Download a region's configuration and create its start script and desktop shortcut",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			region, err := parseRegionArg(args)
			if err != nil {
				return err
			}
			svc, err := newServices(cmd.Context(), cmd, flags)
			if err != nil {
				return err
			}
			defer svc.Close()

			rec, err := svc.service.InstallConfiguration(cmd.Context(), region, svc.cfg.Fews.DownloadRoot)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %s\n  script:   %s\n  shortcut: %s\n", rec.Region, rec.ScriptPath, rec.ShortcutPath)
			return nil
		},
	}
}

func newDownloadDataCmd(flags *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "download-data <RFC>",
		Short: "Download a region's historical data into <root>/<RFC>/cardfiles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			region, err := parseRegionArg(args)
			if err != nil {
				return err
			}
			svc, err := newServices(cmd.Context(), cmd, flags)
			if err != nil {
				return err
			}
			defer svc.Close()

			stats, err := svc.service.DownloadHistoricalData(cmd.Context(), region, svc.cfg.Fews.DownloadRoot)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s historical data: %s\n", region, stats)
			return nil
		},
	}
}

func newDownloadCmd(flags *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "download <prefix> <dir>",
		Short: "Download every object under prefix into dir, keeping full keys as paths",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServices(cmd.Context(), cmd, flags)
			if err != nil {
				return err
			}
			defer svc.Close()

			stats, err := svc.downloader.DownloadDirectory(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

func newListCmd(flags *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "list [prefix]",
		Short: "List object keys under prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			svc, err := newServices(cmd.Context(), cmd, flags)
			if err != nil {
				return err
			}
			defer svc.Close()

			keys, err := source.ListKeys(cmd.Context(), svc.source, prefix)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func newInstallsCmd(flags *flagValues) *cobra.Command {
	var (
		asJSON bool
		forget string
	)
	cmd := &cobra.Command{
		Use:   "installs",
		Short: "Show recorded installs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServices(cmd.Context(), cmd, flags)
			if err != nil {
				return err
			}
			defer svc.Close()

			if forget != "" {
				region, err := model.ParseRegion(forget)
				if err != nil {
					return err
				}
				return svc.service.Forget(region)
			}

			recs, err := svc.service.Installed()
			if err != nil {
				return err
			}
			return printInstalls(cmd, recs, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")
	cmd.Flags().StringVar(&forget, "forget", "", "Remove the record of an RFC (files are kept)")
	return cmd
}

func printInstalls(cmd *cobra.Command, recs []model.InstallRecord, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "    ")
		return enc.Encode(recs)
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "No installs recorded")
		return nil
	}
	for _, r := range recs {
		fmt.Fprintf(out, "%-6s %s  %d files, %s, installed %s\n",
			r.Region, r.ConfigDir, r.Files, humanize.Bytes(uint64(r.Bytes)), humanize.Time(r.InstalledAt))
	}
	return nil
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <archive> <dir>",
		Short: "Unpack a zip, tar or tar.gz archive into dir and delete it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := archive.Extract(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %s to %s\n", args[0], args[1])
			return nil
		},
	}
}

