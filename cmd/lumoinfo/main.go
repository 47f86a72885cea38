// Diagnostic tool for inspecting lumo containers.
package main

import (
	"fmt"
	"os"

	logging "github.com/op/go-logging"
	"github.com/spf13/cobra"

	"github.com/opennirs/lumofile/lumo"
)

func main() {
	var noData bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "lumoinfo <dir>",
		Short: "Print the topology and stream parameters of a lumo container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := logging.WARNING
			if verbose {
				level = logging.DEBUG
			}
			logging.SetLevel(level, "lumofile")

			opts := []lumo.LoadOption{}
			if noData {
				opts = append(opts, lumo.WithoutIntensity())
			}

			rec, err := lumo.Load(args[0], opts...)
			if err != nil {
				return err
			}
			describe(rec)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().BoolVar(&noData, "no-data", false, "skip the intensity stream")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "lumoinfo: %v\n", err)
		os.Exit(1)
	}
}

func describe(rec *lumo.Recording) {
	fmt.Printf("container: %s (format %d.%d.%d)\n", rec.Dir,
		rec.FormatVersion[0], rec.FormatVersion[1], rec.FormatVersion[2])

	hub := rec.Enumeration.Hub
	fmt.Println("hub:")
	printIfSet("  firmware", hub.FirmwareVersion)
	printIfSet("  hardware", hub.HardwareVersion)
	printIfSet("  serial", hub.SerialNumber)
	printIfSet("  uid", hub.HardwareUID)

	for _, g := range rec.Enumeration.Groups {
		fmt.Printf("group %s: %d tiles, %d channels\n", g.UID, len(g.Nodes), len(g.Channels))
		for _, n := range g.Nodes {
			fmt.Printf("  tile %d: uid=%s rev=%d fw=%s optodes=", n.ID, n.UID, n.Revision, n.FirmwareVersion)
			for _, o := range n.Optodes {
				fmt.Print(o.Name)
			}
			fmt.Println()
		}
	}

	if rec.Layout != nil {
		fmt.Printf("layout %s: %d tile positions\n", rec.Layout.UID, len(rec.Layout.Nodes))
	}
	if rec.Events != nil {
		fmt.Printf("events: %d\n", len(rec.Events))
	}
	if rec.Data != nil {
		fmt.Printf("data: %d channels x %d frames at %g Hz (%d frames filled)\n",
			rec.Data.ChannelCount, rec.Data.FrameCount, rec.Data.FrameRate, rec.Data.FilledFrames)
	}
}

func printIfSet(label, value string) {
	if value != "" {
		fmt.Printf("%s: %s\n", label, value)
	}
}
