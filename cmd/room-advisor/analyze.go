package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	roomadvisor "github.com/menta2k/room-advisor"
	"github.com/menta2k/room-advisor/internal/utils"
)

func newAnalyzeCmd(opts *globalOptions) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "analyze <file|dir>...",
		Short: "Analyze room photos and print suggestions as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := utils.CollectImages(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no image files found")
			}

			var advisorOpts []roomadvisor.Option
			if !quiet {
				bar := progressbar.NewOptions(len(files),
					progressbar.OptionSetDescription("Analyzing"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
				advisorOpts = append(advisorOpts, roomadvisor.WithProgress(func(string) {
					bar.Add(1)
				}))
			}

			advisor, err := roomadvisor.New(opts.cfg, advisorOpts...)
			if err != nil {
				return err
			}
			defer advisor.Close()

			resp, err := advisor.AnalyzeFiles(cmd.Context(), files)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}
