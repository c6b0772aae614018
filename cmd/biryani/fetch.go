package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/biryani-api/internal/config"
	"github.com/Brownie44l1/biryani-api/internal/model"
)

func fetchCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and cache the remote model",
		Long: `fetch runs the remote model strategy once so that later runs load the
cached copy. The cache is never refreshed on its own; use --force to forget
the cached path and download again.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Model.Strategy != config.StrategyRemote {
				return errors.New("fetch needs model.strategy set to remote")
			}

			out := cmd.OutOrStdout()
			comps, err := buildProvider(cmd.Context(), cfg, progressWriter(out))
			if err != nil {
				return err
			}
			defer comps.Close()

			if force {
				if err := comps.store.Delete(cmd.Context(), model.DescriptorPathKey); err != nil {
					return err
				}
			}

			handle, err := comps.provider.Acquire(cmd.Context())
			if err != nil {
				return err
			}
			defer handle.Close()

			path, err := comps.store.Get(cmd.Context(), model.DescriptorPathKey)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "model ready at %s (classes: %v)\n", path, handle.Metadata.Classes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "discard the cached model path and download again")
	return cmd
}

func progressWriter(out io.Writer) model.ProgressFunc {
	return func(name string, size int64) io.Writer {
		return progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("downloading "+name),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(out)
			}),
		)
	}
}
