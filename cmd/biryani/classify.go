package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/biryani-api/internal/classifier"
	"github.com/Brownie44l1/biryani-api/internal/model"
	"github.com/Brownie44l1/biryani-api/internal/preprocess"
)

type classifyResult struct {
	Image string `json:"image"`
	Error string `json:"error,omitempty"`
	*model.PredictionResponse
}

func classifyCmd() *cobra.Command {
	var asJSON bool
	var transcode bool

	cmd := &cobra.Command{
		Use:   "classify <image>...",
		Short: "Classify one or more photos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("transcode") {
				transcode = cfg.Preprocess.Transcode
			}

			comps, err := buildProvider(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer comps.Close()

			handle, err := model.Load(cmd.Context(), comps.provider).Wait(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load the model: %w", err)
			}
			defer handle.Close()

			pre, err := preprocess.New(preprocess.ImageSize)
			if err != nil {
				return err
			}
			c := classifier.New(pre)

			failed := 0
			for _, path := range args {
				res := classifyResult{Image: path}
				pred, err := classifyFile(cmd, c, handle, path, transcode)
				if err != nil {
					failed++
					res.Error = err.Error()
					log.Error().Err(err).Str("image", path).Msg("classification failed")
				} else {
					res.PredictionResponse = pred.Response()
				}
				printResult(cmd.OutOrStdout(), res, pred, asJSON)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d images failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per image")
	cmd.Flags().BoolVar(&transcode, "transcode", true, "re-encode inputs as 224x224 JPEG first (default from config)")
	return cmd
}

func classifyFile(cmd *cobra.Command, c *classifier.Classifier, h *model.Handle, path string, transcode bool) (model.Prediction, error) {
	if !transcode {
		return c.Classify(cmd.Context(), path, h)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("failed to read image: %w", err)
	}
	data, err = preprocess.Transcode(data, preprocess.ImageSize)
	if err != nil {
		return model.Prediction{}, err
	}
	return c.ClassifyBytes(cmd.Context(), data, h)
}

func printResult(w io.Writer, res classifyResult, pred model.Prediction, asJSON bool) {
	if asJSON {
		_ = json.NewEncoder(w).Encode(res)
		return
	}
	if res.Error != "" {
		fmt.Fprintf(w, "%s: Failed to process the image %s\n", res.Image, res.Error)
		return
	}
	fmt.Fprintf(w, "%s: %s %s\n", res.Image, pred.Headline(), pred.Summary())
}
