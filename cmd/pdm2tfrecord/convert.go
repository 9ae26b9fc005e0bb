// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdm2tfrecord/internal/catalog"
	"github.com/pdiddy/pdm2tfrecord/internal/convert"
	"github.com/pdiddy/pdm2tfrecord/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a PDM manifest into a TFRecord file",
	Long: `Convert reads a PDM manifest, and for every fully categorized image loads
the image from the images directory, converts its boxes to corner
coordinates, maps categories to class ids, and appends one tf.train.Example
to the output TFRecord file. Images that are not fully categorized are
skipped. Any error aborts the run.

Values may also come from pdm2tfrecord.yaml or PDM2TFRECORD_* environment
variables (for example PDM2TFRECORD_PDM_FILE).`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := conversionConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := convertWithCatalog(ctx, cfg, os.Stdout)
	return err
}

// conversionConfig assembles the run settings from viper, which layers
// flags over environment variables over the config file.
func conversionConfig() types.ConversionConfig {
	return types.ConversionConfig{
		ManifestPath: viper.GetString(types.KeyManifestPath),
		ImagesDir:    viper.GetString(types.KeyImagesDir),
		OutputPath:   viper.GetString(types.KeyOutputPath),
		LabelMapPath: viper.GetString(types.KeyLabelMap),
		Normalize:    viper.GetBool(types.KeyNormalize),
		MaxSide:      viper.GetInt(types.KeyMaxSide),
		JPEGQuality:  viper.GetInt(types.KeyJPEGQuality),
		CatalogPath:  viper.GetString(types.KeyCatalog),
	}
}

// convertWithCatalog runs the conversion, recording it in the run catalog
// when one is configured.
func convertWithCatalog(ctx context.Context, cfg types.ConversionConfig, w io.Writer) (convert.Summary, error) {
	if cfg.CatalogPath == "" {
		return convert.Run(ctx, cfg, nil, w)
	}

	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return convert.Summary{}, err
	}
	defer store.Close()

	run, err := store.BeginRun(ctx, cfg)
	if err != nil {
		return convert.Summary{}, err
	}

	summary, runErr := convert.Run(ctx, cfg, run, w)

	// The run outcome is stored even when ctx was cancelled.
	if err := run.Finish(context.Background(), summary, runErr); err != nil && runErr == nil {
		return summary, err
	}
	if runErr == nil {
		fmt.Fprintf(w, "Catalog run: %s\n", run.ID)
	}
	return summary, runErr
}

func init() {
	convertCmd.Flags().String("pdm-file", "", "path to the PDM manifest (.pdm JSON)")
	convertCmd.Flags().String("images-dir", "", "base directory that manifest image paths are relative to")
	convertCmd.Flags().String("output-path", "", "destination TFRecord file (overwritten)")
	convertCmd.Flags().Bool("normalize", false, "divide box coordinates by image width and height")
	convertCmd.Flags().String("label-map", "", "YAML label map replacing the built-in category table")
	convertCmd.Flags().Int("max-side", 0, "downscale images whose long side exceeds this many pixels (0 = never)")
	convertCmd.Flags().Int("jpeg-quality", types.DefaultJPEGQuality, "JPEG quality for downscaled images")
	convertCmd.Flags().String("catalog", "", "SQLite database recording runs and written records")

	for key, flag := range map[string]string{
		types.KeyManifestPath: "pdm-file",
		types.KeyImagesDir:    "images-dir",
		types.KeyOutputPath:   "output-path",
		types.KeyNormalize:    "normalize",
		types.KeyLabelMap:     "label-map",
		types.KeyMaxSide:      "max-side",
		types.KeyJPEGQuality:  "jpeg-quality",
		types.KeyCatalog:      "catalog",
	} {
		_ = viper.BindPFlag(key, convertCmd.Flags().Lookup(flag))
	}

	rootCmd.AddCommand(convertCmd)
}
