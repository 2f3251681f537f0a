package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/models"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/store"
)

var (
	exportAnnotator string
	exportOut       string
	exportFromLocal bool
)

// exportCmd downloads an annotator's records as JSONL
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export an annotator's records as JSON Lines",
	Long: `Export reads one annotator's persisted annotation records, from the
remote store by default or from the local store with --local, and writes
them as JSON Lines to a file or stdout.

Example:
  annotctl export --annotator annotator_01
  annotctl export --annotator annotator_02 --local -o out.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if _, err := models.AnnotatorIndex(exportAnnotator, cfg.Annotators.Count); err != nil {
			return err
		}

		logger := zap.NewNop()

		var anns []models.Annotation
		if exportFromLocal {
			anns, err = store.NewLocal(cfg.Storage.LocalDir, logger).ReadAll(exportAnnotator)
		} else {
			rs, rerr := remoteStore(cmd.Context(), cfg, logger)
			if rerr != nil {
				return rerr
			}
			anns, err = rs.ReadAll(cmd.Context(), exportAnnotator)
		}
		if err != nil {
			return err
		}

		data, err := store.EncodeJSONL(anns)
		if err != nil {
			return err
		}

		if exportOut == "" || exportOut == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %d records to %s\n", len(anns), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportAnnotator, "annotator", "", "annotator id (annotator_NN)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output path ('-' for stdout)")
	exportCmd.Flags().BoolVar(&exportFromLocal, "local", false, "read from the local store instead of Drive")
	_ = exportCmd.MarkFlagRequired("annotator")

	rootCmd.AddCommand(exportCmd)
}
