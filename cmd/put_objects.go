package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theapemachine/s3flow/logger"
	"github.com/theapemachine/s3flow/storage"
	"github.com/theapemachine/s3flow/upsert"
)

var (
	objectsFile      string
	objectsAlways    bool
	objectsParallel  int
	objectsPrintJSON bool
)

/*
putObjectsCmd uploads a batch described by a JSON array. Every object is
probed first (in parallel up to --parallel), then the changed ones are
uploaded one at a time in input order.
*/
var putObjectsCmd = &cobra.Command{
	Use:   "put-objects",
	Short: "Upload a batch of objects, skipping the ones that are unchanged",
	Long: `Upload a batch of objects from a JSON array of
{bucket, key, body, contentType, contentEncoding, acl, metadata} items.

The whole batch is validated before anything is sent. The first failed
upload stops the batch; the objects written before it stay written.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if objectsFile == "" {
			return fmt.Errorf("the batch must be given with --objects")
		}
		cfg.SetConcurrency(objectsParallel)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, objectsFile)
		if err != nil {
			return err
		}

		candidates, err := upsert.CandidatesFrom(data)
		if err != nil {
			return err
		}
		if err := upsert.ValidateBatch(candidates); err != nil {
			return err
		}
		for _, candidate := range candidates {
			if err := checkCandidate(candidate); err != nil {
				return err
			}
		}

		logger.Info("Starting batch upload",
			"objects", len(candidates),
			"parallel", cfg.Concurrency,
			"conditional", !objectsAlways)

		ctx, cancel := requestContext(cmd)
		defer cancel()

		log := logger.WithComponent("put-objects")

		var result *upsert.BatchResult
		err = storage.Use(ctx, storage.NewOpener(cfg), func(session storage.Session) (err error) {
			engine := upsert.NewEngine(session,
				upsert.WithRecorder(recorder),
				upsert.WithConcurrency(cfg.Concurrency),
				upsert.WithStrictProbe(cfg.StrictProbe),
				upsert.WithProgress(func(stage upsert.Stage, done, total int) {
					log.Debug("Progress", "stage", stage, "done", done, "total", total)
				}),
			)
			result, err = engine.UploadBatch(ctx, candidates, !objectsAlways)
			return err
		})

		if result != nil {
			printBatchReport(result)
			if objectsPrintJSON {
				if perr := printJSON(cmd.OutOrStdout(), result); perr != nil {
					return errors.Join(err, perr)
				}
			}
		}

		if err != nil {
			return fmt.Errorf("batch upload stopped: %w", err)
		}
		return nil
	},
}

// printBatchReport logs one line per processed object and a summary
func printBatchReport(result *upsert.BatchResult) {
	logger.Info("===== Batch Upload Report =====")

	for _, outcome := range result.Outcomes {
		fields := []any{"status", outcome.Status}

		switch {
		case outcome.Err != nil:
			fields = append(fields, "error", outcome.Err)
		case outcome.Result != nil:
			fields = append(fields, "etag", outcome.Result.ETag)
			if outcome.Result.VersionID != "" {
				fields = append(fields, "version", outcome.Result.VersionID)
			}
		}

		logger.Info(fmt.Sprintf("Object: %s", outcome.Key), fields...)
	}

	summary := result.Summary()
	logger.Info("Summary",
		"total", summary.Total,
		"uploaded", summary.Uploaded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"not_reached", summary.Total-len(result.Outcomes),
		"bytes", summary.Bytes,
		"unchanged", result.Unchanged)
}

func init() {
	rootCmd.AddCommand(putObjectsCmd)

	putObjectsCmd.Flags().StringVarP(&objectsFile, "objects", "o", "", "JSON array of objects: a file path, - for stdin, or the JSON itself")
	putObjectsCmd.Flags().BoolVar(&objectsAlways, "always", false, "upload every object without probing")
	putObjectsCmd.Flags().IntVar(&objectsParallel, "parallel", 0, "maximum number of concurrent probes (defaults to UPSERT_CONCURRENCY)")
	putObjectsCmd.Flags().BoolVar(&objectsPrintJSON, "json", false, "print the batch result as JSON")
}
