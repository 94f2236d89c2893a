package cmd

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/theapemachine/s3flow/logger"
	"github.com/theapemachine/s3flow/nodes"
	"github.com/theapemachine/s3flow/storage"
	"github.com/theapemachine/s3flow/upsert"
)

var (
	putBucket          string
	putKey             string
	putFile            string
	putBody            string
	putContentType     string
	putContentEncoding string
	putACL             string
	putMetadata        string
	putUnconditional   bool
)

/*
putCmd uploads one object. By default the upload is conditional: when the
stored object already has the same MD5 ETag nothing is written.
*/
var putCmd = &cobra.Command{
	Use:   "put",
	Short: "Upload one object, skipping it when the stored copy is identical",
	Long: `Upload one object to a bucket. The body comes from --file or --body.

Unless --always is given, the object is probed first and the upload is
skipped when the stored ETag matches the MD5 digest of the new body.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		candidate, err := putCandidate()
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		var outcome *upsert.Outcome
		err = storage.Use(ctx, storage.NewOpener(cfg), func(session storage.Session) error {
			engine := upsert.NewEngine(session,
				upsert.WithRecorder(recorder),
				upsert.WithStrictProbe(cfg.StrictProbe),
			)
			outcome = engine.Upload(ctx, candidate, !putUnconditional)
			return outcome.Err
		})
		if err != nil {
			return fmt.Errorf("put %s/%s: %w", candidate.Bucket, candidate.Key, err)
		}

		logger.Info("Put finished", "bucket", candidate.Bucket, "key", candidate.Key, "status", outcome.Status)
		return printJSON(cmd.OutOrStdout(), outcome)
	},
}

func putCandidate() (*upsert.Candidate, error) {
	var body []byte

	switch {
	case putFile != "" && putBody != "":
		return nil, fmt.Errorf("--file and --body cannot be combined")
	case putFile != "":
		data, err := os.ReadFile(putFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", putFile, err)
		}
		body = data
	default:
		body = []byte(putBody)
	}

	key := putKey
	if key == "" && putFile != "" {
		key = filepath.Base(putFile)
	}

	contentType := putContentType
	if contentType == "" && putFile != "" {
		contentType = mime.TypeByExtension(filepath.Ext(putFile))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	candidate := &upsert.Candidate{
		Bucket:          putBucket,
		Key:             key,
		Body:            body,
		ContentType:     contentType,
		ContentEncoding: putContentEncoding,
		ACL:             putACL,
	}

	if putMetadata != "" {
		metadata, err := upsert.MetadataFrom(putMetadata)
		if err != nil {
			return nil, err
		}
		candidate.Metadata = metadata
	}

	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	if err := checkCandidate(candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// checkCandidate applies the header checks the put nodes apply
func checkCandidate(candidate *upsert.Candidate) error {
	if candidate.ContentEncoding != "" && !nodes.ValidContentEncoding(candidate.ContentEncoding) {
		return fmt.Errorf("%s: unknown content encoding %s", candidate.Key, candidate.ContentEncoding)
	}
	if candidate.ACL != "" && !nodes.ValidACL(candidate.ACL) {
		return fmt.Errorf("%s: invalid ACL permissions value %s", candidate.Key, candidate.ACL)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(putCmd)

	putCmd.Flags().StringVarP(&putBucket, "bucket", "b", "", "target bucket")
	putCmd.Flags().StringVarP(&putKey, "key", "k", "", "object key (defaults to the file name)")
	putCmd.Flags().StringVarP(&putFile, "file", "f", "", "file holding the body")
	putCmd.Flags().StringVar(&putBody, "body", "", "body given inline")
	putCmd.Flags().StringVar(&putContentType, "content-type", "", "content type (guessed from the file extension when empty)")
	putCmd.Flags().StringVar(&putContentEncoding, "content-encoding", "", "content encoding")
	putCmd.Flags().StringVar(&putACL, "acl", "", "canned ACL")
	putCmd.Flags().StringVar(&putMetadata, "metadata", "", "user metadata as a JSON object")
	putCmd.Flags().BoolVar(&putUnconditional, "always", false, "upload without probing the stored object")
	_ = putCmd.MarkFlagRequired("bucket")
}
