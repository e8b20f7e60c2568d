package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/irpress/kavosh/internal/config"
	"github.com/irpress/kavosh/internal/fetch"
	"github.com/irpress/kavosh/internal/log"
	"github.com/irpress/kavosh/internal/security"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download a single PDF with verification and retries",
		Long: `Fetch downloads one PDF through the same pipeline harvest uses: the
URL passes the security gate, the response is verified to be a PDF, the
download is retried with backoff on transient failures, and the file
digest is printed on success. An existing file at the destination is
never touched.`,
		Example: `  kavosh fetch https://archive.example.ir/neshat/1377/01.pdf -o neshat_001.pdf
  kavosh fetch --retries 5 --timeout 10m https://archive.example.ir/big.pdf -o big.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: runFetch,
	}

	cmd.Flags().StringP("output", "o", "", "Destination path for the downloaded file")
	cmd.Flags().Int64("max-size", config.DefaultMaxFileSize, "Maximum file size in bytes")
	cmd.Flags().Int("retries", config.DefaultMaxRetries, "Retry attempts for transient failures")
	cmd.Flags().Duration("timeout", config.DefaultFetchTimeout, "Timeout for the whole download")

	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	rawURL := args[0]

	dest, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	if dest == "" {
		// Default to the URL's base name in the working directory.
		dest = path.Base(rawURL)
		if dest == "." || dest == "/" || dest == "" {
			return fmt.Errorf("cannot derive a file name from %s, use --output", rawURL)
		}
	}

	maxSize, err := cmd.Flags().GetInt64("max-size")
	if err != nil {
		return fmt.Errorf("failed to get max-size flag: %w", err)
	}
	retries, err := cmd.Flags().GetInt("retries")
	if err != nil {
		return fmt.Errorf("failed to get retries flag: %w", err)
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return fmt.Errorf("failed to get timeout flag: %w", err)
	}
	verbose := getVerboseFlag(cmd)

	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	fetcher := fetch.NewFetcher(security.NewGate(logger),
		fetch.WithMaxFileSize(maxSize),
		fetch.WithMaxRetries(retries),
		fetch.WithTimeout(timeout),
		fetch.WithLogger(logger),
	)

	res, err := fetcher.Download(ctx, rawURL, dest)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	printFetchResult(cmd.OutOrStdout(), res)
	return nil
}

func printFetchResult(out io.Writer, res *fetch.Result) {
	if res.AlreadyExists {
		fmt.Fprintf(out, "Already exists: %s (%d bytes)\n", res.Path, res.Bytes)
		return
	}

	fmt.Fprintf(out, "Downloaded %s\n", res.Path)
	fmt.Fprintf(out, "  Size:     %d bytes\n", res.Bytes)
	fmt.Fprintf(out, "  Digest:   %s\n", res.Digest)
	fmt.Fprintf(out, "  Attempts: %d\n", res.Attempts)
	if res.Metadata != nil {
		if res.Metadata.Title != "" {
			fmt.Fprintf(out, "  Title:    %s\n", res.Metadata.Title)
		}
		if res.Metadata.Author != "" {
			fmt.Fprintf(out, "  Author:   %s\n", res.Metadata.Author)
		}
		if res.Metadata.Producer != "" {
			fmt.Fprintf(out, "  Producer: %s\n", res.Metadata.Producer)
		}
	}
}
