package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/utilhub/nfequery/internal/artifact"
	"github.com/utilhub/nfequery/internal/certstore"
	"github.com/utilhub/nfequery/internal/danfe"
	"github.com/utilhub/nfequery/internal/dfe"
	"github.com/utilhub/nfequery/internal/store"
)

var (
	fingerprint string
	accessKey   string
	openView    bool
	download    bool
)

func newQueryCmd() *cobra.Command {
	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Query one fiscal document by access key",
		Long:  "Fetch the document identified by the access key from the distribution service, authenticating with the certificate identified by the fingerprint, and store the XML and rendered view",
		RunE:  runQuery,
	}

	queryCmd.Flags().StringVarP(&fingerprint, "fingerprint", "f", "", "Certificate fingerprint (SHA-1, with or without colons) [required]")
	queryCmd.Flags().StringVarP(&accessKey, "key", "k", "", "44-digit document access key [required]")
	queryCmd.Flags().BoolVar(&openView, "open", false, "Open the rendered view in the default browser")
	queryCmd.Flags().BoolVar(&download, "download", false, "Copy the rendered view into the Downloads directory")
	queryCmd.MarkFlagRequired("fingerprint")
	queryCmd.MarkFlagRequired("key")

	return queryCmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	artifacts, err := artifact.NewStore(cfg.ArtifactDir, appLogger)
	if err != nil {
		return err
	}

	recorder := newRecorder(cmd.Context())
	defer recorder.Close()

	service := dfe.NewService(
		certstore.NewFileStore(cfg.CertDir),
		dfe.NewClient(cfg.DistributionEndpoint, cfg.ExchangeTimeout, appLogger),
		artifacts,
		recorder,
		cfg.TPAmb,
		appLogger,
	)

	result, err := service.Query(cmd.Context(), fingerprint, accessKey)
	if err != nil {
		return err
	}

	doc := result.Document
	fmt.Printf("✓ Document located: NF-e %s series %s\n", doc.Number, doc.Series)
	fmt.Printf("  Issuer: %s (%s)\n", doc.Issuer.Name, danfe.FormatTaxID(doc.Issuer.TaxID))
	fmt.Printf("  Total:  R$ %s (%d items)\n", doc.Totals.GrandTotal, len(doc.Items))
	fmt.Printf("✓ XML:  %s\n", result.Artifacts.XMLPath)
	fmt.Printf("✓ View: %s\n", result.Artifacts.HTMLPath)

	if download {
		dest, err := downloadView(result.Artifacts.HTMLPath, doc.AccessKey)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Saved: %s\n", dest)
	}

	if openView {
		if err := openInBrowser(result.Artifacts.HTMLPath); err != nil {
			return fmt.Errorf("failed to open the rendered view: %w", err)
		}
	}

	return nil
}

// newRecorder connects the audit store when a database is configured,
// otherwise auditing is disabled. A connection failure downgrades to the
// no-op recorder so an unreachable database never blocks a query.
func newRecorder(ctx context.Context) store.Recorder {
	if cfg.DatabaseURL == "" {
		return store.NewNop()
	}
	recorder, err := store.NewPostgresRecorder(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Warn("query audit disabled", "error", err)
		return store.NewNop()
	}
	return recorder
}

// downloadView copies the rendered view into the Downloads directory under a
// stable, human-recognizable name.
func downloadView(htmlPath, key string) (string, error) {
	short := key
	if len(short) > 20 {
		short = short[:20]
	}
	dest := filepath.Join(userDownloadsDir(), fmt.Sprintf("DANFE_%s.html", short))

	data, err := os.ReadFile(htmlPath)
	if err != nil {
		return "", fmt.Errorf("failed to read rendered view: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("failed to create downloads directory: %w", err)
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save rendered view: %w", err)
	}
	return dest, nil
}

func openInBrowser(path string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path).Start()
	default:
		return exec.Command("xdg-open", path).Start()
	}
}
