package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/BruceWind/HysteriaClientDocker/internal/clientcfg"
	"github.com/BruceWind/HysteriaClientDocker/internal/common/fsutil"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("hy2conf failed")
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var (
		output   string
		urlsFile string
		outDir   string
	)

	root := &cobra.Command{
		Use:           "hy2conf [hysteria2://... URL]",
		Short:         "Translate hysteria2:// share URLs into client config YAML files",
		Example:       "  hy2conf -o fast.yaml 'hysteria2://pass@host:443?sni=example.com#fast'\n  hy2conf --batch -f urls.txt -d ./configs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, _ := cmd.Flags().GetBool("batch")
			if batch || urlsFile != "" {
				if urlsFile == "" {
					return fmt.Errorf("batch mode needs a URL file (-f)")
				}
				return runBatch(urlsFile, outDir)
			}
			if len(args) != 1 {
				return fmt.Errorf("exactly one share URL required (or use --batch with -f)")
			}
			return runSingle(args[0], output)
		},
	}

	root.Flags().StringVarP(&output, "output", "o", "", "Output YAML path (single mode; default <name>.yaml)")
	root.Flags().StringVarP(&urlsFile, "file", "f", "", "File with one share URL per line (batch mode)")
	root.Flags().StringVarP(&outDir, "dir", "d", ".", "Output directory for batch mode")
	root.Flags().Bool("batch", false, "Translate every URL in the file given with -f")
	return root
}

func runSingle(raw, output string) error {
	cfg, err := clientcfg.ParseShareURL(raw)
	if err != nil {
		return err
	}
	if output == "" {
		output = clientcfg.SanitizeName(cfg.Name) + ".yaml"
	}
	if err := cfg.WriteFile(output); err != nil {
		return err
	}
	log.Info().Str("name", cfg.Name).Str("path", output).Msg("config written")
	return nil
}

// runBatch translates every URL in the file, skipping blanks and #comments.
// Bad lines are logged and skipped; the run only fails when nothing at all
// could be translated.
func runBatch(urlsFile, outDir string) error {
	path, err := fsutil.ExpandHome(urlsFile)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	var written, failed int
	sc := bufio.NewScanner(f)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cfg, err := clientcfg.ParseShareURL(line)
		if err != nil {
			log.Warn().Int("line", lineNo).Err(err).Msg("skipping bad share URL")
			failed++
			continue
		}
		out := filepath.Join(outDir, clientcfg.SanitizeName(cfg.Name)+".yaml")
		if err := cfg.WriteFile(out); err != nil {
			log.Warn().Int("line", lineNo).Err(err).Msg("skipping unwritable config")
			failed++
			continue
		}
		log.Info().Str("name", cfg.Name).Str("path", out).Msg("config written")
		written++
	}
	if err := sc.Err(); err != nil {
		return err
	}
	log.Info().Int("written", written).Int("failed", failed).Msg("batch finished")
	if written == 0 {
		return fmt.Errorf("no configs produced from %s", urlsFile)
	}
	return nil
}
