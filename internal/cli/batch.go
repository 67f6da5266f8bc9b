package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/gscore/internal/domain/bulk"
	"github.com/okian/gscore/pkg/logger"
	"github.com/spf13/cobra"
)

func newBatchCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "batch [github-username|profile-url]...",
		Short: "Score a list of profiles one after another and rank them",
		Long: `Score every profile named on the command line or in --file, in order.
Profiles may be usernames, @handles or github.com URLs separated by whitespace or commas.
Use --file - to read the list from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if file != "" {
				b, err := readInput(cmd, file)
				if err != nil {
					return err
				}
				text += "\n" + string(b)
			}
			ids := bulk.ParseIdentities(text)
			if len(ids) == 0 {
				return errNoProfiles
			}

			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			a.log.Info(ctx, "running batch", logger.Int("identities", len(ids)))
			rep, err := svc.RunBatch(ctx, ids)
			if err != nil {
				return err
			}

			w, closeOut, err := a.writer(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = closeOut() }()
			return w.WriteBatch(rep)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read profiles from a file, or - for stdin")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile list: %w", err)
	}
	return b, nil
}
