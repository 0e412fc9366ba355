package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
)

// StatusCmd prints the credential status.
type StatusCmd struct {
	Refresh bool `long:"refresh" description:"refresh the token first if it is not valid"`

	out io.Writer
}

func (s *StatusCmd) Execute(_ []string) error {
	ctx := context.Background()
	_, log, fetcher, err := options.setup(ctx, noBackgroundRefresh)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	if s.Refresh {
		if _, err := fetcher.Token(ctx); err != nil {
			log.Warn().Err(err).Msg("⚠️  Refresh failed, reporting current state")
		}
	}

	out := s.out
	if out == nil {
		out = os.Stdout
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(fetcher.Status())
}
