package app

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/openarchive/repository-index-adapter/document"
	"github.com/openarchive/repository-index-adapter/expand"
	"github.com/openarchive/repository-index-adapter/linkeddata"
	"github.com/openarchive/repository-index-adapter/registry"
)

var file string

// NewCmdExpand expands a single publication document read from disk and
// prints the result. Useful to inspect what the index is going to receive
// without touching the queues.
func NewCmdExpand(out io.Writer, config *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Expand a publication JSON document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doExpand(out, afero.NewOsFs(), config)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "File")

	return cmd
}

func doExpand(out io.Writer, fs afero.Fs, config *Config) error {
	if file == "" {
		return errors.New("parameter empty")
	}
	data, err := afero.ReadFile(fs, file)
	if err != nil {
		return errors.Wrap(err, "cannot read file")
	}
	doc, err := document.FromJSON(data)
	if err != nil {
		return errors.Wrap(err, "cannot parse document")
	}

	logger := logrus.WithField("cmd", "expand")
	channels, err := registry.NewChannelRegistry(logger, config.UserAgent())
	if err != nil {
		return err
	}
	assembler := expand.NewResourceAssembler(
		logger,
		linkeddata.NewMerger(logger, channels),
		config.PublicBaseURL())

	entry, err := assembler.Assemble(context.Background(), doc)
	if err != nil {
		return err
	}
	blob, err := entry.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(blob))
	return err
}
