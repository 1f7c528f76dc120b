package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	appSub "github.com/turtacn/af3-portal/internal/application/submission"
	"github.com/turtacn/af3-portal/pkg/errors"
)

func newRenderCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "render <form.json>",
		Short: "Render a saved form as an alphafold3 input document",
		Long: "Read a form in the JSON shape the web page posts to /api/v1/submissions/preview\n" +
			"(use - for stdin), validate it and print the rendered document.",
		Example: "  af3portal render form.json\n  af3portal render - --out af3_input.json < form.json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			form, err := readForm(cmd, args[0])
			if err != nil {
				return err
			}

			svc := appSub.NewService(nil, cliCtx.Logger.Named("render"))
			preview, err := svc.Preview(cmd.Context(), *form)
			if err != nil {
				return err
			}

			if outPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), preview.JSON)
				return nil
			}
			if err := os.WriteFile(outPath, []byte(preview.JSON+"\n"), 0o644); err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to write document").WithDetail("path=" + outPath)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write the document to this file instead of stdout")
	return cmd
}

func readForm(cmd *cobra.Command, path string) (*appSub.Form, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "cannot open form").WithDetail("path=" + path)
		}
		defer f.Close()
		r = f
	}

	var form appSub.Form
	if err := json.NewDecoder(r).Decode(&form); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "form is not valid JSON").WithDetail("path=" + path)
	}
	return &form, nil
}
