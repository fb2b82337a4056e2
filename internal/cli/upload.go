package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	consentform "github.com/goliatone/go-consentform"
	"github.com/goliatone/go-consentform/pkg/present"
)

func newUploadCmd(a *app) *cobra.Command {
	var fields map[string]string
	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a privacy policy document",
		Long: fmt.Sprintf(`upload sends FILE to the backend as a multipart form. Expected types: %v.
Other types are sent anyway; the backend decides.`, consentform.AllowedPolicyExtensions),
		Example: "  consentctl upload policy.pdf --field version=2",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			if err := consentform.CheckPolicyExtension(path); err != nil {
				printWarning(a.errOut, "%s is not one of %v", filepath.Base(path), consentform.AllowedPolicyExtensions)
			}

			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()

			console, err := a.console(ctx, consentform.WithoutAnalytics())
			if err != nil {
				return err
			}
			res := console.SubmitPolicy(ctx, filepath.Base(path), file, fields)
			if !res.OK() {
				return errors.New(present.Message(res, present.GenericUploadError))
			}
			for _, notice := range console.Notices() {
				printSuccess(a.out, "%s", notice.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&fields, "field", nil, "extra form field as key=value (repeatable)")
	return cmd
}
