package output

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/JHAAdmins/gh-collab-audit/internal/audit"
)

// csvHeader is the column order of the CSV report.
var csvHeader = []string{
	"Repository",
	"Repo Visibility",
	"Username",
	"Full name",
	"SSO email",
	"Verified email",
	"Repo permission",
	"Organization role",
	"Organization",
	"Via teams",
}

// WriteCSV writes the report rows as a CSV file at path, atomically.
// Rows with multiple granting teams join the slugs with a semicolon.
func WriteCSV(path string, report *audit.Report) error {
	return writeAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
		for _, row := range report.Rows {
			record := []string{
				row.Repository,
				row.Visibility,
				row.Login,
				row.Name,
				row.SSOEmail,
				row.VerifiedEmail,
				row.Permission.String(),
				row.OrgRole,
				report.Organization,
				strings.Join(row.ViaTeams, ";"),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
