// Package sheets defines the outbound port for the spreadsheet export.
package sheets

import (
	"context"

	"finanzas/internal/core"
)

// RowAppender appends one transaction as a spreadsheet row.
type RowAppender interface {
	Append(ctx context.Context, owner string, t core.Transaction) (rowRef string, err error)
}
