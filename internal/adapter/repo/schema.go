package repo

import (
	"context"
	"fmt"

	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
	"github.com/imranraza-AI/Clothing-brand-website/internal/sqlinline"
)

// EnsureSchema creates the tables used by the key store and job history.
// It is idempotent.
func EnsureSchema(ctx context.Context, sql infra.SQLExecutor) error {
	if _, err := sql.Exec(ctx, sqlinline.QEnsureStudioSchema); err != nil {
		return fmt.Errorf("ensure studio schema: %w", err)
	}
	return nil
}
