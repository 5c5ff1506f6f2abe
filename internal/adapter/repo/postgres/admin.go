package postgres

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// AdminConsole runs single operator-supplied SQL statements. It is only
// reachable behind the admin shared-secret guard.
type AdminConsole struct{ Pool PgxPool }

// NewAdminConsole constructs an AdminConsole with the given pool.
func NewAdminConsole(p PgxPool) *AdminConsole { return &AdminConsole{Pool: p} }

// ConsoleResult carries either returned rows or an affected-row count.
type ConsoleResult struct {
	Columns      []string `json:"columns,omitempty"`
	Rows         [][]any  `json:"rows,omitempty"`
	RowsAffected int64    `json:"rows_affected"`
	Kind         string   `json:"kind"`
}

// Run executes one statement. Queries return up to maxRows rows; anything
// else returns the affected-row count.
func (a *AdminConsole) Run(ctx domain.Context, sql string, maxRows int) (ConsoleResult, error) {
	tracer := otel.Tracer("repo.admin")
	ctx, span := tracer.Start(ctx, "admin.Run")
	defer span.End()
	stmt := strings.TrimSpace(sql)
	if stmt == "" {
		return ConsoleResult{}, fmt.Errorf("op=admin.run: empty statement: %w", domain.ErrInvalidArgument)
	}
	if maxRows <= 0 {
		maxRows = 200
	}
	if isQuery(stmt) {
		rows, err := a.Pool.Query(ctx, stmt)
		if err != nil {
			return ConsoleResult{}, fmt.Errorf("op=admin.run: %w", err)
		}
		defer rows.Close()
		res := ConsoleResult{Kind: "rows"}
		for _, fd := range rows.FieldDescriptions() {
			res.Columns = append(res.Columns, string(fd.Name))
		}
		for rows.Next() {
			vals, err := rows.Values()
			if err != nil {
				return ConsoleResult{}, fmt.Errorf("op=admin.run: %w", err)
			}
			res.Rows = append(res.Rows, vals)
			res.RowsAffected++
			if len(res.Rows) >= maxRows {
				break
			}
		}
		if err := rows.Err(); err != nil {
			return ConsoleResult{}, fmt.Errorf("op=admin.run: %w", err)
		}
		return res, nil
	}
	tag, err := a.Pool.Exec(ctx, stmt)
	if err != nil {
		return ConsoleResult{}, fmt.Errorf("op=admin.run: %w", err)
	}
	return ConsoleResult{Kind: "exec", RowsAffected: tag.RowsAffected()}, nil
}

func isQuery(stmt string) bool {
	head := strings.ToLower(stmt)
	return strings.HasPrefix(head, "select") || strings.HasPrefix(head, "with") || strings.HasPrefix(head, "show") || strings.HasPrefix(head, "explain")
}
