// Database query metrics через pgx tracer hooks.
//
// Тracer навешивается на пул в composition root, поэтому все запросы
// репозиториев попадают в метрики без инструментирования самих репозиториев.
package container

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/coinvault/coinvault/internal/adapters/http/middleware"
)

type queryStartKey struct{}

type queryStartInfo struct {
	begin     time.Time
	operation string
	table     string
}

// queryMetricsTracer реализует pgx.QueryTracer и пишет длительность
// и ошибки каждого запроса в prometheus.
type queryMetricsTracer struct{}

func (queryMetricsTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	operation, table := classifyQuery(data.SQL)
	return context.WithValue(ctx, queryStartKey{}, queryStartInfo{
		begin:     time.Now(),
		operation: operation,
		table:     table,
	})
}

func (queryMetricsTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	info, ok := ctx.Value(queryStartKey{}).(queryStartInfo)
	if !ok {
		return
	}

	middleware.RecordDBQuery(info.operation, info.table, time.Since(info.begin))

	// pgx.ErrNoRows - штатный результат, не ошибка БД
	if data.Err != nil && !errors.Is(data.Err, pgx.ErrNoRows) {
		middleware.RecordDBError(info.operation, errorType(data.Err))
	}
}

// classifyQuery извлекает SQL verb и целевую таблицу для label'ов метрик.
func classifyQuery(sql string) (operation, table string) {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "UNKNOWN", "unknown"
	}

	operation = strings.ToUpper(fields[0])
	table = "unknown"

	switch operation {
	case "SELECT", "DELETE":
		for i, f := range fields {
			if strings.EqualFold(f, "FROM") && i+1 < len(fields) {
				table = strings.ToLower(fields[i+1])
				break
			}
		}
	case "INSERT":
		for i, f := range fields {
			if strings.EqualFold(f, "INTO") && i+1 < len(fields) {
				table = strings.ToLower(fields[i+1])
				break
			}
		}
	case "UPDATE":
		if len(fields) > 1 {
			table = strings.ToLower(fields[1])
		}
	case "BEGIN", "COMMIT", "ROLLBACK":
		table = "tx"
	}

	// Отрезаем алиасы и скобки: "wallets(user_id," -> "wallets"
	if idx := strings.IndexAny(table, "(,;"); idx > 0 {
		table = table[:idx]
	}

	return operation, table
}

// errorType мапит ошибку запроса на label error_type.
func errorType(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return "unique_violation"
		case pgErr.Code == "40001":
			return "serialization_failure"
		case strings.HasPrefix(pgErr.Code, "23"):
			return "constraint_violation"
		case strings.HasPrefix(pgErr.Code, "08"):
			return "connection_error"
		default:
			return pgErr.Code
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	return "other"
}
