package clickhouse

import (
	"context"
	"regexp"
	"strconv"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/consts"
	"github.com/pseudomuto/chsync/pkg/schema"
	"github.com/pseudomuto/chsync/pkg/utils"
)

// Server error codes the rest of chsync cares about.
const (
	CodeUnknownTable    = 60
	CodeUnknownDatabase = 81
	CodeTableExists     = 57
	CodeTimeoutExceeded = 159

	// CodeCannotGetCreateTableQuery is what SHOW CREATE TABLE reports for a
	// missing table on Atomic databases.
	CodeCannotGetCreateTableQuery = 390
)

// httpCodeRe pulls the numeric code out of HTTP interface error bodies such
// as "Code: 60. DB::Exception: Table app.x does not exist".
var httpCodeRe = regexp.MustCompile(`Code:\s*(\d+)`)

// classify converts driver errors into the schema error kinds. Deadline
// errors become *schema.TimeoutError; everything else is a *schema.RemoteError
// with the server's code when one can be found.
func classify(ctx context.Context, query string, err error) error {
	if err == nil {
		return nil
	}

	stmt := utils.Truncate(RedactSQL(query), consts.DiagnosticLimit)

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.WithStack(&schema.TimeoutError{Statement: stmt})
	}

	var ex *clickhouse.Exception
	if errors.As(err, &ex) {
		if ex.Code == CodeTimeoutExceeded {
			return errors.WithStack(&schema.TimeoutError{Statement: stmt})
		}
		return errors.WithStack(&schema.RemoteError{
			Statement: stmt,
			Code:      ex.Code,
			Message:   utils.Truncate(ex.Message, consts.DiagnosticLimit),
		})
	}

	msg := err.Error()
	re := &schema.RemoteError{Statement: stmt, Message: utils.Truncate(msg, consts.DiagnosticLimit)}
	if m := httpCodeRe.FindStringSubmatch(msg); m != nil {
		if code, convErr := strconv.ParseInt(m[1], 10, 32); convErr == nil {
			re.Code = int32(code)
		}
	}
	if re.Code == CodeTimeoutExceeded {
		return errors.WithStack(&schema.TimeoutError{Statement: stmt})
	}

	return errors.WithStack(re)
}

// IsCode reports whether err carries the given server error code.
func IsCode(err error, code int32) bool {
	re, ok := schema.AsRemote(err)
	return ok && re.Code == code
}
