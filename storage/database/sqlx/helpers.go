// Package sqlxrepos implements the domain repositories on Postgres with
// sqlx scanning and squirrel query building.
package sqlxrepos

import (
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/zawadi/chekechea/core"
)

// psql builds queries with Postgres placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// getExec lets services run repository calls inside their own transaction.
func getExec(db *sqlx.DB, svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if ext, ok := svcExec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return db
}

// trapNoRowsErr maps psql "no rows" err to the domain not-found error.
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func prefixColumns(alias string, columns []string) []string {
	prefixed := make([]string, 0, len(columns))
	for _, col := range columns {
		prefixed = append(prefixed, alias+"."+col)
	}
	return prefixed
}

// audiencePredicate builds the viewer's audience rules as an OR-filter over
// the audience and room_ids columns. It returns nil when the viewer may see
// every audience (principals, base staff). Services re-validate each row with
// core.Visibility.VisibleTo; the two must agree.
func audiencePredicate(viewer core.Viewer) sq.Sqlizer {
	if viewer.IsPrincipal || (viewer.IsStaff && !viewer.IsTeacher) {
		return nil
	}

	roomOverlap := sq.Expr("room_ids && ?::uuid[]", pq.StringArray(viewer.RoomIDs))
	if viewer.IsTeacher {
		return sq.Or{
			sq.Eq{"audience": core.AudienceOrg},
			sq.Eq{"audience": core.AudienceStaff},
			sq.And{sq.Eq{"audience": core.AudienceRooms}, roomOverlap},
		}
	}
	// guardians: never the staff audience
	return sq.Or{
		sq.Eq{"audience": core.AudienceOrg},
		sq.And{sq.Eq{"audience": core.AudienceRooms}, roomOverlap},
	}
}

func applyOrdering(q sq.SelectBuilder, ordering []core.DBOrdering) sq.SelectBuilder {
	if len(ordering) == 0 {
		return q
	}
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	return q.OrderBy(strings.Join(orderList, ", "))
}

func applyPaging(q sq.SelectBuilder, paging core.DBPaging) sq.SelectBuilder {
	if paging.Limit > 0 {
		q = q.Limit(uint64(paging.Limit))
	}
	if paging.Offset > 0 {
		q = q.Offset(uint64(paging.Offset))
	}
	return q
}
