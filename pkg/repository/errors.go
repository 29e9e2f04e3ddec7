package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/herbarium/pkg/transport"
)

const (
	pgDuplicateKeyCode     = "23505"
	pgIntegrityClass       = "23"
	pgConnectionClass      = "08"
	pgInsufficientResource = "53"
)

// MapError translates database errors to domain errors.
// It maps sql.ErrNoRows to notFoundErr and PostgreSQL unique violation (23505)
// to duplicateErr. Remaining failures are classified as database transport
// errors: other integrity violations become conflicts, and connection or
// timeout failures become unreachable or timeout.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgDuplicateKeyCode && duplicateErr != nil:
			return duplicateErr
		case strings.HasPrefix(pgErr.Code, pgIntegrityClass):
			return transport.New(transport.Database, "query", transport.Conflict, err)
		case strings.HasPrefix(pgErr.Code, pgConnectionClass),
			strings.HasPrefix(pgErr.Code, pgInsufficientResource):
			return transport.New(transport.Database, "query", transport.Unreachable, err)
		}
		return transport.New(transport.Database, "query", transport.Unknown, err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return transport.New(transport.Database, "query", transport.Unreachable, err)
	}

	if pgconn.Timeout(err) {
		return transport.New(transport.Database, "query", transport.Timeout, err)
	}

	return transport.Wrap(transport.Database, "query", err)
}
