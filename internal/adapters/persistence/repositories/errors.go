package repositories

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/Taistois/mims/internal/core/domain"

	"gorm.io/gorm"
)

// Store-level failures. Services usually replace ErrRecordNotFound with an
// entity-specific error before returning.
var (
	ErrRecordNotFound = domain.NewError(domain.KindNotFound, "record not found")
	ErrDuplicateKey   = domain.NewError(domain.KindConflict, "resource already exists")
	ErrStoreDown      = domain.NewError(domain.KindTransient, "database temporarily unavailable")
)

// duplicate-key texts per driver: mysql 1062, postgres 23505, sqlite
var duplicateMarkers = []string{
	"Duplicate entry",
	"duplicate key value",
	"UNIQUE constraint failed",
	"SQLSTATE 23505",
}

var connectionMarkers = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"bad connection",
	"server has gone away",
	"database is locked",
}

// translate classifies a gorm/driver error into the domain taxonomy.
// Unknown errors are returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.Wrap(domain.KindNotFound, ErrRecordNotFound.Message, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.Wrap(domain.KindConflict, ErrDuplicateKey.Message, err)
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, syscall.ECONNREFUSED):
		return domain.Wrap(domain.KindTransient, ErrStoreDown.Message, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.Wrap(domain.KindTransient, ErrStoreDown.Message, err)
	}

	msg := err.Error()
	for _, m := range duplicateMarkers {
		if strings.Contains(msg, m) {
			return domain.Wrap(domain.KindConflict, ErrDuplicateKey.Message, err)
		}
	}
	for _, m := range connectionMarkers {
		if strings.Contains(msg, m) {
			return domain.Wrap(domain.KindTransient, ErrStoreDown.Message, err)
		}
	}

	return err
}

// IsNotFound reports whether err is a missing-row error from this package.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
