package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Unauthorized("no"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Upstream(errors.New("x"), "down"), http.StatusBadGateway},
		{Internal("boom"), http.StatusInternalServerError},
		{Upstream(errors.New("x"), "token").WithStatus(http.StatusInternalServerError), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("root")
	err := fmt.Errorf("outer: %w", Wrapf(cause, ErrCodeInternal, "save %s", "link"))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeInternal, GetCode(err))
	assert.Equal(t, "outer: save link: root", err.Error())
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "x"))
}

func TestMapDBError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		code  ErrorCode
		field string
	}{
		{name: "deadline", err: context.DeadlineExceeded, code: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, code: ErrCodeCanceled},
		{name: "no rows", err: fmt.Errorf("scan: %w", pgx.ErrNoRows), code: ErrCodeNotFound},
		{
			name:  "unique via detail",
			err:   &pgconn.PgError{Code: pgerrcode.UniqueViolation, Detail: "Key (subject_id)=(1) already exists."},
			code:  ErrCodeConflict,
			field: "subject_id",
		},
		{
			name:  "not null",
			err:   &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "external_id"},
			code:  ErrCodeValidation,
			field: "external_id",
		},
		{name: "other pg", err: &pgconn.PgError{Code: pgerrcode.UndefinedTable}, code: ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapDBError(tt.err)
			appErr, ok := As(mapped)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestMapDBError_PassThrough(t *testing.T) {
	assert.NoError(t, MapDBError(nil))
	plain := errors.New("plain")
	assert.Same(t, plain, MapDBError(plain))
}
