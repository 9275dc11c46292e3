package db

import (
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestInitPostgres_Unreachable(t *testing.T) {
	for _, dsn := range []string{"some=random", ""} {
		_, err := InitPostgres(dsn)
		if err == nil || !strings.Contains(err.Error(), "ping postgres") {
			t.Errorf("InitPostgres(%q) error = %v; want ping failure", dsn, err)
		}
	}
}

func TestApplySchema(t *testing.T) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer dbMock.Close()

	mock.ExpectExec(`(?s)CREATE TABLE IF NOT EXISTS users .* CREATE TABLE IF NOT EXISTS documents`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := applySchema(dbMock); err != nil {
		t.Fatalf("applySchema: %v", err)
	}

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
	if err := applySchema(dbMock); err == nil || !strings.Contains(err.Error(), "create schema") {
		t.Errorf("applySchema error = %v; want create schema failure", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
