package builder

import (
	"errors"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/require"

	"github.com/sqlbricks/go-mssql/database/types"
)

func TestBindParamNumbersSequentially(t *testing.T) {
	params := Params{}

	if name := bindParam(params, "a"); name != ":qp0" {
		t.Fatalf("first binding named %s", name)
	}
	if name := bindParam(params, "b"); name != ":qp1" {
		t.Fatalf("second binding named %s", name)
	}
	if params[":qp0"] != "a" || params[":qp1"] != "b" {
		t.Fatalf("unexpected params map: %v", params)
	}
}

func TestBindSqlizerRebindsPlaceholders(t *testing.T) {
	params := Params{":qp0": "taken"}

	fragment, err := bindSqlizer(squirrel.Eq{"status": 1}, params)
	require.NoError(t, err)

	if fragment != "status = :qp1" {
		t.Fatalf("unexpected fragment: %s", fragment)
	}
	if params[":qp1"] != 1 {
		t.Fatalf("bound value missing: %v", params)
	}
}

func TestBindSqlizerRejectsPlaceholderMismatch(t *testing.T) {
	params := Params{}

	_, err := bindSqlizer(squirrel.Expr("a = ? AND b = ?", 1), params)
	require.Error(t, err)
	if !errors.Is(err, types.ErrParamMismatch) {
		t.Fatalf("expected ErrParamMismatch, got %v", err)
	}
}
