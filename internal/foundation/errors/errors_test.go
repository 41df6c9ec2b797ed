package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewError_Defaults(t *testing.T) {
	err := NewError(CategoryIntake, "record rejected").Build()

	require.Equal(t, CategoryIntake, err.Category())
	require.Equal(t, SeverityError, err.Severity())
	require.Equal(t, RetryNever, err.RetryStrategy())
	require.Contains(t, err.Error(), "[intake:error] record rejected")
}

func TestWrapError_UnwrapsToCause(t *testing.T) {
	cause := fmt.Errorf("open failed")
	err := WrapError(cause, CategoryFileSystem, "cannot read record file").Build()

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "open failed")
}

func TestBuilder_ContextAndSeverity(t *testing.T) {
	err := NewError(CategoryModel, "orphaned symbol").
		Warning().
		WithContext("symbol", "acme.Widget").
		Build()

	require.True(t, err.IsSeverity(SeverityWarning))
	v, ok := err.Context().GetString("symbol")
	require.True(t, ok)
	require.Equal(t, "acme.Widget", v)
}

func TestWithContext_DoesNotMutateOriginal(t *testing.T) {
	base := NewError(CategoryRender, "emit failed").Build()
	derived := base.WithContext("format", "html")

	_, ok := base.Context().Get("format")
	require.False(t, ok)
	_, ok = derived.Context().Get("format")
	require.True(t, ok)
}

func TestAsClassified(t *testing.T) {
	classified := InternalError("ledger misuse").Build()
	got, ok := AsClassified(classified)
	require.True(t, ok)
	require.True(t, got.IsFatal())

	_, ok = AsClassified(stderrors.New("plain"))
	require.False(t, ok)
	require.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
}

func TestHasCategory(t *testing.T) {
	err := StoreError("insert failed").Build()
	require.True(t, HasCategory(err, CategoryStore))
	require.False(t, HasCategory(err, CategoryEvents))
	require.True(t, err.CanRetry())
}
