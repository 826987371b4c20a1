package common

import (
	stderrors "errors"
	"testing"

	"careertools/internal/errors"
	"careertools/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	formats := []string{"json", "text", "markdown"}

	for _, format := range formats {
		assert.NoError(t, ValidateOutputFormat(format, formats), format)
	}

	for _, format := range []string{"xml", "yaml", "JSON", ""} {
		err := ValidateOutputFormat(format, formats)
		require.Error(t, err, format)
		assert.Equal(t, "unsupported output format '"+format+"'. Supported formats: [json text markdown]", err.Error())
	}

	assert.NoError(t, ValidateOutputFormat("xml", nil), "an empty list allows any format")
	assert.Error(t, ValidateOutputFormat("text", []string{"json"}))
}

func TestResolveTool(t *testing.T) {
	tool, err := ResolveTool(" Salary-Comparator ")
	require.NoError(t, err)
	assert.Equal(t, types.ToolSalaryComparator, tool.Kind)

	_, err = ResolveTool("horoscope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opportunity-heatmap")

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeUnknownTool, appErr.Code)
}
