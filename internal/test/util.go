package test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cjsesm/cjsesm/internal/logger"
)

// AssertEqualWithDiff compares generated code. Failures print a unified
// diff of the two texts.
func AssertEqualWithDiff(t *testing.T, observed string, expected string) {
	t.Helper()
	require.Equal(t, expected, observed)
}

func SourceForTest(path string, contents string) logger.Source {
	return logger.Source{
		KeyPath:    logger.Path{Text: path, Namespace: "file"},
		PrettyPath: path,
		Contents:   contents,
	}
}
