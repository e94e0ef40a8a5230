package http_test

import (
	"io"
	"strings"
	"testing"

	"vod-catalog/infrastructure/utils"

	"github.com/stretchr/testify/require"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func signToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	token, err := utils.GenerateToken(claims, testSecret)
	require.NoError(t, err)
	return token
}
