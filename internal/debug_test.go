package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactedEnviron(t *testing.T) {
	environ := []string{
		"PORT=8080",
		"AWS_SECRET_ACCESS_KEY=abc",
		"GITHUB_TOKEN=xyz",
		"db_password=hunter2",
		"LOG_LEVEL=debug",
		"EMPTY",
	}

	got := RedactedEnviron(environ)
	assert.Equal(t, []string{
		"AWS_SECRET_ACCESS_KEY=********",
		"EMPTY",
		"GITHUB_TOKEN=********",
		"LOG_LEVEL=debug",
		"PORT=8080",
		"db_password=********",
	}, got)
	assert.Equal(t, "PORT=8080", environ[0], "input is left unsorted")
}
