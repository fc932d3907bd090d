package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.LessOrEqual(t, len(info.Commit), 12)
}

func TestGet_LinkTimeValuesWin(t *testing.T) {
	oldCommit, oldDate := Commit, Date
	t.Cleanup(func() { Commit, Date = oldCommit, oldDate })
	Commit, Date = "abc123", "2026-01-02T03:04:05Z"

	info := Get()

	assert.Equal(t, "abc123", info.Commit)
	assert.Equal(t, "2026-01-02T03:04:05Z", info.Date)
}

func TestString(t *testing.T) {
	s := String()

	assert.Contains(t, s, "otherwords "+Version)
	assert.Contains(t, s, runtime.Version())
}
