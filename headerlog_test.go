package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLogLine(t *testing.T) {
	header, err := BuildResponseHeader(StatusOK, "text/html", testLastMod, KeepAlive, testNow)
	require.NoError(t, err)

	expect := "[HTTP/1.1 200 OK]" +
		"[Date: " + testDate + "]" +
		"[Connection: keep-alive]" +
		"[Keep-Alive: timeout=10, max=100]" +
		"[Last-Modified: " + testLastMod + "]" +
		"[Content-Type: text/html]\n"
	assert.Equal(t, expect, FormatLogLine(header))
}

func TestHeaderLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	l := NewHeaderLog(path)

	require.NoError(t, l.Append("HTTP/1.1 404 File Not Found\r\nContent-Type: N/A\r\n\r\n"))
	require.NoError(t, l.Append("HTTP/1.1 400 Bad Request\r\n\r\n"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[HTTP/1.1 404 File Not Found][Content-Type: N/A]\n[HTTP/1.1 400 Bad Request]\n", string(b))
}

func TestHeaderLogDisabled(t *testing.T) {
	var l *HeaderLog
	assert.NoError(t, l.Append("HTTP/1.1 200 OK\r\n\r\n"))
	assert.NoError(t, NewHeaderLog("").Append("HTTP/1.1 200 OK\r\n\r\n"))
}

func TestHeaderLogBadPath(t *testing.T) {
	l := NewHeaderLog(filepath.Join(t.TempDir(), "missing", "log.txt"))
	assert.Error(t, l.Append("HTTP/1.1 200 OK\r\n\r\n"))
}

func TestHeaderLogConcurrentLinesStayWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	l := NewHeaderLog(path)

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				header := fmt.Sprintf("HTTP/1.1 200 OK\r\nX-Writer: %d-%d\r\n\r\n", i, j)
				assert.NoError(t, l.Append(header))
			}
		}(i)
	}
	wg.Wait()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
	require.Len(t, lines, writers*perWriter)

	seen := make(map[string]bool)
	for _, line := range lines {
		var i, j int
		_, err := fmt.Sscanf(line, "[HTTP/1.1 200 OK][X-Writer: %d-%d]", &i, &j)
		require.NoError(t, err, line)
		seen[fmt.Sprintf("%d-%d", i, j)] = true
	}
	assert.Len(t, seen, writers*perWriter)
}
