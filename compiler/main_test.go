package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgramName(t *testing.T) {
	testData := []struct {
		sourcePath string
		output     string
		expected   string
	}{
		{sourcePath: "hello.gl", expected: "hello"},
		{sourcePath: "dir/sum.goal", expected: "dir/sum"},
		{sourcePath: "noext", expected: "noext.out"},
		{sourcePath: ".gl", expected: ".gl.out"},
		{sourcePath: "hello.gl", output: "bin/hello", expected: "bin/hello"},
	}
	for _, data := range testData {
		assert.Equal(t, data.expected, programName(data.sourcePath, data.output), data.sourcePath)
	}
}
