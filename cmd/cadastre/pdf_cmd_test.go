package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveMatchDirs(t *testing.T) {
	tests := []struct {
		name       string
		xmlDir     string
		scanDir    string
		scanDirSet bool
		want       matchDirs
	}{
		{
			name:    "default scan directory sits next to xml",
			xmlDir:  filepath.Join("data", "xa-a", "xml"),
			scanDir: "ho-so-quet",
			want: matchDirs{
				commune: "xa-a",
				xml:     filepath.Join("data", "xa-a", "xml"),
				scan:    filepath.Join("data", "xa-a", "ho-so-quet"),
			},
		},
		{
			name:    "trailing separator on the xml directory",
			xmlDir:  filepath.Join("data", "xa-a", "xml") + string(filepath.Separator),
			scanDir: "ho-so-quet",
			want: matchDirs{
				commune: "xa-a",
				xml:     filepath.Join("data", "xa-a", "xml"),
				scan:    filepath.Join("data", "xa-a", "ho-so-quet"),
			},
		},
		{
			name:       "explicit scan directory is kept",
			xmlDir:     filepath.Join("data", "xa-a", "xml"),
			scanDir:    "scans",
			scanDirSet: true,
			want: matchDirs{
				commune: "xa-a",
				xml:     filepath.Join("data", "xa-a", "xml"),
				scan:    "scans",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveMatchDirs(tt.xmlDir, tt.scanDir, tt.scanDirSet))
		})
	}
}
