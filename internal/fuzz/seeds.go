package fuzztests

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"kestrel/internal/ast"
	"kestrel/internal/astio"
	"kestrel/internal/testkit"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
	maxFuzzInput = 256 << 10
)

// addCorpusSeeds adds every testdata document plus the scenario programs
// encoded in format.
func addCorpusSeeds(f *testing.F, format astio.Format) {
	addTestdataSeeds(f, format)
	addScenarioSeeds(f, format)
	addDocumentSeeds(f, format)
}

// documentSeeds are small YAML documents that once broke lowering.
var documentSeeds = []string{
	// value function without a body
	`{version: 1, decls: [27], nodes: [{id: 27, kind: func, type: f32, name: "0"}]}`,
}

func addDocumentSeeds(f *testing.F, format astio.Format) {
	for _, src := range documentSeeds {
		if format == astio.FormatYAML {
			f.Add([]byte(src))
			continue
		}
		doc, err := astio.Unmarshal([]byte(src), astio.FormatYAML)
		if err != nil {
			continue
		}
		var buf bytes.Buffer
		if err := astio.Marshal(&buf, doc, format); err != nil {
			continue
		}
		f.Add(buf.Bytes())
	}
}

func addTestdataSeeds(f *testing.F, format astio.Format) {
	pattern := filepath.Join("..", "astio", "testdata", "*")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return
	}
	for _, path := range paths {
		if got, err := astio.FormatOf(path); err != nil || got != format {
			continue
		}
		// #nosec G304 -- path comes from repository testdata glob
		src, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f.Add(clampSeed(src))
	}
}

func addScenarioSeeds(f *testing.F, format astio.Format) {
	for _, build := range []func(*ast.Allocator) *ast.Program{testkit.PrintScenario, testkit.CountdownScenario} {
		doc, err := astio.Encode("seed", build(nil))
		if err != nil {
			continue
		}
		var buf bytes.Buffer
		if err := astio.Marshal(&buf, doc, format); err != nil {
			continue
		}
		f.Add(clampSeed(buf.Bytes()))
	}
}

func clampSeed(src []byte) []byte {
	if len(src) > maxSeedBytes {
		src = src[:maxSeedBytes]
	}
	return append([]byte(nil), src...)
}
