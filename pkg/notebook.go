package laserball

import (
	"fmt"
	"io"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

var codeSources = jp.MustParseString("$.cells[?(@.cell_type == 'code')].source")

// CountNotebookLines counts the source lines of the code cells of a
// Jupyter notebook. A source stored as a list counts one line per element,
// a source stored as a single string counts its lines. A document without
// a cells list is an error.
func CountNotebookLines(r io.Reader) (int, error) {
	doc, err := oj.Load(r)
	if err != nil {
		return 0, fmt.Errorf("error parsing notebook: %w", err)
	}
	nb, ok := doc.(map[string]any)
	if !ok {
		return 0, fmt.Errorf("notebook is not a JSON object")
	}
	if _, ok := nb["cells"].([]any); !ok {
		return 0, fmt.Errorf("notebook has no cells list")
	}
	total := 0
	for _, src := range codeSources.Get(doc) {
		switch v := src.(type) {
		case []any:
			total += len(v)
		case string:
			if v != "" {
				total += strings.Count(strings.TrimSuffix(v, "\n"), "\n") + 1
			}
		case nil:
		default:
			return 0, fmt.Errorf("unexpected cell source of type %T", src)
		}
	}
	return total, nil
}
