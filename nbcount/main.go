package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/eos-exp/laserball_go/internal/cli"
	laserball "github.com/eos-exp/laserball_go/pkg"
)

func main() {
	notebook := flag.String("notebook", "analysis.ipynb", "Jupyter notebook path")
	flag.Parse()
	logger := cli.NewLogger()

	f, err := os.Open(*notebook)
	if err != nil {
		logger.Error(fmt.Errorf("Error opening notebook: %w", err).Error())
		os.Exit(1)
	}
	defer f.Close()

	lines, err := laserball.CountNotebookLines(f)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	fmt.Printf("Total lines of code in '%s': %d\n", *notebook, lines)
}
