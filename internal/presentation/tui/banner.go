package tui

import (
	"fmt"
)

// PrintBanner outputs the ASCII art banner for Weave.
func PrintBanner() {
	lines := []string{
		` __      _____  __ ___   _____ `,
		` \ \ /\ / / _ \/ _` + "`" + ` \ \ / / _ \`,
		`  \ V  V /  __/ (_| |\ V /  __/`,
		`   \_/\_/ \___|\__,_| \_/ \___|`,
	}
	colors := []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9"}

	fmt.Println()
	for i, line := range lines {
		fmt.Println(colorize(line, colors[i]))
	}
	fmt.Println()
}
