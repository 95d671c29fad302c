package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Weft.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Subtle gradient from indigo to rose
	s1 := termenv.String(" __      __        _____ _   ").Foreground(p.Color("#818cf8"))
	s2 := termenv.String(" \\ \\    / /       |  ___| |  ").Foreground(p.Color("#a78bfa"))
	s3 := termenv.String("  \\ \\/\\/ /__  ___ | |_  | |_ ").Foreground(p.Color("#c084fc"))
	s4 := termenv.String("   \\    / _ \\|___||  _| | __|").Foreground(p.Color("#e879f9"))
	s5 := termenv.String("    \\/\\/\\___/     |_|    \\__|").Foreground(p.Color("#fb7185"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}
