package version

import (
	"fmt"
	"log"
	"strings"

	"github.com/pterm/pterm"
)

var (
	Name        = "pantolingo"
	Description = "Translating reverse proxy"
	Version     = "v0.0.1"
	Commit      = "none"
	Date        = "nowish"
	User        = "local"
)

const (
	GithubHomeText = "github.com/pantolingo/pantolingo"
	GithubHomeUri  = "https://github.com/pantolingo/pantolingo"
)

func PrintVersionInfo(extendedInfo bool, vlog *log.Logger) {
	splash := pterm.NewStyle(pterm.FgCyan)

	var b strings.Builder
	b.WriteString(splash.Sprint(`
 ██████╗  █████╗ ███╗  ██╗████████╗ █████╗ ██╗     ██╗███╗  ██╗ ██████╗  █████╗
 ██╔══██╗██╔══██╗████╗ ██║╚══██╔══╝██╔══██╗██║     ██║████╗ ██║██╔════╝ ██╔══██╗
 ██████╔╝███████║██╔██╗██║   ██║   ██║  ██║██║     ██║██╔██╗██║██║  ███╗██║  ██║
 ██╔═══╝ ██╔══██║██║╚████║   ██║   ██║  ██║██║     ██║██║╚████║██║   ██║██║  ██║
 ██║     ██║  ██║██║ ╚███║   ██║   ╚█████╔╝███████╗██║██║ ╚███║╚██████╔╝╚█████╔╝
 ╚═╝     ╚═╝  ╚═╝╚═╝  ╚══╝   ╚═╝    ╚════╝ ╚══════╝╚═╝╚═╝  ╚══╝ ╚═════╝  ╚════╝` + "\n"))

	b.WriteString(" ")
	b.WriteString(pterm.FgLightBlue.Sprint(GithubHomeUri))
	b.WriteString("  ")
	b.WriteString(pterm.FgLightGreen.Sprint(Version))

	if extendedInfo {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf(" Commit: %s\n", Commit))
		b.WriteString(fmt.Sprintf("  Built: %s\n", Date))
		b.WriteString(fmt.Sprintf("  Using: %s\n", User))
	}

	vlog.Println(b.String())
}
