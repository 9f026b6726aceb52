package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var CLI struct {
	Debug bool `help:"Whether to enable debug logging."`

	Run struct {
		Script string `arg:"" name:"script" help:"Lisp layout script." type:"existingfile"`
		Output string `short:"o" help:"Project file to write; the extension picks the encoding." default:"project.json"`
		Name   string `help:"Project name." default:"Untitled Project"`
	} `cmd:"" help:"Evaluate a layout script and save the pieces as a project."`

	Inspect struct {
		Project   string  `arg:"" name:"project" help:"Project file." type:"existingfile"`
		Faces     bool    `help:"List the six faces of every piece."`
		Threshold float64 `help:"Contact distance in millimeters." default:"1"`
		WorkArea  float64 `help:"Work area side in millimeters; 0 skips the check." default:"10000"`
	} `cmd:"" help:"Show pieces, validation findings, contacts and connected groups."`

	Mesh struct {
		Project string `arg:"" name:"project" help:"Project file." type:"existingfile"`
		Cells   int    `help:"Marching cubes cells along the longest axis of each piece." default:"200"`
		Output  string `short:"o" help:"Write JSON here instead of standard output."`
	} `cmd:"" help:"Tessellate a project and print the meshes as JSON."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx := kong.Parse(&CLI,
		kong.Name("lumberctl"),
		kong.Description("headless tools for lumberyard projects"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Debug().Msg("debug logging enabled")
	}

	var err error
	switch ctx.Command() {
	case "run <script>":
		err = runScript(CLI.Run.Script, CLI.Run.Output, CLI.Run.Name)
	case "inspect <project>":
		err = inspect(os.Stdout, CLI.Inspect.Project, inspectOptions{
			faces:     CLI.Inspect.Faces,
			threshold: CLI.Inspect.Threshold,
			workArea:  CLI.Inspect.WorkArea,
		})
	case "mesh <project>":
		err = withOutput(CLI.Mesh.Output, func(w io.Writer) error {
			return writeMeshes(w, CLI.Mesh.Project, CLI.Mesh.Cells)
		})
	}
	if err != nil {
		writeError(err)
	}
}
