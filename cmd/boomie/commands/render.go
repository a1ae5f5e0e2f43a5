package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Servus-Altissimi/Boomie/pkg/project"
	"github.com/Servus-Altissimi/Boomie/pkg/render"
	"github.com/Servus-Altissimi/Boomie/pkg/score"
	"github.com/Servus-Altissimi/Boomie/pkg/wavio"
)

var (
	renderSamples    nameValueList
	renderMelodies   nameValueList
	renderSampleRate int
)

var renderCmd = &cobra.Command{
	Use:   "render <arrangement.bmi> <output.wav>",
	Short: "Render an arrangement to a WAV file offline",
	Args:  cobra.ExactArgs(2),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().Var(&renderSamples, "sample", "name=path.wav, repeatable; preloads a sample for .mel files that reference it")
	renderCmd.Flags().Var(&renderMelodies, "melody", "name=path.mel, repeatable; preloads a melody for the arrangement to place")
	renderCmd.Flags().IntVar(&renderSampleRate, "sample-rate", 44100, "output sample rate in Hz")
}

func runRender(cmd *cobra.Command, args []string) error {
	arrangementPath, outputPath := args[0], args[1]

	proj := project.New(nil)
	for _, s := range renderSamples {
		if err := proj.LoadSample(s.Name, s.Value); err != nil {
			return err
		}
	}
	for _, m := range renderMelodies {
		if err := proj.LoadMelody(m.Name, m.Value); err != nil {
			return err
		}
	}

	arrangement, err := proj.LoadArrangement(arrangementPath)
	if err != nil {
		return err
	}

	sampleRate := float64(renderSampleRate)
	buffer := render.Render(arrangement, sampleRate, score.DefaultDynamicParameters())

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := wavio.WriteAll(f, buffer, renderSampleRate); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %q: %.2fs, %d samples -> %s\n", arrangement.Name, arrangement.TotalLength, len(buffer), outputPath)
	return nil
}
