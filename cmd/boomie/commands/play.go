package commands

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Servus-Altissimi/Boomie/pkg/playback"
	"github.com/Servus-Altissimi/Boomie/pkg/project"
	"github.com/Servus-Altissimi/Boomie/pkg/tui"
)

var (
	playSamples    nameValueList
	playMelodies   nameValueList
	playSampleRate int
)

var playCmd = &cobra.Command{
	Use:   "play <arrangement.bmi>",
	Short: "Play an arrangement live through the default audio device",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().Var(&playSamples, "sample", "name=path.wav, repeatable")
	playCmd.Flags().Var(&playMelodies, "melody", "name=path.mel, repeatable")
	playCmd.Flags().IntVar(&playSampleRate, "sample-rate", 44100, "output sample rate in Hz")
}

func runPlay(cmd *cobra.Command, args []string) error {
	arrangementPath := args[0]

	proj := project.New(nil)
	for _, s := range playSamples {
		if err := proj.LoadSample(s.Name, s.Value); err != nil {
			return err
		}
	}
	for _, m := range playMelodies {
		if err := proj.LoadMelody(m.Name, m.Value); err != nil {
			return err
		}
	}

	arrangement, err := proj.LoadArrangement(arrangementPath)
	if err != nil {
		return err
	}

	sampleRate := float64(playSampleRate)
	engine, err := playback.NewEngine(sampleRate)
	if err != nil {
		return err
	}
	engine.Play(arrangement)

	model := tui.NewModel(engine, arrangement, sampleRate)
	program := tea.NewProgram(model)
	_, err = program.Run()
	return err
}
