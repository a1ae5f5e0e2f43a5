package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Servus-Altissimi/Boomie/pkg/project"
	"github.com/Servus-Altissimi/Boomie/pkg/scorefile"
)

var validateMelodies nameValueList

var validateCmd = &cobra.Command{
	Use:   "validate <file.mel|file.bmi>",
	Short: "Parse a score file and report errors without rendering it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().Var(&validateMelodies, "melody", "name=path.mel, repeatable; resolves track: references when validating a .bmi")
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mel":
		track, err := scorefile.ParseMelody(string(content), nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK: melody %q, %d elements, %.2fs\n", track.Name, len(track.Sequence), track.Length)
	case ".bmi":
		proj := project.New(nil)
		for _, m := range validateMelodies {
			if err := proj.LoadMelody(m.Name, m.Value); err != nil {
				return err
			}
		}
		arr, err := scorefile.ParseArrangement(string(content), proj.MelCache, proj.Logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK: arrangement %q, %d tracks, %.2fs\n", arr.Name, len(arr.Tracks), arr.TotalLength)
	default:
		return fmt.Errorf("unrecognized score file extension %q (expected .mel or .bmi)", filepath.Ext(path))
	}

	return nil
}
