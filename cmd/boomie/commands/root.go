// Package commands implements the boomie CLI's subcommands.
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "boomie",
	Short: "A melody/arrangement synthesizer core",
	Long: `boomie loads .mel melody and .bmi arrangement score files and
synthesizes them, either to a WAV file offline or live through an
audio device.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(validateCmd)
}

// nameValueFlag is one name=value pair; nameValueList accumulates
// repeated --flag name=value pairs into an ordered slice, implementing
// pflag.Value so cobra can bind it directly.
type nameValueFlag struct {
	Name  string
	Value string
}

type nameValueList []nameValueFlag

func (l *nameValueList) String() string {
	parts := make([]string, len(*l))
	for i, nv := range *l {
		parts[i] = nv.Name + "=" + nv.Value
	}
	return strings.Join(parts, ",")
}

func (l *nameValueList) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("expected name=path, got %q", s)
	}
	*l = append(*l, nameValueFlag{Name: name, Value: value})
	return nil
}

func (l *nameValueList) Type() string {
	return "name=value"
}
