package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/storage"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bracketctl",
		Short:         "Build, inspect and play double-elimination brackets stored as files",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newTokenCmd())
	return rootCmd
}

// files resolves CLI paths as given, relative to the working directory.
var files = storage.NewFileStore("")

func loadFile(ctx context.Context, path string) (*brackets.Tournament, error) {
	return storage.Load(ctx, files, path)
}

// writeOrPrint saves to path, or prints the YAML document when path is "-".
func writeOrPrint(ctx context.Context, out io.Writer, path string, t *brackets.Tournament) error {
	if path == "-" {
		data, err := storage.Encode(t)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}
	return storage.Save(ctx, files, path, t)
}

// resolveEntrant accepts an entrant id or a unique name.
func resolveEntrant(t *brackets.Tournament, arg string) (int, error) {
	if id, err := strconv.Atoi(arg); err == nil {
		return id, nil
	}
	found := 0
	for _, e := range t.Registry().Entrants() {
		if strings.EqualFold(e.Name, arg) {
			if found != 0 {
				return 0, fmt.Errorf("entrant name %q is ambiguous, use the id", arg)
			}
			found = e.ID
		}
	}
	if found == 0 {
		return 0, fmt.Errorf("no entrant named %q", arg)
	}
	return found, nil
}

func printTournament(out io.Writer, t *brackets.Tournament) error {
	v := t.View()
	fmt.Fprintf(out, "%s (%s), %d entrants\n\n", v.Name, v.Type, len(v.Entrants))

	byID := map[string]brackets.MatchView{}
	for _, rounds := range [][]brackets.RoundView{v.Winners, v.Losers} {
		for _, rnd := range rounds {
			for _, m := range rnd.Matches {
				byID[m.ID] = m
			}
		}
	}
	for _, m := range v.GrandFinals {
		byID[m.ID] = m
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MATCH\tBRACKET\tROUND\tPLAYER 1\tPLAYER 2\tSTATE\tWINNER\t")
	for _, id := range v.Order {
		m := byID[id]
		marker := ""
		switch {
		case m.IsCurrent:
			marker = " <- current"
		case m.IsLastDecided:
			marker = " <- last"
		}
		winner := ""
		if m.Winner != nil {
			winner = m.Winner.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.Bracket, m.Round, m.Player1Label, m.Player2Label, m.State, winner, marker)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if v.Champion != nil {
		fmt.Fprintf(out, "\nChampion: %s\n", v.Champion.Name)
	}
	return nil
}
