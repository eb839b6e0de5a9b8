package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/middleware"
	"github.com/Dosada05/bracket-engine/storage"
)

func newBuildCmd() *cobra.Command {
	var (
		name     string
		entrants string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "build [seed.txt]",
		Short: "Generate a fresh bracket from a seed file or from --name/--entrants",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				t   *brackets.Tournament
				err error
			)
			switch {
			case len(args) == 1:
				t, err = loadFile(cmd.Context(), args[0])
			case name != "" && entrants != "":
				seed := storage.Seed{Name: name, Entrants: strings.Split(entrants, ",")}
				t, err = storage.BuildFromSeed([]byte(seed.String()))
			default:
				return errors.New("pass a seed file or both --name and --entrants")
			}
			if err != nil {
				return err
			}
			return writeOrPrint(cmd.Context(), cmd.OutOrStdout(), output, t)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Tournament name")
	cmd.Flags().StringVar(&entrants, "entrants", "", "Comma-separated entrant names, in seeding order")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Document to write (.yaml), or - for stdout")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print the play order with the current and last match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printTournament(cmd.OutOrStdout(), t)
		},
	}
}

func newPlayCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "play <file> <winner>...",
		Short: "Record winners of the current match, one per argument, by id or name",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, arg := range args[1:] {
				id, err := resolveEntrant(t, arg)
				if err != nil {
					return err
				}
				match := t.Current().ID
				if err := t.RecordWinner(id); err != nil {
					return fmt.Errorf("%s: %w", match, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s won by %s\n", match, arg)
			}
			return writeOrPrint(cmd.Context(), cmd.OutOrStdout(), destination(output, args[0]), t)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Document to write (.yaml), - for stdout; defaults to the input file")
	return cmd
}

func newResetCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "reset <file>",
		Short: "Clear every result, keeping the bracket structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			t.Reset()
			return writeOrPrint(cmd.Context(), cmd.OutOrStdout(), destination(output, args[0]), t)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Document to write (.yaml), - for stdout; defaults to the input file")
	return cmd
}

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Load a seed or document and write it as a YAML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeOrPrint(cmd.Context(), cmd.OutOrStdout(), output, t)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "Document to write (.yaml), or - for stdout")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API, signed with JWT_SECRET_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET_KEY")
			if secret == "" {
				return errors.New("JWT_SECRET_KEY environment variable is not set")
			}
			token, err := middleware.NewToken(secret, subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "bracketctl", "Token subject")
	cmd.Flags().StringVar(&role, "role", middleware.RoleOrganizer, "Token role (organizer or viewer)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

// destination keeps play/reset results next to the input unless it is a seed.
func destination(output, input string) string {
	if output != "" {
		return output
	}
	if kind, err := storage.KindOf(input); err == nil && kind == storage.SourceSeed {
		return strings.TrimSuffix(input, filepath.Ext(input)) + ".yaml"
	}
	return input
}
