package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stemsi/exquiz-backend/internal/client"
	"github.com/stemsi/exquiz-backend/internal/model"
)

// publicClient returns the logged-in client when there is one, otherwise an
// anonymous client for the public catalog endpoints.
func (g *globals) publicClient() (*client.Client, error) {
	api, _, err := g.session()
	if errors.Is(err, client.ErrNotLoggedIn) {
		return client.New(g.baseURL(), ""), nil
	}
	return api, err
}

func newClassesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "List classes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := g.publicClient()
			if err != nil {
				return err
			}
			classes, err := api.ListClasses(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, c := range classes {
				fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Description)
			}
			return w.Flush()
		},
	}
}

func newSubjectsCmd(g *globals) *cobra.Command {
	var classID int

	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "List the subjects of a class",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := g.publicClient()
			if err != nil {
				return err
			}
			subjects, err := api.ListSubjects(cmd.Context(), classID)
			if err != nil {
				return err
			}
			if len(subjects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No subjects in this class")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, s := range subjects {
				fmt.Fprintf(w, "%d\t%s\t%s\n", s.ID, s.Name, s.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&classID, "class", 0, "class id")
	_ = cmd.MarkFlagRequired("class")
	return cmd
}

func newSetsCmd(g *globals) *cobra.Command {
	var (
		subjectID int
		semester  int
	)

	cmd := &cobra.Command{
		Use:   "sets",
		Short: "List the question sets of a subject in one semester",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !model.Semester(semester).Valid() {
				return errors.New("semester must be 1 or 2")
			}
			api, _, err := g.session()
			if err != nil {
				return err
			}
			sets, err := api.ListSets(cmd.Context(), subjectID, model.Semester(semester))
			if err != nil {
				return err
			}
			if len(sets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sets for this semester")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SET\tQUESTIONS")
			for _, s := range sets {
				fmt.Fprintf(w, "%d\t%d\n", s.SetNumber, s.QuestionCount)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&subjectID, "subject", 0, "subject id")
	cmd.Flags().IntVar(&semester, "semester", 1, "semester (1 or 2)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newRankingsCmd(g *globals) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Show the leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := g.publicClient()
			if err != nil {
				return err
			}
			entries, err := api.Rankings(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No rankings yet")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tUSER\tAVERAGE\tTESTS")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%d\t%s\t%d\n", e.Rank, e.UserID, formatScore(e.AverageScore), e.TotalTests)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of entries (server default when 0)")
	return cmd
}
