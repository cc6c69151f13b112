package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/felixgeelhaar/kvtrack/infrastructure/storage/mongodb"
)

func (a *App) schools(ctx context.Context) (*mongodb.Schools, error) {
	client, err := a.mongoClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.Schools(), nil
}

// printDocs writes each document as one line of relaxed extended JSON.
func (a *App) printDocs(docs []bson.M) error {
	for _, doc := range docs {
		out, err := bson.MarshalExtJSON(doc, false, false)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, string(out))
	}
	return nil
}

// newSchoolsCmd creates the schools command group.
func (a *App) newSchoolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schools",
		Short: "Query the schools and students collections",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every school",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := a.schools(cmd.Context())
				if err != nil {
					return err
				}
				docs, err := s.ListAll(cmd.Context())
				if err != nil {
					return err
				}
				return a.printDocs(docs)
			},
		},
		a.newInsertSchoolCmd(),
		&cobra.Command{
			Use:   "update-topics <name> [topic]...",
			Short: "Replace the topics of every school with the given name",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.schools(cmd.Context())
				if err != nil {
					return err
				}
				n, err := s.UpdateTopics(cmd.Context(), args[0], args[1:])
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "by-topic <topic>",
			Short: "List schools teaching a topic",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.schools(cmd.Context())
				if err != nil {
					return err
				}
				docs, err := s.SchoolsByTopic(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printDocs(docs)
			},
		},
		&cobra.Command{
			Use:   "names",
			Short: "List school names",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := a.schools(cmd.Context())
				if err != nil {
					return err
				}
				names, err := s.Names(cmd.Context())
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(a.stdout, n)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "count-city <city>",
			Short: "Count schools in a city",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.schools(cmd.Context())
				if err != nil {
					return err
				}
				n, err := s.CountByCity(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete every school with the given name",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.schools(cmd.Context())
				if err != nil {
					return err
				}
				n, err := s.DeleteByName(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "top-students",
			Short: "List students by average topic score, best first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				client, err := a.mongoClient(cmd.Context())
				if err != nil {
					return err
				}
				students, err := client.Students().TopStudents(cmd.Context())
				if err != nil {
					return err
				}
				enc := json.NewEncoder(a.stdout)
				for _, s := range students {
					if err := enc.Encode(s); err != nil {
						return err
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "index",
			Short: "Create the name index",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := a.schools(cmd.Context())
				if err != nil {
					return err
				}
				name, err := s.CreateNameIndex(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, name)
				return nil
			},
		},
	)

	return cmd
}

func (a *App) newInsertSchoolCmd() *cobra.Command {
	var (
		fields map[string]string
		topics []string
	)

	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert a school and print its id",
		Long: `Insert a school document built from --field pairs and print the new id.

Example:
  kvtrack schools insert --field name=UCSF --field address="505 Parnassus Ave" --topic Python`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc := make(map[string]any, len(fields)+1)
			for k, v := range fields {
				doc[k] = v
			}
			if len(topics) > 0 {
				doc["topics"] = topics
			}

			s, err := a.schools(cmd.Context())
			if err != nil {
				return err
			}
			id, err := s.InsertSchool(cmd.Context(), doc)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, id)
			return nil
		},
	}

	cmd.Flags().StringToStringVar(&fields, "field", nil, "Document field (key=value)")
	cmd.Flags().StringArrayVar(&topics, "topic", nil, "Topic (repeatable)")

	return cmd
}

// newLogsCmd creates the logs command group.
func (a *App) newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Query the nginx log collection",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print request totals, method counts, status checks and top IPs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.mongoClient(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := client.Logs().Stats(cmd.Context())
			if err != nil {
				return err
			}
			_, err = stats.WriteTo(a.stdout)
			return err
		},
	})

	return cmd
}
